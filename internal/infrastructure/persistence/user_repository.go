package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository stores users in the users table
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError(r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error)
}

// Update writes name, email, password hash and last login. Unknown ids are
// reported as not found rather than inserted.
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	row := models.UserModelFromDomain(user)
	result := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":          row.Name,
			"email":         row.Email,
			"password_hash": row.PasswordHash,
			"last_login_at": row.LastLoginAt,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).Count(&n).Error
	return n, translateError(err)
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg any) (*identity.User, error) {
	var row models.UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return row.ToDomain(), nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
