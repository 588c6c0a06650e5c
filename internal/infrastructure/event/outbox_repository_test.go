package event

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func moneyOf(s string) valueobject.Money {
	return valueobject.FromDecimal(decimal.RequireFromString(s))
}

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.OutboxEntryModel{}))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newEntry(createdAt time.Time) *shared.OutboxEntry {
	e := shared.NewOutboxEntry(newTestEvent("OrderPlaced"), []byte(`{"data":"x"}`), 0)
	e.CreatedAt = createdAt
	e.UpdatedAt = createdAt
	return e
}

func TestGormOutboxRepository_SaveAndFindPending(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	newer := newEntry(base.Add(time.Minute))
	older := newEntry(base)
	sent := newEntry(base.Add(-time.Minute))
	sent.MarkSent()

	require.NoError(t, repo.Save(ctx, newer, older, sent))
	require.NoError(t, repo.Save(ctx))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
	assert.Equal(t, newer.ID, pending[1].ID)
	assert.Equal(t, `{"data":"x"}`, string(pending[0].Payload))

	limited, err := repo.FindPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormOutboxRepository_MarkProcessing(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	pending := newEntry(time.Now())
	sent := newEntry(time.Now())
	sent.MarkSent()
	require.NoError(t, repo.Save(ctx, pending, sent))

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID, sent.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, pending.ID, claimed[0].ID)
	assert.Equal(t, shared.OutboxStatusProcessing, claimed[0].Status)

	again, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID})
	require.NoError(t, err)
	assert.Empty(t, again, "an entry is claimed once")

	none, err := repo.MarkProcessing(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGormOutboxRepository_UpdateAndCount(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	a, b := newEntry(time.Now()), newEntry(time.Now())
	require.NoError(t, repo.Save(ctx, a, b))

	a.MarkFailed("sink unavailable")
	require.NoError(t, repo.Update(ctx, a))

	stored, err := repo.FindByEventID(ctx, a.EventID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "sink unavailable", stored.LastError)
	require.NotNil(t, stored.NextRetryAt)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusFailed])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormOutboxRepository_MarkProcessingSkipsLockedRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormOutboxRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE SKIP LOCKED`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectCommit()

	claimed, err := repo.MarkProcessing(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	assert.Empty(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_DeleteOlderThan(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormOutboxRepository(db)
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "outbox_events" WHERE status = $1 AND processed_at < $2`)).
		WithArgs(string(shared.OutboxStatusSent), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_SaveEvents(t *testing.T) {
	db := setupOutboxDB(t)
	publisher := NewOutboxPublisher(newRegisteredSerializer())
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	t.Run("writes entries inside the transaction", func(t *testing.T) {
		evt := placedEvent(t)
		err := db.Transaction(func(tx *gorm.DB) error {
			return publisher.SaveEvents(ctx, tx, evt)
		})
		require.NoError(t, err)

		entry, err := repo.FindByEventID(ctx, evt.EventID())
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusPending, entry.Status)
		assert.Equal(t, evt.OrderID, entry.AggregateID)
		assert.Equal(t, shared.DefaultMaxRetries, entry.MaxRetries)
	})

	t.Run("applies the configured retry budget", func(t *testing.T) {
		evt := placedEvent(t)
		budgeted := NewOutboxPublisher(newRegisteredSerializer(), WithMaxRetries(8))
		err := db.Transaction(func(tx *gorm.DB) error {
			return budgeted.SaveEvents(ctx, tx, evt)
		})
		require.NoError(t, err)

		entry, err := repo.FindByEventID(ctx, evt.EventID())
		require.NoError(t, err)
		assert.Equal(t, 8, entry.MaxRetries)
	})

	t.Run("rolls back with the transaction", func(t *testing.T) {
		evt := placedEvent(t)
		boom := errors.New("order insert failed")
		err := db.Transaction(func(tx *gorm.DB) error {
			require.NoError(t, publisher.SaveEvents(ctx, tx, evt))
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = repo.FindByEventID(ctx, evt.EventID())
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("rejects unregistered events", func(t *testing.T) {
		err := publisher.SaveEvents(ctx, db, newTestEvent("Unregistered"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not registered")
	})

	t.Run("requires a gorm transaction handle", func(t *testing.T) {
		err := publisher.SaveEvents(ctx, "not a tx", placedEvent(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "*gorm.DB")
	})

	t.Run("no events is a no-op", func(t *testing.T) {
		assert.NoError(t, publisher.SaveEvents(ctx, nil))
	})
}
