package shared

// Paginated represents one page of a larger result set
type Paginated[T any] struct {
	Items        []T   `json:"items"`
	Total        int64 `json:"total"`
	Page         int   `json:"page"`
	PageSize     int   `json:"page_size"`
	TotalPages   int   `json:"total_pages"`
	HasMorePages bool  `json:"has_more_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 1
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
		if totalPages == 0 {
			totalPages = 1
		}
	}
	return Paginated[T]{
		Items:        items,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		HasMorePages: page < totalPages,
	}
}
