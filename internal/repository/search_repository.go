package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// SearchRepository handles search record and result persistence.
// Searches are single-tenant: a search is addressed by its UUID alone.
type SearchRepository interface {
	// SaveMetadata inserts or updates the status record for a search.
	// The record must have a valid SearchID. Mutable fields (enhanced query,
	// status, results count, error, updated_at) are overwritten on conflict.
	SaveMetadata(ctx context.Context, record *domain.SearchRecord) error

	// SaveResults persists the full result set of a search in one batch
	// operation. Results are written in slice order so that the stored
	// ordering matches the pipeline's relevance ordering.
	SaveResults(ctx context.Context, searchID uuid.UUID, results []domain.SearchResult) error

	// UpdateStatus updates the status of a search together with its results
	// count. The errorMsg parameter is stored only when non-empty.
	// Returns domain.ErrNotFound if no matching search exists.
	UpdateStatus(ctx context.Context, searchID uuid.UUID, status domain.SearchStatus, resultsCount int, errorMsg string) error

	// Get retrieves the status record for a search.
	// Returns domain.ErrNotFound if no matching search exists.
	Get(ctx context.Context, searchID uuid.UUID) (*domain.SearchRecord, error)

	// GetResults retrieves a page of results for a search ordered by
	// descending relevance score. Ties keep their stored pipeline order.
	// Returns domain.ErrNotFound if no matching search exists.
	GetResults(ctx context.Context, searchID uuid.UUID, limit, offset int) ([]domain.SearchResult, error)

	// List retrieves search records matching the filter criteria, newest
	// first. Returns the matching records and total count for pagination.
	List(ctx context.Context, filter SearchFilter) ([]*domain.SearchRecord, int64, error)

	// Delete removes a search and its results.
	// Returns domain.ErrNotFound if no matching search exists.
	Delete(ctx context.Context, searchID uuid.UUID) error
}

// SearchFilter specifies criteria for listing searches.
type SearchFilter struct {
	// Status filters by one or more search statuses (optional).
	// When multiple statuses are provided, searches matching any status are returned.
	Status []domain.SearchStatus

	// CreatedAfter filters to searches created after this timestamp (optional).
	CreatedAfter *time.Time

	// CreatedBefore filters to searches created before this timestamp (optional).
	CreatedBefore *time.Time

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks the filter values and sets pagination defaults.
func (f *SearchFilter) Validate() error {
	for _, s := range f.Status {
		switch s {
		case domain.SearchStatusPending, domain.SearchStatusProcessing,
			domain.SearchStatusCompleted, domain.SearchStatusFailed:
		default:
			return domain.NewValidationError("status", "unknown search status")
		}
	}

	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
