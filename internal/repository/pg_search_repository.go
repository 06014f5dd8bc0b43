package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// resultBatchSize is the number of result rows written per database batch.
const resultBatchSize = 500

// Compile-time interface verification.
var _ SearchRepository = (*PgSearchRepository)(nil)

// PgSearchRepository is a PostgreSQL implementation of SearchRepository.
type PgSearchRepository struct {
	db DBTX
}

// NewPgSearchRepository creates a new PostgreSQL search repository.
func NewPgSearchRepository(db DBTX) *PgSearchRepository {
	return &PgSearchRepository{db: db}
}

// SaveMetadata inserts or updates the status record for a search.
func (r *PgSearchRepository) SaveMetadata(ctx context.Context, record *domain.SearchRecord) error {
	if record == nil {
		return domain.NewValidationError("record", "record cannot be nil")
	}
	if record.SearchID == uuid.Nil {
		return domain.NewValidationError("search_id", "search ID is required")
	}

	query := `
		INSERT INTO searches (
			search_id, original_query, enhanced_query, sources, max_results,
			date_from, date_to, language, status, results_count, error,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13
		)
		ON CONFLICT (search_id) DO UPDATE SET
			enhanced_query = EXCLUDED.enhanced_query,
			status = EXCLUDED.status,
			results_count = EXCLUDED.results_count,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		record.SearchID, record.OriginalQuery, record.EnhancedQuery,
		sourceStrings(record.Sources), record.MaxResults,
		record.DateFrom, record.DateTo, record.Language,
		record.Status, record.ResultsCount, nullString(record.Error),
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save search metadata: %w", err)
	}

	return nil
}

// SaveResults persists the full result set of a search in batches.
func (r *PgSearchRepository) SaveResults(ctx context.Context, searchID uuid.UUID, results []domain.SearchResult) error {
	if searchID == uuid.Nil {
		return domain.NewValidationError("search_id", "search ID is required")
	}

	query := `
		INSERT INTO search_results (
			search_id, position, result_id, title, source, authors,
			abstract, url, date, doi, journal, extras,
			relevance_score, analysis
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14
		)
		ON CONFLICT (search_id, result_id) DO UPDATE SET
			position = EXCLUDED.position,
			relevance_score = EXCLUDED.relevance_score,
			analysis = EXCLUDED.analysis`

	for start := 0; start < len(results); start += resultBatchSize {
		end := start + resultBatchSize
		if end > len(results) {
			end = len(results)
		}

		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			res := &results[i]

			var extrasJSON, analysisJSON []byte
			var err error
			if len(res.Extras) > 0 {
				if extrasJSON, err = json.Marshal(res.Extras); err != nil {
					return fmt.Errorf("failed to marshal extras for result %s: %w", res.ID, err)
				}
			}
			if res.Analysis != nil {
				if analysisJSON, err = json.Marshal(res.Analysis); err != nil {
					return fmt.Errorf("failed to marshal analysis for result %s: %w", res.ID, err)
				}
			}

			batch.Queue(query,
				searchID, i, res.ID, res.Title, res.Source, res.Authors,
				res.Abstract, res.URL, nullString(res.Date), nullString(res.DOI),
				nullString(res.Journal), extrasJSON,
				res.RelevanceScore, analysisJSON,
			)
		}

		br := r.db.SendBatch(ctx, batch)
		if err := executeBatch(br, batch.Len()); err != nil {
			return fmt.Errorf("failed to save search results: %w", err)
		}
	}

	return nil
}

// executeBatch drains all queued commands and closes the batch results.
func executeBatch(br pgx.BatchResults, n int) error {
	var firstErr error
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := br.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// UpdateStatus updates the status of a search together with its results count.
func (r *PgSearchRepository) UpdateStatus(ctx context.Context, searchID uuid.UUID, status domain.SearchStatus, resultsCount int, errorMsg string) error {
	query := `
		UPDATE searches
		SET status = $1,
			results_count = $2,
			error = $3,
			updated_at = $4
		WHERE search_id = $5`

	result, err := r.db.Exec(ctx, query,
		status, resultsCount, nullString(errorMsg), time.Now().UTC(), searchID,
	)
	if err != nil {
		return fmt.Errorf("failed to update search status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("search", searchID.String())
	}

	return nil
}

// Get retrieves the status record for a search.
func (r *PgSearchRepository) Get(ctx context.Context, searchID uuid.UUID) (*domain.SearchRecord, error) {
	query := `
		SELECT search_id, original_query, enhanced_query, sources, max_results,
			date_from, date_to, language, status, results_count, error,
			created_at, updated_at
		FROM searches
		WHERE search_id = $1`

	row := r.db.QueryRow(ctx, query, searchID)
	record, err := scanSearchRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("search", searchID.String())
		}
		return nil, fmt.Errorf("failed to get search: %w", err)
	}

	return record, nil
}

// GetResults retrieves a page of results ordered by descending relevance score.
func (r *PgSearchRepository) GetResults(ctx context.Context, searchID uuid.UUID, limit, offset int) ([]domain.SearchResult, error) {
	applyPaginationDefaults(&limit, &offset)

	query := `
		SELECT result_id, title, source, authors, abstract, url,
			date, doi, journal, extras, relevance_score, analysis
		FROM search_results
		WHERE search_id = $1
		ORDER BY relevance_score DESC, position ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, searchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query search results: %w", err)
	}
	defer rows.Close()

	results := make([]domain.SearchResult, 0, limit)
	for rows.Next() {
		res, err := scanSearchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	if len(results) == 0 {
		// Distinguish an unknown search from a search with no results.
		var exists bool
		if err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM searches WHERE search_id = $1)", searchID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check search existence: %w", err)
		}
		if !exists {
			return nil, domain.NewNotFoundError("search", searchID.String())
		}
	}

	return results, nil
}

// List retrieves search records matching the filter criteria, newest first.
func (r *PgSearchRepository) List(ctx context.Context, filter SearchFilter) ([]*domain.SearchRecord, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIndex := 1

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, s)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("created_at > $%d", argIndex))
		args = append(args, *filter.CreatedAfter)
		argIndex++
	}

	if filter.CreatedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argIndex))
		args = append(args, *filter.CreatedBefore)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM searches WHERE %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count searches: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT search_id, original_query, enhanced_query, sources, max_results,
			date_from, date_to, language, status, results_count, error,
			created_at, updated_at
		FROM searches
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list searches: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.SearchRecord, 0, filter.Limit)
	for rows.Next() {
		record, err := scanSearchRecordFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan search: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating searches: %w", err)
	}

	return records, totalCount, nil
}

// Delete removes a search; its results are removed by cascade.
func (r *PgSearchRepository) Delete(ctx context.Context, searchID uuid.UUID) error {
	result, err := r.db.Exec(ctx, "DELETE FROM searches WHERE search_id = $1", searchID)
	if err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("search", searchID.String())
	}

	return nil
}

// searchScanDest holds the destination pointers for scanning a search row.
// This eliminates code duplication between pgx.Row and pgx.Rows scanning.
type searchScanDest struct {
	record   domain.SearchRecord
	sources  []string
	errorMsg *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *searchScanDest) destinations() []interface{} {
	return []interface{}{
		&d.record.SearchID, &d.record.OriginalQuery, &d.record.EnhancedQuery,
		&d.sources, &d.record.MaxResults,
		&d.record.DateFrom, &d.record.DateTo, &d.record.Language,
		&d.record.Status, &d.record.ResultsCount, &d.errorMsg,
		&d.record.CreatedAt, &d.record.UpdatedAt,
	}
}

// finalize performs post-scan processing of nullable and array fields.
func (d *searchScanDest) finalize() *domain.SearchRecord {
	d.record.Sources = make([]domain.SourceType, len(d.sources))
	for i, s := range d.sources {
		d.record.Sources[i] = domain.SourceType(s)
	}
	if d.errorMsg != nil {
		d.record.Error = *d.errorMsg
	}
	return &d.record
}

// scanSearchRecord scans a single row into a SearchRecord.
func scanSearchRecord(row pgx.Row) (*domain.SearchRecord, error) {
	var dest searchScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanSearchRecordFromRows scans the current row from pgx.Rows into a SearchRecord.
func scanSearchRecordFromRows(rows pgx.Rows) (*domain.SearchRecord, error) {
	var dest searchScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanSearchResult scans the current row from pgx.Rows into a SearchResult.
func scanSearchResult(rows pgx.Rows) (domain.SearchResult, error) {
	var (
		res          domain.SearchResult
		date         *string
		doi          *string
		journal      *string
		extrasJSON   []byte
		analysisJSON []byte
	)

	err := rows.Scan(
		&res.ID, &res.Title, &res.Source, &res.Authors, &res.Abstract, &res.URL,
		&date, &doi, &journal, &extrasJSON, &res.RelevanceScore, &analysisJSON,
	)
	if err != nil {
		return domain.SearchResult{}, err
	}

	if date != nil {
		res.Date = *date
	}
	if doi != nil {
		res.DOI = *doi
	}
	if journal != nil {
		res.Journal = *journal
	}

	if len(extrasJSON) > 0 {
		if err := json.Unmarshal(extrasJSON, &res.Extras); err != nil {
			return domain.SearchResult{}, fmt.Errorf("failed to unmarshal extras: %w", err)
		}
	}

	if len(analysisJSON) > 0 {
		var analysis domain.AIAnalysis
		if err := json.Unmarshal(analysisJSON, &analysis); err != nil {
			return domain.SearchResult{}, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		res.Analysis = &analysis
	}

	return res, nil
}

// sourceStrings converts source types to a string slice for array encoding.
func sourceStrings(sources []domain.SourceType) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}

// nullString returns a pointer to the string if non-empty, otherwise nil.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
