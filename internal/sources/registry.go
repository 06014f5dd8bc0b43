package sources

import (
	"context"
	"sync"
	"time"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// SourceResult holds the outcome of one source's search.
type SourceResult struct {
	// Source identifies which adapter produced the result.
	Source domain.SourceType

	// Records contains the provisional records the adapter returned.
	// Empty when the search failed or matched nothing.
	Records []Record

	// Err carries the adapter's failure, if any. Callers absorb it into
	// an empty result set; one source's failure never suppresses the
	// records of another.
	Err error

	// Duration is how long the adapter's search took. Zero for source
	// types with no registered or enabled adapter.
	Duration time.Duration
}

// Registry manages source adapters and coordinates concurrent searches.
// Registration and lookup are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]Source),
	}
}

// Register adds a source to the registry, replacing any existing source of
// the same type.
func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not registered.
func (r *Registry) Get(sourceType domain.SourceType) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// EnabledSources returns a snapshot of the sources whose IsEnabled method
// reports true.
func (r *Registry) EnabledSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := make([]Source, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			enabled = append(enabled, source)
		}
	}
	return enabled
}

// SearchSources searches the requested sources concurrently, one goroutine
// per source. The returned slice has one entry per requested source, in the
// order the sources were requested; a requested type with no registered or
// enabled adapter yields an entry with empty records. Each source is
// independently fault-isolated: failures are carried in SourceResult.Err,
// never propagated.
func (r *Registry) SearchSources(ctx context.Context, params SearchParams, sourceTypes []domain.SourceType) []SourceResult {
	if len(sourceTypes) == 0 {
		return nil
	}

	results := make([]SourceResult, len(sourceTypes))
	var wg sync.WaitGroup

	for i, st := range sourceTypes {
		results[i] = SourceResult{Source: st}

		source := r.Get(st)
		if source == nil || !source.IsEnabled() {
			continue
		}

		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			start := time.Now()
			records, err := s.Search(ctx, params)
			results[i].Records = records
			results[i].Err = err
			results[i].Duration = time.Since(start)
		}(i, source)
	}

	wg.Wait()
	return results
}
