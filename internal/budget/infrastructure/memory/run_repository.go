package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

// RunRepository is an in-memory run store for tests and embedding callers.
// The CLI persists only through the Postgres repository.
type RunRepository struct {
	mu   sync.RWMutex
	data map[string]*budget.Run
}

// NewRunRepository constructs a repository.
func NewRunRepository() *RunRepository {
	return &RunRepository{
		data: make(map[string]*budget.Run),
	}
}

// Save stores a run, replacing any run with the same id.
func (r *RunRepository) Save(ctx context.Context, run *budget.Run) error {
	_ = ctx
	if run == nil {
		return errors.New("run repo: nil run")
	}
	if run.ID == "" {
		return errors.New("run repo: empty run id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[run.ID] = run
	return nil
}

// Get loads a run by id.
func (r *RunRepository) Get(ctx context.Context, id string) (*budget.Run, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	run := r.data[id]
	if run == nil {
		return nil, budget.ErrRunNotFound
	}
	return run, nil
}

// List returns stored runs ordered by start time.
func (r *RunRepository) List(ctx context.Context) ([]*budget.Run, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*budget.Run, 0, len(r.data))
	for _, run := range r.data {
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

// SourceReader serves sources held in memory, keyed by path.
type SourceReader struct {
	mu        sync.RWMutex
	zones     map[string]budget.RawSource
	locations map[string]budget.LocationSource
}

// NewSourceReader constructs an empty reader.
func NewSourceReader() *SourceReader {
	return &SourceReader{
		zones:     make(map[string]budget.RawSource),
		locations: make(map[string]budget.LocationSource),
	}
}

// PutZoneSource registers a zone budget source under path.
func (s *SourceReader) PutZoneSource(path string, src budget.RawSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[path] = src
}

// PutLocationSource registers a location budget source under path.
func (s *SourceReader) PutLocationSource(path string, src budget.LocationSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[path] = src
}

// ReadZoneSource returns the zone budget source registered under path.
func (s *SourceReader) ReadZoneSource(ctx context.Context, path string) (budget.RawSource, error) {
	if err := ctx.Err(); err != nil {
		return budget.RawSource{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.zones[path]
	if !ok {
		return budget.RawSource{}, fmt.Errorf("%w: unknown source %s", budget.ErrDataSource, path)
	}
	return src, nil
}

// ReadLocationSource returns the location budget source registered under path.
func (s *SourceReader) ReadLocationSource(ctx context.Context, path string) (budget.LocationSource, error) {
	if err := ctx.Err(); err != nil {
		return budget.LocationSource{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.locations[path]
	if !ok {
		return budget.LocationSource{}, fmt.Errorf("%w: unknown source %s", budget.ErrDataSource, path)
	}
	return src, nil
}
