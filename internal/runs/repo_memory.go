package runs

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepo stores runs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Run
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Run)}
}

// Create stores the run with its jobs.
func (r *MemoryRepo) Create(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[run.ID]; ok {
		return fmt.Errorf("%w: run %s already exists", ErrInvalidInput, run.ID)
	}
	run.Jobs = append([]Job(nil), run.Jobs...)
	r.byID[run.ID] = run
	return nil
}

// GetByID returns a run and its jobs.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	run.Jobs = append([]Job(nil), run.Jobs...)
	sort.SliceStable(run.Jobs, func(i, j int) bool { return run.Jobs[i].Position < run.Jobs[j].Position })
	return run, nil
}

// List returns runs newest first, without jobs.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	all := make([]Run, 0, len(r.byID))
	for _, run := range r.byID {
		run.Jobs = nil
		all = append(all, run)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].StartedAt.After(all[j].StartedAt)
	})
	if offset >= len(all) {
		return []Run{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
