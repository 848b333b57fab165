package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// CoachRepository is a map-backed coach.Repository.
type CoachRepository struct {
	mu      *sync.RWMutex
	store   *Store
	coaches map[string]*coach.Coach
}

// NewCoachRepository creates an empty standalone store.
func NewCoachRepository() *CoachRepository {
	return &CoachRepository{mu: &sync.RWMutex{}, coaches: make(map[string]*coach.Coach)}
}

var _ coach.Repository = (*CoachRepository)(nil)

func (r *CoachRepository) Add(ctx context.Context, c *coach.Coach) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.coaches[c.ID()]; ok {
		return shared.NewDomainError("coach", "Add", shared.ErrConflict,
			fmt.Sprintf("coach %s already exists", c.ID()))
	}
	r.coaches[c.ID()] = c.Clone()
	return nil
}

func (r *CoachRepository) GetByID(ctx context.Context, id string) (*coach.Coach, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u := unitFor(ctx, r.store); u != nil {
		if staged, ok := u.coaches[id]; ok {
			return staged.Clone(), nil
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.coaches[id]
	if !ok {
		return nil, coach.ErrCoachNotFound
	}
	return c.Clone(), nil
}

func (r *CoachRepository) Save(ctx context.Context, c *coach.Coach) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := unitFor(ctx, r.store)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.coaches[c.ID()]; !ok {
		return coach.ErrCoachNotFound
	}
	if u != nil {
		u.coaches[c.ID()] = c.Clone()
		return nil
	}
	r.coaches[c.ID()] = c.Clone()
	return nil
}

func (r *CoachRepository) List(ctx context.Context) ([]*coach.Coach, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*coach.Coach, 0, len(r.coaches))
	for _, c := range r.coaches {
		out = append(out, c.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}
