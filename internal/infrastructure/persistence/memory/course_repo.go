// Package memory provides in-process implementations of the domain repositories.
// Stores hold deep copies so callers never share state with the store: a
// mutation becomes visible only once it is saved.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// CourseRepository is a map-backed course.Repository.
type CourseRepository struct {
	mu      *sync.RWMutex
	store   *Store
	courses map[string]*course.Course
}

// NewCourseRepository creates an empty standalone store. Use NewStore when
// saves must be grouped into a unit of work with coaches.
func NewCourseRepository() *CourseRepository {
	return &CourseRepository{mu: &sync.RWMutex{}, courses: make(map[string]*course.Course)}
}

var _ course.Repository = (*CourseRepository)(nil)

// Add stores a new course.
func (r *CourseRepository) Add(ctx context.Context, c *course.Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[c.ID()]; ok {
		return shared.NewDomainError("course", "Add", shared.ErrConflict,
			fmt.Sprintf("course %s already exists", c.ID()))
	}
	r.courses[c.ID()] = c.Clone()
	return nil
}

// GetByID returns a copy of the course, as staged by the open unit of work if any.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*course.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u := unitFor(ctx, r.store); u != nil {
		if staged, ok := u.courses[id]; ok {
			return staged.Clone(), nil
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, course.ErrCourseNotFound
	}
	return c.Clone(), nil
}

// Save replaces the stored state of an existing course. Inside a unit of
// work the new state is staged until the unit commits.
func (r *CourseRepository) Save(ctx context.Context, c *course.Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := unitFor(ctx, r.store)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[c.ID()]; !ok {
		return course.ErrCourseNotFound
	}
	if u != nil {
		u.courses[c.ID()] = c.Clone()
		return nil
	}
	r.courses[c.ID()] = c.Clone()
	return nil
}

// List returns every course ordered by start date, then name.
func (r *CourseRepository) List(ctx context.Context) ([]*course.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*course.Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartDate().Equal(b.StartDate()) {
			return a.StartDate().Before(b.StartDate())
		}
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return a.ID() < b.ID()
	})
	return out, nil
}
