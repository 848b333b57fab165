package memory

import (
	"context"
	"sync"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
)

// Store groups the course and coach repositories behind one lock. It is the
// unit of work for both: saves made inside WithinTx are staged and applied
// together only when fn succeeds, so readers never see one aggregate updated
// without the other.
type Store struct {
	mu      sync.RWMutex
	Courses *CourseRepository
	Coaches *CoachRepository
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	s.Courses = &CourseRepository{mu: &s.mu, store: s, courses: make(map[string]*course.Course)}
	s.Coaches = &CoachRepository{mu: &s.mu, store: s, coaches: make(map[string]*coach.Coach)}
	return s
}

type unitKey struct{}

// unitOfWork holds the saves staged by one WithinTx call. fn runs on a
// single goroutine, so it needs no lock of its own.
type unitOfWork struct {
	store   *Store
	courses map[string]*course.Course
	coaches map[string]*coach.Coach
}

// WithinTx runs fn with a staging context. A nested call joins the open unit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if unitFor(ctx, s) != nil {
		return fn(ctx)
	}

	u := &unitOfWork{
		store:   s,
		courses: make(map[string]*course.Course),
		coaches: make(map[string]*coach.Coach),
	}
	if err := fn(context.WithValue(ctx, unitKey{}, u)); err != nil {
		return err
	}

	// Past this point the work is decided; cancellation no longer applies.
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range u.courses {
		s.Courses.courses[id] = c
	}
	for id, c := range u.coaches {
		s.Coaches.coaches[id] = c
	}
	return nil
}

// unitFor returns the unit of work open on ctx for store s, if any.
func unitFor(ctx context.Context, s *Store) *unitOfWork {
	if s == nil {
		return nil
	}
	u, _ := ctx.Value(unitKey{}).(*unitOfWork)
	if u == nil || u.store != s {
		return nil
	}
	return u
}
