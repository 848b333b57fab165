package query

import (
	"context"
	"fmt"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseQuery selects one course.
type GetCourseQuery struct {
	CourseID string
}

// GetCourseHandler handles GetCourseQuery.
type GetCourseHandler struct {
	courses course.Repository
}

// NewGetCourseHandler creates a new GetCourseHandler.
func NewGetCourseHandler(courses course.Repository) *GetCourseHandler {
	return &GetCourseHandler{courses: courses}
}

// Handle executes the query.
func (h *GetCourseHandler) Handle(ctx context.Context, q GetCourseQuery) (*CourseView, error) {
	c, err := h.courses.GetByID(ctx, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get_course: %w", err)
	}
	view := NewCourseView(c)
	return &view, nil
}

// ListCoursesQuery selects every course, optionally only confirmed ones.
type ListCoursesQuery struct {
	ConfirmedOnly bool
}

// ListCoursesHandler handles ListCoursesQuery.
type ListCoursesHandler struct {
	courses course.Repository
}

// NewListCoursesHandler creates a new ListCoursesHandler.
func NewListCoursesHandler(courses course.Repository) *ListCoursesHandler {
	return &ListCoursesHandler{courses: courses}
}

// Handle executes the query. Results are ordered by start date, then name.
func (h *ListCoursesHandler) Handle(ctx context.Context, q ListCoursesQuery) ([]CourseView, error) {
	all, err := h.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_courses: %w", err)
	}
	views := make([]CourseView, 0, len(all))
	for _, c := range all {
		if q.ConfirmedOnly && !c.IsConfirmed() {
			continue
		}
		views = append(views, NewCourseView(c))
	}
	return views, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COACH QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// GetCoachQuery selects one coach.
type GetCoachQuery struct {
	CoachID string
}

// GetCoachHandler handles GetCoachQuery.
type GetCoachHandler struct {
	coaches coach.Repository
}

// NewGetCoachHandler creates a new GetCoachHandler.
func NewGetCoachHandler(coaches coach.Repository) *GetCoachHandler {
	return &GetCoachHandler{coaches: coaches}
}

// Handle executes the query.
func (h *GetCoachHandler) Handle(ctx context.Context, q GetCoachQuery) (*CoachView, error) {
	c, err := h.coaches.GetByID(ctx, q.CoachID)
	if err != nil {
		return nil, fmt.Errorf("get_coach: %w", err)
	}
	view := NewCoachView(c)
	return &view, nil
}

// ListCoachesHandler lists every coach ordered by name.
type ListCoachesHandler struct {
	coaches coach.Repository
}

// NewListCoachesHandler creates a new ListCoachesHandler.
func NewListCoachesHandler(coaches coach.Repository) *ListCoachesHandler {
	return &ListCoachesHandler{coaches: coaches}
}

// Handle executes the query.
func (h *ListCoachesHandler) Handle(ctx context.Context) ([]CoachView, error) {
	all, err := h.coaches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_coaches: %w", err)
	}
	views := make([]CoachView, len(all))
	for i, c := range all {
		views[i] = NewCoachView(c)
	}
	return views, nil
}

// Handlers bundles every query handler.
type Handlers struct {
	GetCourse   *GetCourseHandler
	ListCourses *ListCoursesHandler
	GetCoach    *GetCoachHandler
	ListCoaches *ListCoachesHandler
}

// NewHandlers creates all query handlers.
func NewHandlers(courses course.Repository, coaches coach.Repository) *Handlers {
	return &Handlers{
		GetCourse:   NewGetCourseHandler(courses),
		ListCourses: NewListCoursesHandler(courses),
		GetCoach:    NewGetCoachHandler(coaches),
		ListCoaches: NewListCoachesHandler(coaches),
	}
}
