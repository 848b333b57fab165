package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE COURSE COMMAND
// Registers a new draft course with a name and a date range.
// ══════════════════════════════════════════════════════════════════════════════

// CreateCourseCommand contains the data needed to create a course.
type CreateCourseCommand struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateCourseCommand) Validate() error {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return validationError("course", "Create", "start and end dates are required")
	}
	return nil
}

// CourseResult carries the course state after a successful command.
type CourseResult struct {
	Course *course.Course
}

// CreateCourseHandler handles CreateCourseCommand.
type CreateCourseHandler struct {
	deps Dependencies
}

// NewCreateCourseHandler creates a new CreateCourseHandler.
func NewCreateCourseHandler(deps Dependencies) *CreateCourseHandler {
	return &CreateCourseHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *CreateCourseHandler) Handle(ctx context.Context, cmd CreateCourseCommand) (*CourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_course: %w", err)
	}

	c, err := course.New(course.NewCourseParams{
		ID:        h.deps.NewID(),
		Name:      cmd.Name,
		StartDate: shared.DateOf(cmd.StartDate),
		EndDate:   shared.DateOf(cmd.EndDate),
	})
	if err != nil {
		h.deps.rejected(ctx, "create_course", err)
		return nil, fmt.Errorf("create_course: %w", err)
	}

	if err := h.deps.Courses.Add(ctx, c); err != nil {
		return nil, fmt.Errorf("create_course: failed to save: %w", err)
	}

	h.deps.log(ctx).Info("course created",
		logger.CourseID(c.ID()),
		zap.String("name", c.Name()),
		zap.Stringer("period", c.Period()),
	)

	event := shared.NewCourseEvent(shared.EventCourseCreated, c.ID(), c.Name())
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(ctx, event)

	return &CourseResult{Course: c}, nil
}
