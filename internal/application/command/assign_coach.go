package command

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGN COACH COMMAND
// Links a confirmed course to a coach. Both aggregates are locked in a fixed
// order, checked, and saved in a single unit of work.
// ══════════════════════════════════════════════════════════════════════════════

// AssignCoachCommand contains the data needed to assign a coach.
type AssignCoachCommand struct {
	CourseID      string
	CoachID       string
	CorrelationID string
}

// Validate validates the command.
func (c AssignCoachCommand) Validate() error {
	if c.CourseID == "" {
		return validationError("course", "AssignCoach", "course id is required")
	}
	if c.CoachID == "" {
		return validationError("course", "AssignCoach", "coach id is required")
	}
	return nil
}

// AssignmentResult carries both aggregates after an assignment change.
type AssignmentResult struct {
	Course *course.Course
	Coach  *coach.Coach
}

// AssignCoachHandler handles AssignCoachCommand.
type AssignCoachHandler struct {
	deps Dependencies
}

// NewAssignCoachHandler creates a new AssignCoachHandler.
func NewAssignCoachHandler(deps Dependencies) *AssignCoachHandler {
	return &AssignCoachHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *AssignCoachHandler) Handle(ctx context.Context, cmd AssignCoachCommand) (*AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("assign_coach: %w", err)
	}

	release, err := h.deps.lock(ctx, CourseLockKey(cmd.CourseID), CoachLockKey(cmd.CoachID))
	if err != nil {
		return nil, fmt.Errorf("assign_coach: %w", err)
	}
	defer release()

	var result AssignmentResult
	err = h.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := h.deps.Courses.GetByID(ctx, cmd.CourseID)
		if err != nil {
			return err
		}
		candidate, err := h.deps.Coaches.GetByID(ctx, cmd.CoachID)
		if err != nil {
			return err
		}

		if err := c.AssignCoach(candidate); err != nil {
			return err
		}

		if err := h.deps.Courses.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save course: %w", err)
		}
		if err := h.deps.Coaches.Save(ctx, candidate); err != nil {
			return fmt.Errorf("failed to save coach: %w", err)
		}
		result = AssignmentResult{Course: c, Coach: candidate}
		return nil
	})
	if err != nil {
		h.deps.rejected(ctx, "assign_coach", err, logger.CourseID(cmd.CourseID), logger.CoachID(cmd.CoachID))
		return nil, fmt.Errorf("assign_coach: %w", err)
	}

	slots := len(result.Course.TimeSlots())
	h.deps.log(ctx).Info("coach assigned",
		logger.CourseID(cmd.CourseID),
		logger.CoachID(cmd.CoachID),
		zap.Int("slots", slots),
	)

	event := shared.NewCoachAssignedEvent(cmd.CourseID, cmd.CoachID, slots)
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(ctx, event)

	return &result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UNASSIGN COACH COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ErrAssignmentChanged is returned when the course's coach kept changing while
// the handler tried to lock it.
var ErrAssignmentChanged = shared.NewDomainError("course", "UnassignCoach", shared.ErrConflict,
	"course assignment changed concurrently, retry the request")

// maxUnassignAttempts bounds how often the handler re-reads a course whose
// assignment moved between the unlocked read and the locked one.
const maxUnassignAttempts = 3

// UnassignCoachCommand releases the coach assigned to a course.
type UnassignCoachCommand struct {
	CourseID      string
	CorrelationID string
}

// Validate validates the command.
func (c UnassignCoachCommand) Validate() error {
	if c.CourseID == "" {
		return validationError("course", "UnassignCoach", "course id is required")
	}
	return nil
}

// UnassignCoachHandler handles UnassignCoachCommand.
type UnassignCoachHandler struct {
	deps Dependencies
}

// NewUnassignCoachHandler creates a new UnassignCoachHandler.
func NewUnassignCoachHandler(deps Dependencies) *UnassignCoachHandler {
	return &UnassignCoachHandler{deps: deps.withDefaults()}
}

// errRetryUnassign signals that the course moved to another coach between reads.
var errRetryUnassign = errors.New("assignment moved")

// Handle executes the command.
func (h *UnassignCoachHandler) Handle(ctx context.Context, cmd UnassignCoachCommand) (*AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("unassign_coach: %w", err)
	}

	for attempt := 0; attempt < maxUnassignAttempts; attempt++ {
		// The coach id is only known after reading the course, so it is read
		// once without locks and re-checked once both locks are held.
		current, err := h.deps.Courses.GetByID(ctx, cmd.CourseID)
		if err != nil {
			return nil, fmt.Errorf("unassign_coach: %w", err)
		}
		coachID, ok := current.AssignedCoachID()
		if !ok {
			h.deps.rejected(ctx, "unassign_coach", course.ErrNoCoachAssigned, logger.CourseID(cmd.CourseID))
			return nil, fmt.Errorf("unassign_coach: %w", course.ErrNoCoachAssigned)
		}

		result, err := h.unassign(ctx, cmd.CourseID, coachID)
		if errors.Is(err, errRetryUnassign) {
			continue
		}
		if err != nil {
			h.deps.rejected(ctx, "unassign_coach", err, logger.CourseID(cmd.CourseID), logger.CoachID(coachID))
			return nil, fmt.Errorf("unassign_coach: %w", err)
		}

		released := len(result.Course.TimeSlots())
		h.deps.log(ctx).Info("coach unassigned",
			logger.CourseID(cmd.CourseID),
			logger.CoachID(coachID),
			zap.Int("slots", released),
		)

		event := shared.NewCoachUnassignedEvent(cmd.CourseID, coachID, released)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		h.deps.publish(ctx, event)

		return result, nil
	}

	return nil, fmt.Errorf("unassign_coach: %w", ErrAssignmentChanged)
}

func (h *UnassignCoachHandler) unassign(ctx context.Context, courseID, coachID string) (*AssignmentResult, error) {
	release, err := h.deps.lock(ctx, CourseLockKey(courseID), CoachLockKey(coachID))
	if err != nil {
		return nil, err
	}
	defer release()

	var result AssignmentResult
	err = h.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := h.deps.Courses.GetByID(ctx, courseID)
		if err != nil {
			return err
		}
		if id, ok := c.AssignedCoachID(); ok && id != coachID {
			return errRetryUnassign
		}

		assigned, err := h.deps.Coaches.GetByID(ctx, coachID)
		if err != nil {
			return err
		}
		if err := c.UnassignCoach(assigned); err != nil {
			return err
		}

		if err := h.deps.Courses.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save course: %w", err)
		}
		if err := h.deps.Coaches.Save(ctx, assigned); err != nil {
			return fmt.Errorf("failed to save coach: %w", err)
		}
		result = AssignmentResult{Course: c, Coach: assigned}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
