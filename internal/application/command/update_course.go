package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE COURSE SKILLS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCourseSkillsCommand adds and removes required skills of a draft course.
// Adds are applied before removes; duplicates in either list are ignored.
type UpdateCourseSkillsCommand struct {
	CourseID      string
	Add           []shared.Skill
	Remove        []shared.Skill
	CorrelationID string
}

// Validate validates the command.
func (c UpdateCourseSkillsCommand) Validate() error {
	if c.CourseID == "" {
		return validationError("course", "UpdateSkills", "course id is required")
	}
	return nil
}

// UpdateCourseSkillsHandler handles UpdateCourseSkillsCommand.
type UpdateCourseSkillsHandler struct {
	deps Dependencies
}

// NewUpdateCourseSkillsHandler creates a new UpdateCourseSkillsHandler.
func NewUpdateCourseSkillsHandler(deps Dependencies) *UpdateCourseSkillsHandler {
	return &UpdateCourseSkillsHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *UpdateCourseSkillsHandler) Handle(ctx context.Context, cmd UpdateCourseSkillsCommand) (*CourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_course_skills: %w", err)
	}

	c, err := h.deps.mutateCourse(ctx, cmd.CourseID, func(c *course.Course) error {
		for _, skill := range dedupeSkills(cmd.Add) {
			if err := c.AddRequiredSkill(skill); err != nil {
				return err
			}
		}
		for _, skill := range dedupeSkills(cmd.Remove) {
			if err := c.RemoveRequiredSkill(skill); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.deps.rejected(ctx, "update_course_skills", err, logger.CourseID(cmd.CourseID))
		return nil, fmt.Errorf("update_course_skills: %w", err)
	}

	h.deps.log(ctx).Info("course skills updated",
		logger.CourseID(c.ID()),
		zap.Int("skills", c.RequiredSkills().Len()),
	)

	event := shared.NewCourseEvent(shared.EventCourseSkillsUpdated, c.ID(), c.Name())
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(ctx, event)

	return &CourseResult{Course: c}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE COURSE TIME SLOTS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SlotInput is an unvalidated weekly slot as received from a client.
// Day is an English weekday name, Start and End are HH:MM.
type SlotInput struct {
	Day   string
	Start string
	End   string
}

// UpdateCourseTimeSlotsCommand adds and removes weekly slots of a draft course.
// The whole batch succeeds or the course is left untouched.
type UpdateCourseTimeSlotsCommand struct {
	CourseID      string
	Add           []SlotInput
	Remove        []SlotInput
	CorrelationID string
}

// Validate validates the command.
func (c UpdateCourseTimeSlotsCommand) Validate() error {
	if c.CourseID == "" {
		return validationError("course", "UpdateTimeSlots", "course id is required")
	}
	return nil
}

// UpdateCourseTimeSlotsHandler handles UpdateCourseTimeSlotsCommand.
type UpdateCourseTimeSlotsHandler struct {
	deps Dependencies
}

// NewUpdateCourseTimeSlotsHandler creates a new UpdateCourseTimeSlotsHandler.
func NewUpdateCourseTimeSlotsHandler(deps Dependencies) *UpdateCourseTimeSlotsHandler {
	return &UpdateCourseTimeSlotsHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *UpdateCourseTimeSlotsHandler) Handle(ctx context.Context, cmd UpdateCourseTimeSlotsCommand) (*CourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_course_timeslots: %w", err)
	}

	add, err := buildSlots("add", cmd.Add)
	if err != nil {
		return nil, fmt.Errorf("update_course_timeslots: %w", err)
	}
	remove, err := buildSlots("remove", cmd.Remove)
	if err != nil {
		return nil, fmt.Errorf("update_course_timeslots: %w", err)
	}

	c, err := h.deps.mutateCourse(ctx, cmd.CourseID, func(c *course.Course) error {
		for _, slot := range add {
			if err := c.AddTimeSlot(slot); err != nil {
				return err
			}
		}
		for _, slot := range remove {
			if err := c.RemoveTimeSlot(slot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.deps.rejected(ctx, "update_course_timeslots", err, logger.CourseID(cmd.CourseID))
		return nil, fmt.Errorf("update_course_timeslots: %w", err)
	}

	h.deps.log(ctx).Info("course time slots updated",
		logger.CourseID(c.ID()),
		zap.Int("slots", len(c.TimeSlots())),
	)

	event := shared.NewCourseEvent(shared.EventCourseSlotsUpdated, c.ID(), c.Name())
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(ctx, event)

	return &CourseResult{Course: c}, nil
}

// buildSlots parses every input through the TimeSlot factory and drops
// duplicates, keeping first occurrences.
func buildSlots(list string, inputs []SlotInput) ([]shared.TimeSlot, error) {
	out := make([]shared.TimeSlot, 0, len(inputs))
	seen := make(map[shared.TimeSlot]struct{}, len(inputs))

	for i, in := range inputs {
		slot, err := ParseSlot(in)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", list, i, err)
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	return out, nil
}

// ParseSlot converts a SlotInput into a validated TimeSlot.
func ParseSlot(in SlotInput) (shared.TimeSlot, error) {
	day, err := shared.ParseWeekday(in.Day)
	if err != nil {
		return shared.TimeSlot{}, err
	}
	start, err := shared.ParseTimeOfDay(in.Start)
	if err != nil {
		return shared.TimeSlot{}, err
	}
	end, err := shared.ParseTimeOfDay(in.End)
	if err != nil {
		return shared.TimeSlot{}, err
	}
	return shared.NewTimeSlot(day, start, end)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIRM COURSE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ConfirmCourseCommand locks a draft course for assignment.
type ConfirmCourseCommand struct {
	CourseID      string
	CorrelationID string
}

// Validate validates the command.
func (c ConfirmCourseCommand) Validate() error {
	if c.CourseID == "" {
		return validationError("course", "Confirm", "course id is required")
	}
	return nil
}

// ConfirmCourseHandler handles ConfirmCourseCommand.
type ConfirmCourseHandler struct {
	deps Dependencies
}

// NewConfirmCourseHandler creates a new ConfirmCourseHandler.
func NewConfirmCourseHandler(deps Dependencies) *ConfirmCourseHandler {
	return &ConfirmCourseHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *ConfirmCourseHandler) Handle(ctx context.Context, cmd ConfirmCourseCommand) (*CourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("confirm_course: %w", err)
	}

	c, err := h.deps.mutateCourse(ctx, cmd.CourseID, func(c *course.Course) error {
		return c.Confirm()
	})
	if err != nil {
		h.deps.rejected(ctx, "confirm_course", err, logger.CourseID(cmd.CourseID))
		return nil, fmt.Errorf("confirm_course: %w", err)
	}

	h.deps.log(ctx).Info("course confirmed", logger.CourseID(c.ID()))

	event := shared.NewCourseEvent(shared.EventCourseConfirmed, c.ID(), c.Name())
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(ctx, event)

	return &CourseResult{Course: c}, nil
}

// mutateCourse locks the course, applies fn to a freshly loaded copy and saves
// it only if fn succeeds.
func (d Dependencies) mutateCourse(ctx context.Context, id string, fn func(c *course.Course) error) (*course.Course, error) {
	release, err := d.lock(ctx, CourseLockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	var result *course.Course
	err = d.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := d.Courses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := d.Courses.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}
		result = c
		return nil
	})
	return result, err
}

func dedupeSkills(skills []shared.Skill) []shared.Skill {
	out := make([]shared.Skill, 0, len(skills))
	seen := make(map[shared.Skill]struct{}, len(skills))
	for _, s := range skills {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
