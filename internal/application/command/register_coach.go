package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER COACH COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterCoachCommand contains the data needed to register a coach.
type RegisterCoachCommand struct {
	Name          string
	Email         string
	CorrelationID string
}

// CoachResult carries the coach state after a successful command.
type CoachResult struct {
	Coach *coach.Coach
}

// RegisterCoachHandler handles RegisterCoachCommand.
type RegisterCoachHandler struct {
	deps Dependencies
}

// NewRegisterCoachHandler creates a new RegisterCoachHandler.
func NewRegisterCoachHandler(deps Dependencies) *RegisterCoachHandler {
	return &RegisterCoachHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *RegisterCoachHandler) Handle(ctx context.Context, cmd RegisterCoachCommand) (*CoachResult, error) {
	c, err := coach.New(coach.NewCoachParams{
		ID:    h.deps.NewID(),
		Name:  cmd.Name,
		Email: cmd.Email,
	})
	if err != nil {
		h.deps.rejected(ctx, "register_coach", err)
		return nil, fmt.Errorf("register_coach: %w", err)
	}

	if err := h.deps.Coaches.Add(ctx, c); err != nil {
		return nil, fmt.Errorf("register_coach: failed to save: %w", err)
	}

	h.deps.log(ctx).Info("coach registered", logger.CoachID(c.ID()), zap.String("name", c.Name()))

	event := shared.NewCoachEvent(shared.EventCoachRegistered, c.ID(), c.Name(), c.Skills())
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(ctx, event)

	return &CoachResult{Coach: c}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE COACH SKILLS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCoachSkillsCommand adds and removes skills of a coach.
// Adds are applied before removes; duplicates in either list are ignored.
type UpdateCoachSkillsCommand struct {
	CoachID       string
	Add           []shared.Skill
	Remove        []shared.Skill
	CorrelationID string
}

// Validate validates the command.
func (c UpdateCoachSkillsCommand) Validate() error {
	if c.CoachID == "" {
		return validationError("coach", "UpdateSkills", "coach id is required")
	}
	return nil
}

// UpdateCoachSkillsHandler handles UpdateCoachSkillsCommand.
type UpdateCoachSkillsHandler struct {
	deps Dependencies
}

// NewUpdateCoachSkillsHandler creates a new UpdateCoachSkillsHandler.
func NewUpdateCoachSkillsHandler(deps Dependencies) *UpdateCoachSkillsHandler {
	return &UpdateCoachSkillsHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *UpdateCoachSkillsHandler) Handle(ctx context.Context, cmd UpdateCoachSkillsCommand) (*CoachResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_coach_skills: %w", err)
	}

	release, err := h.deps.lock(ctx, CoachLockKey(cmd.CoachID))
	if err != nil {
		return nil, fmt.Errorf("update_coach_skills: %w", err)
	}
	defer release()

	var updated *coach.Coach
	err = h.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := h.deps.Coaches.GetByID(ctx, cmd.CoachID)
		if err != nil {
			return err
		}
		for _, skill := range dedupeSkills(cmd.Add) {
			if err := c.AddSkill(skill); err != nil {
				return err
			}
		}
		for _, skill := range dedupeSkills(cmd.Remove) {
			c.RemoveSkill(skill)
		}
		if err := h.deps.Coaches.Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		h.deps.rejected(ctx, "update_coach_skills", err, logger.CoachID(cmd.CoachID))
		return nil, fmt.Errorf("update_coach_skills: %w", err)
	}

	h.deps.log(ctx).Info("coach skills updated",
		logger.CoachID(updated.ID()),
		zap.Int("skills", updated.Skills().Len()),
	)

	event := shared.NewCoachEvent(shared.EventCoachSkillsUpdated, updated.ID(), updated.Name(), updated.Skills())
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(ctx, event)

	return &CoachResult{Coach: updated}, nil
}
