// Package course contains the Course aggregate and the assignment protocol that
// links a confirmed course to a coach.
package course

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - course id is required.
	ErrMissingID = shared.NewDomainError("course", "New", shared.ErrValidation, "course id is required")

	// ErrEmptyName - course name is blank.
	ErrEmptyName = shared.NewDomainError("course", "New", shared.ErrValidation, "course name cannot be empty")

	// ErrInvalidPeriod - start date after end date.
	ErrInvalidPeriod = shared.NewDomainError("course", "New", shared.ErrValidation, "start date must not be after end date")

	// ErrUnknownSkill - skill is not part of the tag set.
	ErrUnknownSkill = shared.NewDomainError("course", "AddRequiredSkill", shared.ErrValidation, "unknown skill")

	// ErrSkillsLocked - required skills changed after confirmation.
	ErrSkillsLocked = shared.NewDomainError("course", "UpdateSkills", shared.ErrInvalidState,
		"cannot modify required skills after course is confirmed")

	// ErrSlotsLocked - time slots changed after confirmation.
	ErrSlotsLocked = shared.NewDomainError("course", "UpdateTimeSlots", shared.ErrInvalidState,
		"cannot modify time slots after course is confirmed")

	// ErrDuplicateSlot - the same (day, start, end) is already scheduled.
	ErrDuplicateSlot = shared.NewDomainError("course", "AddTimeSlot", shared.ErrConflict, "this time slot already exists")

	// ErrAlreadyConfirmed - confirm called twice.
	ErrAlreadyConfirmed = shared.NewDomainError("course", "Confirm", shared.ErrInvalidState, "course is already confirmed")

	// ErrNoTimeSlots - confirm without any time slot.
	ErrNoTimeSlots = shared.NewDomainError("course", "Confirm", shared.ErrInvalidState,
		"course must have at least one time slot before confirmation")

	// ErrNotConfirmed - assignment on a draft course.
	ErrNotConfirmed = shared.NewDomainError("course", "AssignCoach", shared.ErrInvalidState,
		"course must be confirmed before assigning a coach")

	// ErrAlreadyAssigned - assignment while a coach is assigned.
	ErrAlreadyAssigned = shared.NewDomainError("course", "AssignCoach", shared.ErrInvalidState,
		"course already has a coach assigned")

	// ErrNoCoachAssigned - unassign without an assignment.
	ErrNoCoachAssigned = shared.NewDomainError("course", "UnassignCoach", shared.ErrInvalidState,
		"course has no coach assigned")

	// ErrCoachMismatch - unassign with a coach other than the assigned one.
	ErrCoachMismatch = shared.NewDomainError("course", "UnassignCoach", shared.ErrInvalidState,
		"coach is not the one assigned to this course")

	// ErrCourseNotFound - store lookup miss.
	ErrCourseNotFound = shared.NewDomainError("course", "Find", shared.ErrNotFound, "course not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course is a schedulable unit with a date range, required skills and weekly time
// slots. It starts as a draft, is confirmed once, and while confirmed may be
// assigned to and released from a coach any number of times.
type Course struct {
	id              string
	name            string
	period          shared.DateRange
	timeSlots       []shared.TimeSlot
	requiredSkills  shared.SkillSet
	confirmed       bool
	assignedCoachID string
}

var _ coach.Schedulable = (*Course)(nil)

// NewCourseParams holds the data needed to create a course.
type NewCourseParams struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// New creates an unconfirmed, unassigned course.
func New(params NewCourseParams) (*Course, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrMissingID
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	period, err := shared.NewDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, ErrInvalidPeriod
	}

	return &Course{
		id:             params.ID,
		name:           name,
		period:         period,
		requiredSkills: shared.NewSkillSet(),
	}, nil
}

// Snapshot is the full persisted state of a course.
type Snapshot struct {
	ID              string
	Name            string
	StartDate       time.Time
	EndDate         time.Time
	TimeSlots       []shared.TimeSlot
	RequiredSkills  []shared.Skill
	Confirmed       bool
	AssignedCoachID string
}

// Reconstitute rebuilds a course from storage, replaying the state through the
// same rules a live course follows.
func Reconstitute(s Snapshot) (*Course, error) {
	c, err := New(NewCourseParams{ID: s.ID, Name: s.Name, StartDate: s.StartDate, EndDate: s.EndDate})
	if err != nil {
		return nil, err
	}
	for _, skill := range s.RequiredSkills {
		if err := c.AddRequiredSkill(skill); err != nil {
			return nil, err
		}
	}
	for _, slot := range s.TimeSlots {
		if err := c.AddTimeSlot(slot); err != nil {
			return nil, err
		}
	}
	if s.Confirmed {
		if err := c.Confirm(); err != nil {
			return nil, err
		}
	}
	if s.AssignedCoachID != "" {
		if !c.confirmed {
			return nil, ErrNotConfirmed
		}
		c.assignedCoachID = s.AssignedCoachID
	}
	return c, nil
}

// Snapshot returns the full state for persistence.
func (c *Course) Snapshot() Snapshot {
	return Snapshot{
		ID:              c.id,
		Name:            c.name,
		StartDate:       c.period.Start(),
		EndDate:         c.period.End(),
		TimeSlots:       c.TimeSlots(),
		RequiredSkills:  c.requiredSkills.Slice(),
		Confirmed:       c.confirmed,
		AssignedCoachID: c.assignedCoachID,
	}
}

// ID returns the course identifier.
func (c *Course) ID() string { return c.id }

// Name returns the course name.
func (c *Course) Name() string { return c.name }

// Period returns the course date range.
func (c *Course) Period() shared.DateRange { return c.period }

// StartDate returns the first day of the course.
func (c *Course) StartDate() time.Time { return c.period.Start() }

// EndDate returns the last day of the course.
func (c *Course) EndDate() time.Time { return c.period.End() }

// RequiredSkills returns a copy of the required skills.
func (c *Course) RequiredSkills() shared.SkillSet { return c.requiredSkills.Clone() }

// TimeSlots returns a copy of the time slots in insertion order.
func (c *Course) TimeSlots() []shared.TimeSlot {
	out := make([]shared.TimeSlot, len(c.timeSlots))
	copy(out, c.timeSlots)
	return out
}

// SortedTimeSlots returns the time slots ordered by day and time.
func (c *Course) SortedTimeSlots() []shared.TimeSlot {
	out := c.TimeSlots()
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// IsConfirmed reports whether the course has been confirmed.
func (c *Course) IsConfirmed() bool { return c.confirmed }

// AssignedCoachID returns the assigned coach id, if any.
func (c *Course) AssignedCoachID() (string, bool) {
	return c.assignedCoachID, c.assignedCoachID != ""
}

// IsAssigned reports whether a coach is assigned.
func (c *Course) IsAssigned() bool { return c.assignedCoachID != "" }

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AddRequiredSkill adds a skill; adding a present skill is a no-op.
func (c *Course) AddRequiredSkill(skill shared.Skill) error {
	if c.confirmed {
		return ErrSkillsLocked
	}
	if !skill.IsValid() {
		return ErrUnknownSkill
	}
	c.requiredSkills.Add(skill)
	return nil
}

// RemoveRequiredSkill removes a skill; removing an absent skill is a no-op.
func (c *Course) RemoveRequiredSkill(skill shared.Skill) error {
	if c.confirmed {
		return ErrSkillsLocked
	}
	c.requiredSkills.Remove(skill)
	return nil
}

// AddTimeSlot schedules a new weekly slot.
func (c *Course) AddTimeSlot(slot shared.TimeSlot) error {
	if c.confirmed {
		return ErrSlotsLocked
	}
	for _, existing := range c.timeSlots {
		if existing == slot {
			return ErrDuplicateSlot
		}
	}
	c.timeSlots = append(c.timeSlots, slot)
	return nil
}

// RemoveTimeSlot removes every slot equal to slot; absent slots are a no-op.
func (c *Course) RemoveTimeSlot(slot shared.TimeSlot) error {
	if c.confirmed {
		return ErrSlotsLocked
	}
	kept := c.timeSlots[:0]
	for _, existing := range c.timeSlots {
		if existing != slot {
			kept = append(kept, existing)
		}
	}
	c.timeSlots = kept
	return nil
}

// Confirm locks the skills and time slots. It is a one-way transition.
func (c *Course) Confirm() error {
	if c.confirmed {
		return ErrAlreadyConfirmed
	}
	if len(c.timeSlots) == 0 {
		return ErrNoTimeSlots
	}
	if !c.period.IsValid() {
		return shared.NewDomainError("course", "Confirm", shared.ErrInvalidState, "start date must not be after end date")
	}
	if strings.TrimSpace(c.name) == "" {
		return shared.NewDomainError("course", "Confirm", shared.ErrInvalidState, "course must have a name")
	}
	c.confirmed = true
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGNMENT PROTOCOL
// ══════════════════════════════════════════════════════════════════════════════

// AssignCoach links the course to coach. The state, suitability and availability
// checks all run before anything is mutated; on failure neither aggregate changes.
func (c *Course) AssignCoach(candidate *coach.Coach) error {
	if !c.confirmed {
		return ErrNotConfirmed
	}
	if c.assignedCoachID != "" {
		return ErrAlreadyAssigned
	}
	if !candidate.IsSuitableFor(c) {
		return shared.NewDomainError("course", "AssignCoach", shared.ErrIneligible,
			fmt.Sprintf("coach lacks required skills: %s", joinSkills(candidate.MissingSkills(c))))
	}
	if conflicts := candidate.ConflictsWith(c); len(conflicts) > 0 {
		return shared.NewDomainError("course", "AssignCoach", shared.ErrUnavailable,
			fmt.Sprintf("coach has a scheduling conflict: %s", describeConflicts(conflicts)))
	}

	c.assignedCoachID = candidate.ID()
	candidate.RegisterCommitments(c)
	return nil
}

// UnassignCoach releases the assigned coach's commitments for this course and
// clears the assignment. Confirmation is unaffected.
func (c *Course) UnassignCoach(assigned *coach.Coach) error {
	if c.assignedCoachID == "" {
		return ErrNoCoachAssigned
	}
	if assigned == nil || assigned.ID() != c.assignedCoachID {
		return ErrCoachMismatch
	}

	assigned.ReleaseCommitments(c.id)
	c.assignedCoachID = ""
	return nil
}

// Clone returns a deep copy.
func (c *Course) Clone() *Course {
	clone := *c
	clone.timeSlots = c.TimeSlots()
	clone.requiredSkills = c.requiredSkills.Clone()
	return &clone
}

func joinSkills(skills []shared.Skill) string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

func describeConflicts(conflicts []coach.Commitment) string {
	parts := make([]string, len(conflicts))
	for i, cm := range conflicts {
		parts[i] = fmt.Sprintf("%s (course %s, %s)", cm.Slot, cm.CourseID, cm.Period)
	}
	return strings.Join(parts, "; ")
}
