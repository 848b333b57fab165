// Package coach contains the Coach aggregate: a person with skills and the time
// commitments derived from the courses they are assigned to.
// This is pure domain logic with no external dependencies.
package coach

import (
	"strings"

	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - coach id is required.
	ErrMissingID = shared.NewDomainError("coach", "New", shared.ErrValidation, "coach id is required")

	// ErrEmptyName - coach name is blank.
	ErrEmptyName = shared.NewDomainError("coach", "New", shared.ErrValidation, "coach name cannot be empty")

	// ErrEmptyEmail - coach email is blank.
	ErrEmptyEmail = shared.NewDomainError("coach", "New", shared.ErrValidation, "coach email cannot be empty")

	// ErrUnknownSkill - skill is not part of the tag set.
	ErrUnknownSkill = shared.NewDomainError("coach", "AddSkill", shared.ErrValidation, "unknown skill")

	// ErrCoachNotFound - store lookup miss.
	ErrCoachNotFound = shared.NewDomainError("coach", "Find", shared.ErrNotFound, "coach not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULABLE VIEW
// ══════════════════════════════════════════════════════════════════════════════

// Schedulable is the read-only view of a course that a coach evaluates
// suitability and availability against.
type Schedulable interface {
	ID() string
	RequiredSkills() shared.SkillSet
	TimeSlots() []shared.TimeSlot
	Period() shared.DateRange
}

// Commitment records that a coach is occupied by one time slot of one course.
// Period is the owning course's date range, kept so availability can be scoped
// without resolving the course.
type Commitment struct {
	CourseID string
	Slot     shared.TimeSlot
	Period   shared.DateRange
}

// ConflictsWith reports whether the commitment blocks slot during period.
func (c Commitment) ConflictsWith(slot shared.TimeSlot, period shared.DateRange) bool {
	return c.Period.Overlaps(period) && c.Slot.ConflictsWith(slot)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: COACH
// ══════════════════════════════════════════════════════════════════════════════

// Coach is an aggregate; mutate it only through its methods.
type Coach struct {
	id          string
	name        string
	email       string
	skills      shared.SkillSet
	commitments []Commitment
}

// NewCoachParams holds the data needed to register a coach.
type NewCoachParams struct {
	ID    string
	Name  string
	Email string
}

// New creates a coach with no skills and no commitments.
func New(params NewCoachParams) (*Coach, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrMissingID
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	email := strings.TrimSpace(params.Email)
	if email == "" {
		return nil, ErrEmptyEmail
	}

	return &Coach{
		id:     params.ID,
		name:   name,
		email:  email,
		skills: shared.NewSkillSet(),
	}, nil
}

// Snapshot is the full persisted state of a coach.
type Snapshot struct {
	ID          string
	Name        string
	Email       string
	Skills      []shared.Skill
	Commitments []Commitment
}

// Reconstitute rebuilds a coach from storage. Field invariants are re-checked.
func Reconstitute(s Snapshot) (*Coach, error) {
	c, err := New(NewCoachParams{ID: s.ID, Name: s.Name, Email: s.Email})
	if err != nil {
		return nil, err
	}
	for _, skill := range s.Skills {
		if err := c.AddSkill(skill); err != nil {
			return nil, err
		}
	}
	c.commitments = append(c.commitments, s.Commitments...)
	return c, nil
}

// Snapshot returns the full state for persistence.
func (c *Coach) Snapshot() Snapshot {
	return Snapshot{
		ID:          c.id,
		Name:        c.name,
		Email:       c.email,
		Skills:      c.skills.Slice(),
		Commitments: c.Commitments(),
	}
}

// ID returns the coach identifier.
func (c *Coach) ID() string { return c.id }

// Name returns the coach name.
func (c *Coach) Name() string { return c.name }

// Email returns the coach email.
func (c *Coach) Email() string { return c.email }

// Skills returns a copy of the skill set.
func (c *Coach) Skills() shared.SkillSet { return c.skills.Clone() }

// HasSkill reports whether the coach has skill.
func (c *Coach) HasSkill(skill shared.Skill) bool { return c.skills.Contains(skill) }

// AddSkill adds a skill; adding a present skill is a no-op.
func (c *Coach) AddSkill(skill shared.Skill) error {
	if !skill.IsValid() {
		return ErrUnknownSkill
	}
	c.skills.Add(skill)
	return nil
}

// RemoveSkill removes a skill; removing an absent skill is a no-op.
func (c *Coach) RemoveSkill(skill shared.Skill) {
	c.skills.Remove(skill)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUITABILITY & AVAILABILITY
// ══════════════════════════════════════════════════════════════════════════════

// IsSuitableFor reports whether every required skill of course is held by the coach.
func (c *Coach) IsSuitableFor(course Schedulable) bool {
	return c.skills.ContainsAll(course.RequiredSkills())
}

// MissingSkills lists the required skills the coach lacks, sorted by name.
func (c *Coach) MissingSkills(course Schedulable) []shared.Skill {
	var missing []shared.Skill
	for _, skill := range course.RequiredSkills().Slice() {
		if !c.skills.Contains(skill) {
			missing = append(missing, skill)
		}
	}
	return missing
}

// IsAvailableFor reports whether no slot of course conflicts with an existing
// commitment whose course period overlaps the course's period.
func (c *Coach) IsAvailableFor(course Schedulable) bool {
	return len(c.ConflictsWith(course)) == 0
}

// ConflictsWith returns the commitments that block course.
func (c *Coach) ConflictsWith(course Schedulable) []Commitment {
	period := course.Period()
	slots := course.TimeSlots()

	var conflicts []Commitment
	for _, existing := range c.commitments {
		for _, slot := range slots {
			if existing.ConflictsWith(slot, period) {
				conflicts = append(conflicts, existing)
				break
			}
		}
	}
	return conflicts
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMITMENT BOOKKEEPING (assignment protocol only)
// ══════════════════════════════════════════════════════════════════════════════

// RegisterCommitments records every slot of course as a commitment of this coach.
// It is called by the assignment protocol after all checks passed.
func (c *Coach) RegisterCommitments(course Schedulable) {
	period := course.Period()
	for _, slot := range course.TimeSlots() {
		c.commitments = append(c.commitments, Commitment{
			CourseID: course.ID(),
			Slot:     slot,
			Period:   period,
		})
	}
}

// ReleaseCommitments drops every commitment registered for courseID and returns
// how many were removed.
func (c *Coach) ReleaseCommitments(courseID string) int {
	kept := c.commitments[:0]
	removed := 0
	for _, cm := range c.commitments {
		if cm.CourseID == courseID {
			removed++
			continue
		}
		kept = append(kept, cm)
	}
	c.commitments = kept
	return removed
}

// Commitments returns a copy of the commitments.
func (c *Coach) Commitments() []Commitment {
	out := make([]Commitment, len(c.commitments))
	copy(out, c.commitments)
	return out
}

// CommitmentsFor returns the commitments registered for courseID.
func (c *Coach) CommitmentsFor(courseID string) []Commitment {
	var out []Commitment
	for _, cm := range c.commitments {
		if cm.CourseID == courseID {
			out = append(out, cm)
		}
	}
	return out
}

// AssignedCourseIDs returns the distinct course ids, in first-commitment order.
func (c *Coach) AssignedCourseIDs() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, cm := range c.commitments {
		if _, ok := seen[cm.CourseID]; ok {
			continue
		}
		seen[cm.CourseID] = struct{}{}
		ids = append(ids, cm.CourseID)
	}
	return ids
}

// Clone returns a deep copy.
func (c *Coach) Clone() *Coach {
	clone := *c
	clone.skills = c.skills.Clone()
	clone.commitments = c.Commitments()
	return &clone
}
