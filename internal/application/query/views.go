// Package query contains read operations (CQRS - Queries).
package query

import (
	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VIEWS
// Read-side representations of the aggregates, shaped for the API.
// ══════════════════════════════════════════════════════════════════════════════

// TimeSlotView is a weekly slot.
type TimeSlotView struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// CourseView is the read model of a course.
type CourseView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	StartDate       string         `json:"startDate"`
	EndDate         string         `json:"endDate"`
	RequiredSkills  []string       `json:"requiredSkills"`
	TimeSlots       []TimeSlotView `json:"timeSlots"`
	IsConfirmed     bool           `json:"isConfirmed"`
	AssignedCoachID *string        `json:"assignedCoachId,omitempty"`
}

// CommitmentView is one slot a coach is committed to.
type CommitmentView struct {
	CourseID  string       `json:"courseId"`
	Slot      TimeSlotView `json:"slot"`
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
}

// CoachView is the read model of a coach.
type CoachView struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	Skills            []string         `json:"skills"`
	AssignedCourseIDs []string         `json:"assignedCourseIds"`
	Commitments       []CommitmentView `json:"commitments"`
}

// NewTimeSlotView converts a slot.
func NewTimeSlotView(s shared.TimeSlot) TimeSlotView {
	return TimeSlotView{
		Day:   s.Day().String(),
		Start: s.Start().String(),
		End:   s.End().String(),
	}
}

// NewCourseView converts a course.
func NewCourseView(c *course.Course) CourseView {
	slots := c.SortedTimeSlots()
	view := CourseView{
		ID:             c.ID(),
		Name:           c.Name(),
		StartDate:      c.StartDate().Format(shared.DateLayout),
		EndDate:        c.EndDate().Format(shared.DateLayout),
		RequiredSkills: skillNames(c.RequiredSkills()),
		TimeSlots:      make([]TimeSlotView, len(slots)),
		IsConfirmed:    c.IsConfirmed(),
	}
	for i, s := range slots {
		view.TimeSlots[i] = NewTimeSlotView(s)
	}
	if id, ok := c.AssignedCoachID(); ok {
		view.AssignedCoachID = &id
	}
	return view
}

// NewCoachView converts a coach.
func NewCoachView(c *coach.Coach) CoachView {
	commitments := c.Commitments()
	view := CoachView{
		ID:                c.ID(),
		Name:              c.Name(),
		Email:             c.Email(),
		Skills:            skillNames(c.Skills()),
		AssignedCourseIDs: c.AssignedCourseIDs(),
		Commitments:       make([]CommitmentView, len(commitments)),
	}
	for i, cm := range commitments {
		view.Commitments[i] = CommitmentView{
			CourseID:  cm.CourseID,
			Slot:      NewTimeSlotView(cm.Slot),
			StartDate: cm.Period.Start().Format(shared.DateLayout),
			EndDate:   cm.Period.End().Format(shared.DateLayout),
		}
	}
	return view
}

func skillNames(set shared.SkillSet) []string {
	skills := set.Slice()
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.String()
	}
	return names
}
