package handlers

import (
	"fmt"

	"github.com/horses-for-courses/planner/internal/application/command"
	"github.com/horses-for-courses/planner/internal/domain/shared"
)

// CreateCourseRequest is the body of POST /courses.
type CreateCourseRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SkillsRequest is the body of the skill update endpoints.
type SkillsRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// TimeSlotRequest is one slot in a time slot update.
type TimeSlotRequest struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeSlotsRequest is the body of POST /courses/:id/timeslots.
type TimeSlotsRequest struct {
	Add    []TimeSlotRequest `json:"add"`
	Remove []TimeSlotRequest `json:"remove"`
}

// AssignCoachRequest is the body of POST /courses/:id/assign-coach.
type AssignCoachRequest struct {
	CoachID string `json:"coachId"`
}

// RegisterCoachRequest is the body of POST /coaches.
type RegisterCoachRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r CreateCourseRequest) toCommand() (command.CreateCourseCommand, error) {
	start, err := shared.ParseDate(r.StartDate)
	if err != nil {
		return command.CreateCourseCommand{}, err
	}
	end, err := shared.ParseDate(r.EndDate)
	if err != nil {
		return command.CreateCourseCommand{}, err
	}
	return command.CreateCourseCommand{Name: r.Name, StartDate: start, EndDate: end}, nil
}

// parse resolves skill names case-insensitively; the first unknown name fails the request.
func (r SkillsRequest) parse() (add, remove []shared.Skill, err error) {
	if add, err = parseSkillList("add", r.Add); err != nil {
		return nil, nil, err
	}
	if remove, err = parseSkillList("remove", r.Remove); err != nil {
		return nil, nil, err
	}
	return add, remove, nil
}

func parseSkillList(field string, names []string) ([]shared.Skill, error) {
	skills := make([]shared.Skill, 0, len(names))
	for i, name := range names {
		skill, err := shared.ParseSkill(name)
		if err != nil {
			return nil, shared.WrapError("skill", "Parse", shared.ErrValidation,
				fmt.Sprintf("%s[%d]: %s", field, i, shared.Message(err)), err)
		}
		skills = append(skills, skill)
	}
	return skills, nil
}

func toSlotInputs(slots []TimeSlotRequest) []command.SlotInput {
	out := make([]command.SlotInput, len(slots))
	for i, s := range slots {
		out[i] = command.SlotInput{Day: s.Day, Start: s.Start, End: s.End}
	}
	return out
}
