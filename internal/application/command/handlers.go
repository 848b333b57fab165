package command

// Handlers bundles every command handler built from one set of dependencies.
type Handlers struct {
	CreateCourse          *CreateCourseHandler
	UpdateCourseSkills    *UpdateCourseSkillsHandler
	UpdateCourseTimeSlots *UpdateCourseTimeSlotsHandler
	ConfirmCourse         *ConfirmCourseHandler
	AssignCoach           *AssignCoachHandler
	UnassignCoach         *UnassignCoachHandler
	RegisterCoach         *RegisterCoachHandler
	UpdateCoachSkills     *UpdateCoachSkillsHandler
}

// NewHandlers creates all command handlers.
func NewHandlers(deps Dependencies) *Handlers {
	deps = deps.withDefaults()
	return &Handlers{
		CreateCourse:          NewCreateCourseHandler(deps),
		UpdateCourseSkills:    NewUpdateCourseSkillsHandler(deps),
		UpdateCourseTimeSlots: NewUpdateCourseTimeSlotsHandler(deps),
		ConfirmCourse:         NewConfirmCourseHandler(deps),
		AssignCoach:           NewAssignCoachHandler(deps),
		UnassignCoach:         NewUnassignCoachHandler(deps),
		RegisterCoach:         NewRegisterCoachHandler(deps),
		UpdateCoachSkills:     NewUpdateCoachSkillsHandler(deps),
	}
}
