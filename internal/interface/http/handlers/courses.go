package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/horses-for-courses/planner/internal/application/command"
	"github.com/horses-for-courses/planner/internal/application/query"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// CourseHandler serves the /courses endpoints.
type CourseHandler struct {
	commands *command.Handlers
	queries  *query.Handlers
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(commands *command.Handlers, queries *query.Handlers) *CourseHandler {
	return &CourseHandler{commands: commands, queries: queries}
}

// Mount registers the course routes on r.
func (h *CourseHandler) Mount(r gin.IRouter) {
	g := r.Group("/courses")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/skills", h.UpdateSkills)
	g.POST("/:id/timeslots", h.UpdateTimeSlots)
	g.POST("/:id/confirm", h.Confirm)
	g.POST("/:id/assign-coach", h.AssignCoach)
	g.POST("/:id/unassign-coach", h.UnassignCoach)
}

// Create creates a draft course.
// POST /courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		respondError(c, err)
		return
	}
	cmd.CorrelationID = c.GetString(logger.RequestIDKey)

	res, err := h.commands.CreateCourse.Handle(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, query.NewCourseView(res.Course))
}

// List returns all courses; ?confirmed=true keeps confirmed ones only.
// GET /courses
func (h *CourseHandler) List(c *gin.Context) {
	q := query.ListCoursesQuery{ConfirmedOnly: c.Query("confirmed") == "true"}
	views, err := h.queries.ListCourses.Handle(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if views == nil {
		views = []query.CourseView{}
	}
	c.JSON(http.StatusOK, views)
}

// Get returns one course.
// GET /courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	view, err := h.queries.GetCourse.Handle(c.Request.Context(), query.GetCourseQuery{CourseID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSkills adds then removes required skills.
// POST /courses/:id/skills
func (h *CourseHandler) UpdateSkills(c *gin.Context) {
	var req SkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	add, remove, err := req.parse()
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.commands.UpdateCourseSkills.Handle(c.Request.Context(), command.UpdateCourseSkillsCommand{
		CourseID:      c.Param("id"),
		Add:           add,
		Remove:        remove,
		CorrelationID: c.GetString(logger.RequestIDKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.NewCourseView(res.Course))
}

// UpdateTimeSlots adds then removes weekly slots as one batch.
// POST /courses/:id/timeslots
func (h *CourseHandler) UpdateTimeSlots(c *gin.Context) {
	var req TimeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.commands.UpdateCourseTimeSlots.Handle(c.Request.Context(), command.UpdateCourseTimeSlotsCommand{
		CourseID:      c.Param("id"),
		Add:           toSlotInputs(req.Add),
		Remove:        toSlotInputs(req.Remove),
		CorrelationID: c.GetString(logger.RequestIDKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.NewCourseView(res.Course))
}

// Confirm moves a draft course to confirmed.
// POST /courses/:id/confirm
func (h *CourseHandler) Confirm(c *gin.Context) {
	res, err := h.commands.ConfirmCourse.Handle(c.Request.Context(), command.ConfirmCourseCommand{
		CourseID:      c.Param("id"),
		CorrelationID: c.GetString(logger.RequestIDKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.NewCourseView(res.Course))
}

// AssignCoach assigns a coach to a confirmed course.
// POST /courses/:id/assign-coach
func (h *CourseHandler) AssignCoach(c *gin.Context) {
	var req AssignCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.commands.AssignCoach.Handle(c.Request.Context(), command.AssignCoachCommand{
		CourseID:      c.Param("id"),
		CoachID:       req.CoachID,
		CorrelationID: c.GetString(logger.RequestIDKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.NewCourseView(res.Course))
}

// UnassignCoach releases the assigned coach.
// POST /courses/:id/unassign-coach
func (h *CourseHandler) UnassignCoach(c *gin.Context) {
	res, err := h.commands.UnassignCoach.Handle(c.Request.Context(), command.UnassignCoachCommand{
		CourseID:      c.Param("id"),
		CorrelationID: c.GetString(logger.RequestIDKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.NewCourseView(res.Course))
}
