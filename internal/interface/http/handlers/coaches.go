package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/horses-for-courses/planner/internal/application/command"
	"github.com/horses-for-courses/planner/internal/application/query"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// CoachHandler serves the /coaches endpoints.
type CoachHandler struct {
	commands *command.Handlers
	queries  *query.Handlers
}

// NewCoachHandler creates a CoachHandler.
func NewCoachHandler(commands *command.Handlers, queries *query.Handlers) *CoachHandler {
	return &CoachHandler{commands: commands, queries: queries}
}

// Mount registers the coach routes on r.
func (h *CoachHandler) Mount(r gin.IRouter) {
	g := r.Group("/coaches")
	g.POST("", h.Register)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/skills", h.UpdateSkills)
}

// Register registers a coach with no skills.
// POST /coaches
func (h *CoachHandler) Register(c *gin.Context) {
	var req RegisterCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.commands.RegisterCoach.Handle(c.Request.Context(), command.RegisterCoachCommand{
		Name:          req.Name,
		Email:         req.Email,
		CorrelationID: c.GetString(logger.RequestIDKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, query.NewCoachView(res.Coach))
}

// List returns all coaches.
// GET /coaches
func (h *CoachHandler) List(c *gin.Context) {
	views, err := h.queries.ListCoaches.Handle(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if views == nil {
		views = []query.CoachView{}
	}
	c.JSON(http.StatusOK, views)
}

// Get returns one coach with its commitments.
// GET /coaches/:id
func (h *CoachHandler) Get(c *gin.Context) {
	view, err := h.queries.GetCoach.Handle(c.Request.Context(), query.GetCoachQuery{CoachID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSkills adds then removes coach skills.
// POST /coaches/:id/skills
func (h *CoachHandler) UpdateSkills(c *gin.Context) {
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

	res, err := h.commands.UpdateCoachSkills.Handle(c.Request.Context(), command.UpdateCoachSkillsCommand{
		CoachID:       c.Param("id"),
		Add:           add,
		Remove:        remove,
		CorrelationID: c.GetString(logger.RequestIDKey),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.NewCoachView(res.Coach))
}
