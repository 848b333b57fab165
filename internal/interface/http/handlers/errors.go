package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/internal/domain/shared"
	"github.com/horses-for-courses/planner/pkg/logger"
)

// Problem is the error body returned by every endpoint.
type Problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
	Kind   string `json:"kind"`
}

type problemKind struct {
	status int
	kind   string
	title  string
}

var (
	kindValidation   = problemKind{http.StatusBadRequest, "ValidationError", "Invalid request"}
	kindState        = problemKind{http.StatusBadRequest, "StateError", "Operation not allowed in current state"}
	kindEligibility  = problemKind{http.StatusBadRequest, "EligibilityError", "Coach is not eligible"}
	kindAvailability = problemKind{http.StatusBadRequest, "AvailabilityError", "Coach is not available"}
	kindConflict     = problemKind{http.StatusConflict, "ConflictError", "Conflict"}
	kindNotFound     = problemKind{http.StatusNotFound, "NotFound", "Resource not found"}
	kindInternal     = problemKind{http.StatusInternalServerError, "InternalError", "Internal server error"}
)

func classify(err error) problemKind {
	switch shared.KindOf(err) {
	case shared.ErrValidation:
		return kindValidation
	case shared.ErrInvalidState:
		return kindState
	case shared.ErrIneligible:
		return kindEligibility
	case shared.ErrUnavailable:
		return kindAvailability
	case shared.ErrConflict:
		return kindConflict
	case shared.ErrNotFound:
		return kindNotFound
	default:
		return kindInternal
	}
}

// StatusFor returns the HTTP status an error maps to.
func StatusFor(err error) int {
	return classify(err).status
}

// respondError writes err as a Problem. Internal errors are logged and their
// detail is hidden from the client.
func respondError(c *gin.Context, err error) {
	k := classify(err)

	detail := shared.Message(err)
	if k == kindInternal {
		logger.FromContext(c.Request.Context(), nil).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		detail = "an unexpected error occurred"
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(k.status, Problem{
		Title:  k.title,
		Detail: detail,
		Status: k.status,
		Kind:   k.kind,
	})
}

// badRequest reports a body that could not be decoded.
func badRequest(c *gin.Context, err error) {
	respondError(c, shared.WrapError("request", "Bind", shared.ErrValidation, "malformed request body", err))
}
