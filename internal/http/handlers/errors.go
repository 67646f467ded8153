package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/portfolio-backend/internal/http/response"
	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/optimizer"
	"github.com/yungbote/portfolio-backend/internal/platform/apierr"
	"github.com/yungbote/portfolio-backend/internal/services"
)

// classify maps service and engine errors onto HTTP statuses. Anything it does
// not recognise is a 500 carrying fallbackCode.
func classify(err error, fallbackCode string) *apierr.Error {
	switch {
	case errors.Is(err, services.ErrWorkspaceNotFound):
		return apierr.New(http.StatusNotFound, "workspace_not_found", err)
	case errors.Is(err, services.ErrWorkspaceLimit):
		return apierr.New(http.StatusServiceUnavailable, "workspace_limit", err)
	case errors.Is(err, matrix.ErrSessionActive):
		return apierr.New(http.StatusConflict, "session_active", err)
	case errors.Is(err, services.ErrNoOpenSession), errors.Is(err, matrix.ErrSessionClosed):
		return apierr.New(http.StatusConflict, "session_not_open", err)
	case errors.Is(err, services.ErrSubmitInFlight):
		return apierr.New(http.StatusConflict, "submit_in_flight", err)
	case errors.Is(err, services.ErrIncompleteInput):
		return apierr.New(http.StatusBadRequest, "incomplete_input", err)
	case errors.Is(err, services.ErrUnknownEdge):
		return apierr.New(http.StatusBadRequest, "unknown_edge", err)
	case errors.Is(err, matrix.ErrUnknownModule):
		return apierr.New(http.StatusBadRequest, "unknown_module", err)
	case errors.Is(err, matrix.ErrUnknownKind):
		return apierr.New(http.StatusBadRequest, "unknown_kind", err)
	case errors.Is(err, matrix.ErrInvalidValue):
		return apierr.New(http.StatusBadRequest, "invalid_value", err)
	case errors.Is(err, optimizer.ErrCall):
		return apierr.New(http.StatusBadGateway, "optimization_failed", err)
	case errors.Is(err, matrix.ErrInvariant):
		return apierr.New(http.StatusInternalServerError, "invariant_violation", err)
	}
	return apierr.From(err, fallbackCode)
}

func respondErr(c *gin.Context, err error, fallbackCode string) {
	ae := classify(err, fallbackCode)
	response.RespondError(c, ae.Status, ae.Code, ae.Err)
}
