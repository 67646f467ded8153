package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/portfolio-backend/internal/http/response"
	"github.com/yungbote/portfolio-backend/internal/matrix"
)

// valueRequest is the body of every default setter. "value" is required and
// may be null or "" to clear the field.
type valueRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

func (r valueRequest) parse() (matrix.Value, error) {
	var v matrix.Value
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return matrix.Empty, err
	}
	return v, nil
}

func workspaceParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_workspace_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func kindParam(c *gin.Context) (matrix.ValueKind, bool) {
	kind, err := matrix.ParseValueKind(c.Param("kind"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unknown_kind", err)
		return "", false
	}
	return kind, true
}

func moduleParam(c *gin.Context, catalog *matrix.Catalog) (matrix.Module, bool) {
	m, err := catalog.Lookup(c.Param("module"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unknown_module", err)
		return 0, false
	}
	return m, true
}

// targetParams reads the :id, :module and :kind path segments of a detail route.
func targetParams(c *gin.Context, catalog *matrix.Catalog) (uuid.UUID, matrix.ValueKind, matrix.Module, bool) {
	id, ok := workspaceParam(c)
	if !ok {
		return uuid.Nil, "", 0, false
	}
	m, ok := moduleParam(c, catalog)
	if !ok {
		return uuid.Nil, "", 0, false
	}
	kind, ok := kindParam(c)
	if !ok {
		return uuid.Nil, "", 0, false
	}
	return id, kind, m, true
}

func parseAdoptionIndex(raw string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.New("adoption index must be an integer")
	}
	if i < 0 || i >= matrix.AdoptionSlots {
		return 0, errors.New("adoption index out of range 0.." + strconv.Itoa(matrix.AdoptionSlots-1))
	}
	return i, nil
}
