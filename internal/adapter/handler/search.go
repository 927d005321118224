package handler

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/meeting-intelligence-team/meeting-intelligence/errors"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/search"
)

// Search handles semantic search endpoints
type Search struct {
	service *search.Service
	logger  *zap.Logger
}

// NewSearchHandler creates a search handler
func NewSearchHandler(service *search.Service, logger *zap.Logger) *Search {
	return &Search{service: service, logger: logger}
}

// QueryRequest is the global search payload
type QueryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=500"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

// Query runs a hybrid search across all processed meetings
func (h *Search) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	results, err := h.service.Search(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// QueryMeeting searches within a single meeting's transcript
func (h *Search) QueryMeeting(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid meeting id"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	results, err := h.service.SearchMeeting(c.Request().Context(), id, c.QueryParam("q"), limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"meeting_id": id,
		"results":    results,
		"count":      len(results),
	})
}
