package handler

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/meeting-intelligence-team/meeting-intelligence/errors"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/meeting"
)

// Meeting handles meeting upload and retrieval endpoints
type Meeting struct {
	service *meeting.Service
	logger  *zap.Logger
}

// NewMeetingHandler creates a meeting handler
func NewMeetingHandler(service *meeting.Service, logger *zap.Logger) *Meeting {
	return &Meeting{service: service, logger: logger}
}

// Upload accepts a multipart recording upload and starts the pipeline
func (h *Meeting) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("file field is required"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	defer src.Close()

	created, err := h.service.Upload(c.Request().Context(), meeting.UploadInput{
		Title:       c.FormValue("title"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      src,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, created)
}

// List returns a page of meetings
func (h *Meeting) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	meetings, total, err := h.service.List(c.Request().Context(), page, pageSize)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"meetings": meetings,
		"total":    total,
	})
}

// Get returns one meeting with its transcript and insights
func (h *Meeting) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid meeting id"))
	}

	detail, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, detail)
}

// Status returns the meeting's processing status
func (h *Meeting) Status(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid meeting id"))
	}

	m, err := h.service.GetStatus(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"id":     m.ID,
		"status": m.Status,
	})
}

// Reprocess re-drives the pipeline for an errored meeting
func (h *Meeting) Reprocess(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid meeting id"))
	}

	if err := h.service.Reprocess(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"id":     id,
		"queued": true,
	})
}
