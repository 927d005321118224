package handler

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/meeting-intelligence-team/meeting-intelligence/errors"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/pipeline"
)

// DeadLetterReader lists recorded pipeline failures
type DeadLetterReader interface {
	List(ctx context.Context, limit int64) ([]pipeline.DeadLetterEntry, error)
}

// Admin exposes operational endpoints for the pipeline
type Admin struct {
	deadLetters DeadLetterReader
	logger      *zap.Logger
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(deadLetters DeadLetterReader, logger *zap.Logger) *Admin {
	return &Admin{deadLetters: deadLetters, logger: logger}
}

// DeadLetters lists dead-lettered tasks, newest first
func (h *Admin) DeadLetters(c echo.Context) error {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	entries, err := h.deadLetters.List(c.Request().Context(), limit)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"failed_tasks": entries,
		"count":        len(entries),
	})
}
