package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/employee_migration/internal/pipeline"
)

type StatusHandler struct {
	status *pipeline.Status
}

func NewStatusHandler(status *pipeline.Status) *StatusHandler {
	return &StatusHandler{status: status}
}

// StatusHandler returns the current pipeline state and the collections loaded so far.
func (h *StatusHandler) StatusHandler(c echo.Context) error {
	return ResponseSuccess(c, http.StatusOK, "Migration status retrieved successfully", h.status.Snapshot())
}

// HealthHandler answers 200 unless the run has failed.
func (h *StatusHandler) HealthHandler(c echo.Context) error {
	snap := h.status.Snapshot()
	if snap.State == pipeline.StateFailed {
		return ResponseError(c, http.StatusServiceUnavailable, "Migration failed", errors.New(snap.Error))
	}
	return ResponseSuccess(c, http.StatusOK, "OK", map[string]interface{}{
		"state":    snap.State,
		"finished": snap.State.Terminal(),
	})
}
