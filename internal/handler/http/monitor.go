package http

import (
	"net/http"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// MonitorHandler serves the staff-only read projections: the active session
// directory and the per-session student scratchpad view.
type MonitorHandler struct {
	reader *service.ReaderService
}

// NewMonitorHandler creates a MonitorHandler.
func NewMonitorHandler(reader *service.ReaderService) *MonitorHandler {
	return &MonitorHandler{reader: reader}
}

// ListActiveSessions returns the directory of active sessions, most recent
// first.
func (h *MonitorHandler) ListActiveSessions(c *gin.Context) {
	summaries, err := h.reader.ListActive(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"sessions": summaries})
}

// SessionStudents returns every student's scratchpad for one session.
func (h *MonitorHandler) SessionStudents(c *gin.Context) {
	students, err := h.reader.StudentsOf(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"students": students})
}
