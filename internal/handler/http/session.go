package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/middleware"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionHandler serves the session lifecycle and the trainer/student write
// paths.
type SessionHandler struct {
	sessions    *service.SessionService
	broadcast   *service.BroadcastService
	scratchpads *service.ScratchpadService
	reader      *service.ReaderService
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *service.SessionService, broadcast *service.BroadcastService, scratchpads *service.ScratchpadService, reader *service.ReaderService) *SessionHandler {
	return &SessionHandler{
		sessions:    sessions,
		broadcast:   broadcast,
		scratchpads: scratchpads,
		reader:      reader,
	}
}

// callerID returns the authenticated user id set by the Auth middleware.
func callerID(c *gin.Context) (uint, bool) {
	idAny, exists := c.Get(middleware.CtxUserID)
	if !exists {
		logrus.Warn("Handler: User ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	id, ok := idAny.(uint)
	if !ok {
		logrus.Error("Handler: User ID in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error processing user ID")
		return 0, false
	}
	return id, true
}

func sessionIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid session ID")
		return 0, false
	}
	return uint(id), true
}

type CreateSessionRequest struct {
	Title    string `json:"title" binding:"required,max=191"`
	Language string `json:"language" binding:"omitempty,max=64"`
}

type CreateSessionResponse struct {
	Message   string `json:"message"`
	SessionID uint   `json:"session_id"`
	JoinCode  string `json:"join_code"`
	Title     string `json:"title"`
}

// CreateSession starts a new live session owned by the calling trainer.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	trainerID, ok := callerID(c)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateSession: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: title is required")
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), req.Title, trainerID, req.Language)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, CreateSessionResponse{
		Message:   "Session created successfully",
		SessionID: session.ID,
		JoinCode:  session.JoinCode,
		Title:     session.Title,
	})
}

type JoinSessionRequest struct {
	Code string `json:"code" binding:"required"`
}

// JoinSession enters the calling student into the session behind the code.
func (h *SessionHandler) JoinSession(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}

	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.JoinSession: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: code is required")
		return
	}

	result, err := h.sessions.Join(c.Request.Context(), req.Code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, result)
}

type ValidateSessionResponse struct {
	SessionID uint   `json:"session_id"`
	JoinCode  string `json:"join_code"`
	Title     string `json:"title"`
	Language  string `json:"language"`
	IsActive  bool   `json:"is_active"`
}

// ValidateSession is the read-only pre-join check.
func (h *SessionHandler) ValidateSession(c *gin.Context) {
	session, err := h.sessions.ValidateActive(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, ValidateSessionResponse{
		SessionID: session.ID,
		JoinCode:  session.JoinCode,
		Title:     session.Title,
		Language:  session.Language,
		IsActive:  session.IsActive,
	})
}

// EndSession terminates a session on behalf of its trainer or staff.
func (h *SessionHandler) EndSession(c *gin.Context) {
	actorID, ok := callerID(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	role := c.GetString(middleware.CtxUserRole)
	if err := h.sessions.End(c.Request.Context(), sessionID, actorID, role); err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{"message": "Session ended"})
}

type PublishRequest struct {
	Code     string          `json:"code"`
	Language string          `json:"language"`
	Output   json.RawMessage `json:"output,omitempty"`
}

// PublishBroadcast stores the trainer's current code/output snapshot.
func (h *SessionHandler) PublishBroadcast(c *gin.Context) {
	trainerID, ok := callerID(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.PublishBroadcast: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	err := h.broadcast.Publish(c.Request.Context(), sessionID, trainerID, req.Code, req.Language, req.Output)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{"message": "Broadcast published"})
}

type ScratchpadRequest struct {
	Code              string          `json:"code" binding:"required"`
	Language          string          `json:"language" binding:"required"`
	Output            json.RawMessage `json:"output,omitempty"`
	WorkspaceFileID   uint            `json:"workspace_file_id,omitempty"`
	WorkspaceFileName string          `json:"workspace_file_name,omitempty"`
}

// UpdateScratchpad merges the calling student's latest state into the
// session's scratchpad map.
func (h *SessionHandler) UpdateScratchpad(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req ScratchpadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateScratchpad: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: code and language are required")
		return
	}

	studentName := c.GetString(middleware.CtxUserName)
	err := h.scratchpads.Update(c.Request.Context(), sessionID, userID, studentName, service.ScratchpadUpdate{
		Code:              req.Code,
		Language:          req.Language,
		Output:            req.Output,
		WorkspaceFileID:   req.WorkspaceFileID,
		WorkspaceFileName: req.WorkspaceFileName,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{"message": "Scratchpad updated"})
}

// LiveView is the public poll students use to pick up trainer broadcasts.
func (h *SessionHandler) LiveView(c *gin.Context) {
	view, err := h.reader.Live(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, view)
}
