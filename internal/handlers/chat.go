package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-photoshoot-gateway/internal/chat"
	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/middleware"
	"ai-photoshoot-gateway/internal/models"
	"ai-photoshoot-gateway/internal/studio"
	"ai-photoshoot-gateway/internal/workflow"
)

type ChatHandler struct {
	sessions     *chat.Store
	studioClient *studio.Client
	log          *logger.Logger
}

func NewChatHandler(sessions *chat.Store, studioClient *studio.Client, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		sessions:     sessions,
		studioClient: studioClient,
		log:          log,
	}
}

// CreateSession opens a chat session from the generation handoff. The
// images parameter is decoded defensively: a malformed value opens the
// session with an empty transcript.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	imageURLs := workflow.DecodeImagesParam(req.Images)
	session := chat.NewSession(userID, req.ProjectID, imageURLs, h.log)
	h.sessions.Add(session)

	h.log.Info("chat session opened",
		"session_id", session.ID,
		"project_id", session.ProjectID,
		"images", len(imageURLs))

	c.JSON(http.StatusOK, sessionResponse(session))
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// SelectImage marks one image of a grid message as the active edit target.
func (h *ChatHandler) SelectImage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.SelectImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := session.Select(req.MessageID, req.ImageURL); err != nil {
		switch {
		case errors.Is(err, chat.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		case errors.Is(err, chat.ErrEditInFlight):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// SendMessage submits one free-text edit instruction. Submissions are
// serialized per session; a second one while an edit is outstanding gets a
// conflict response.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	sc := h.studioClient.WithToken(c.GetString(middleware.TokenKey))
	if err := session.Submit(c.Request.Context(), sc, req.Content); err != nil {
		switch {
		case errors.Is(err, chat.ErrEditInFlight):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// DeleteSession discards a session's view state. Designs and projects stay
// on the studio backend; only the transcript is dropped.
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	h.sessions.Remove(session.ID)
	h.log.Info("chat session closed", "session_id", session.ID)
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) session(c *gin.Context) (*chat.Session, bool) {
	userID := c.GetString(middleware.UserIDKey)
	session, err := h.sessions.Get(c.Param("session_id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		return nil, false
	}
	return session, true
}

func sessionResponse(s *chat.Session) models.SessionResponse {
	return models.SessionResponse{
		SessionID:      s.ID,
		ProjectID:      s.ProjectID,
		State:          string(s.State()),
		ActiveImageURL: s.ActiveImageURL(),
		Messages:       s.Messages(),
	}
}
