// internal/api/handlers/chat.go
package handlers

import (
	"context"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ayash-Bera/travelbot/internal/agent"
	"github.com/Ayash-Bera/travelbot/internal/models"
	"github.com/Ayash-Bera/travelbot/pkg/utils"
	"github.com/Ayash-Bera/travelbot/web"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	SessionCookie = "travelbot_session"
	SessionHeader = "X-Session-ID"

	ChatTemplate = "chat.html"

	RateLimitedMessage = "Too many messages, please wait a moment before sending another."

	maxMessageLength = 2000
	turnTimeout      = 60 * time.Second
)

// Conversation is the part of the agent the handlers need.
type Conversation interface {
	Run(ctx context.Context, sessionID, utterance string) (agent.Reply, error)
	History(sessionID string) []models.ChatTurn
}

type ChatHandler struct {
	agent  Conversation
	logger *logrus.Logger
}

func NewChatHandler(conversation Conversation, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		agent:  conversation,
		logger: logger,
	}
}

// Templates parses the embedded pages with the markdown helper installed.
func Templates() (*template.Template, error) {
	return template.New("").
		Funcs(template.FuncMap{"markdown": RenderMarkdown}).
		ParseFS(web.Templates, "templates/*.html")
}

type chatPage struct {
	Title       string
	Subtitle    string
	Placeholder string
	Spinner     string
	Error       string
	Turns       []models.ChatTurn
}

// ShowChat renders the widget with the newest turn first.
func (h *ChatHandler) ShowChat(c *gin.Context) {
	sessionID := h.sessionFromCookie(c)
	h.renderChat(c, http.StatusOK, sessionID, "")
}

// SubmitChat handles the widget form and redirects back to the page.
func (h *ChatHandler) SubmitChat(c *gin.Context) {
	sessionID := h.sessionFromCookie(c)

	message := strings.TrimSpace(c.PostForm("message"))
	if message == "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		h.renderChat(c, http.StatusBadRequest, sessionID, "Message too long (max 2000 characters)")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), turnTimeout)
	defer cancel()

	if _, err := h.agent.Run(ctx, sessionID, message); err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Chat turn failed")
		h.renderChat(c, http.StatusInternalServerError, sessionID, err.Error())
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// RateLimited answers a throttled widget submission with the chat page and
// an error bubble instead of a JSON envelope.
func (h *ChatHandler) RateLimited(c *gin.Context) {
	sessionID := h.sessionFromCookie(c)
	h.renderChat(c, http.StatusTooManyRequests, sessionID, RateLimitedMessage)
}

// HandleChat is the JSON equivalent of SubmitChat.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid chat request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Message cannot be empty", nil)
		return
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		utils.ErrorResponse(c, http.StatusBadRequest, "Message too long (max 2000 characters)", nil)
		return
	}

	sessionID := h.sessionFromRequest(c)

	h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"user_agent": c.GetHeader("User-Agent"),
		"ip_address": c.ClientIP(),
	}).Info("Processing chat request")

	ctx, cancel := context.WithTimeout(c.Request.Context(), turnTimeout)
	defer cancel()

	reply, err := h.agent.Run(ctx, sessionID, message)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Chat turn failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to answer message", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Reply generated", models.ChatResponse{
		SessionID:    sessionID,
		Reply:        reply.Text,
		Tool:         reply.Tool,
		ResponseTime: int(reply.Duration.Milliseconds()),
		History:      h.agent.History(sessionID),
	})
}

// GetHistory returns the transcript, oldest first.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := h.sessionFromRequest(c)

	utils.SuccessResponse(c, http.StatusOK, "History retrieved", models.HistoryResponse{
		SessionID: sessionID,
		History:   h.agent.History(sessionID),
	})
}

func (h *ChatHandler) renderChat(c *gin.Context, status int, sessionID, errorText string) {
	c.HTML(status, ChatTemplate, chatPage{
		Title:       "AI Travel Assistant",
		Subtitle:    "Type your travel questions below",
		Placeholder: "Ask me about flights or travel policies...",
		Spinner:     "Let me check...",
		Error:       errorText,
		Turns:       newestFirst(h.agent.History(sessionID)),
	})
}

// sessionFromCookie reuses the browser's session or starts a new one.
func (h *ChatHandler) sessionFromCookie(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil && utils.ValidateSessionID(id) {
		return id
	}

	id := utils.NewSessionID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
	return id
}

// sessionFromRequest prefers the X-Session-ID header for API clients.
func (h *ChatHandler) sessionFromRequest(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); utils.ValidateSessionID(id) {
		c.Header(SessionHeader, id)
		return id
	}
	id := h.sessionFromCookie(c)
	c.Header(SessionHeader, id)
	return id
}

func newestFirst(turns []models.ChatTurn) []models.ChatTurn {
	reversed := make([]models.ChatTurn, len(turns))
	for i, turn := range turns {
		reversed[len(turns)-1-i] = turn
	}
	return reversed
}
