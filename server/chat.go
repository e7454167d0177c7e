package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/localrivet/wikichat/agent"
)

// chatRequest is the body of POST /api/chat and of each WebSocket text
// frame.
type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// rejectMessage applies the transport-level message rules. A non-empty
// return is the user-facing rejection text; the loop never starts.
func (s *Server) rejectMessage(req chatRequest) string {
	if strings.TrimSpace(req.Message) == "" {
		return "Empty message"
	}
	if utf8.RuneCountInString(req.Message) > s.maxMessageLength {
		return fmt.Sprintf("Message too long. Maximum %d characters.", s.maxMessageLength)
	}
	return ""
}

// handleChat answers one question over SSE. Every emitted agent event is one
// `data:` frame, flushed immediately so deltas reach the client as the model
// produces them.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if reason := s.rejectMessage(req); reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": reason})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	emit := func(ev agent.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	err := s.agent.Answer(c.Request.Context(), req.Message,
		agent.WithConversationID(req.ConversationID),
		agent.WithEmit(emit))
	if err != nil {
		// Terminal error events were already emitted by the loop; a failed
		// write just means the client left.
		s.logger.Debug("chat stream from %s ended with: %v", c.ClientIP(), err)
	}
}
