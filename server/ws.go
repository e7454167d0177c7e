package server

import (
	"encoding/json"
	"net"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/localrivet/wikichat/agent"
)

// handleWS upgrades the connection and serves chat over it. Each client text
// frame carries a chatRequest; events stream back as JSON text frames with
// the same payload schema as the SSE data frames. The connection stays open
// across questions.
func (s *Server) handleWS(c *gin.Context) {
	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		s.logger.Warn("websocket upgrade from %s failed: %v", c.ClientIP(), err)
		return
	}

	// Served synchronously: the request context must outlive the session,
	// and it is canceled once this handler returns.
	session := uuid.NewString()
	s.logger.Info("websocket session %s opened from %s", session, c.ClientIP())
	s.serveWS(c, conn, session)
}

func (s *Server) serveWS(c *gin.Context, conn net.Conn, session string) {
	defer func() {
		conn.Close()
		s.logger.Info("websocket session %s closed", session)
	}()

	write := func(ev agent.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		return wsutil.WriteServerMessage(conn, ws.OpText, data)
	}

	for {
		msg, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			return
		}
		if op == ws.OpClose {
			return
		}
		if op != ws.OpText && op != ws.OpBinary {
			continue
		}

		// A malformed or rejected frame gets one error frame; the
		// connection keeps serving.
		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			if werr := write(agent.Event{Type: agent.EventError, Content: "Invalid request"}); werr != nil {
				return
			}
			continue
		}
		if reason := s.rejectMessage(req); reason != "" {
			if werr := write(agent.Event{Type: agent.EventError, Content: reason}); werr != nil {
				return
			}
			continue
		}

		err = s.agent.Answer(c.Request.Context(), req.Message,
			agent.WithConversationID(req.ConversationID),
			agent.WithEmit(write))
		if err != nil {
			// Loop-level failures already produced their terminal frame. A
			// dead connection surfaces on the next read.
			s.logger.Debug("websocket session %s answer ended with: %v", session, err)
		}
	}
}
