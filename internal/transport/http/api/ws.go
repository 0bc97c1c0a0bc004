package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/S342D32/Mini-Perplexity/internal/hub"
)

// SessionEvents upgrades to a websocket that streams the session's events.
// GET /api/sessions/:id/ws
func (h *Handler) SessionEvents(c echo.Context) error {
	if h.hub == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "live updates are disabled"})
	}
	sessionID := c.Param("id")
	if err := h.service.CanSubscribe(c.Request().Context(), sessionID, requester(c)); err != nil {
		return h.writeError(c, err)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("failed to upgrade websocket", "session_id", sessionID, "error", err)
		return nil
	}

	conn := h.hub.NewConnection(ws, sessionID)
	h.hub.Register(conn)
	ws.SetReadLimit(wsMaxMessageSize)

	go h.writePump(conn)
	go h.readPump(conn)

	return nil
}

// readPump discards client frames and keeps the read deadline alive until
// the client goes away.
func (h *Handler) readPump(conn *hub.Connection) {
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read failed", "conn_id", conn.ID, "error", err)
			}
			return
		}
	}
}

// writePump forwards queued events and pings the client.
func (h *Handler) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Debug("websocket write failed", "conn_id", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
