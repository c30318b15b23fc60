package handler

import (
	"duochat/backend/internal/chathub"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// NewUpgrader only accepts the frontend origin, or any origin when it is "*".
func NewUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
		},
	}
}

// ServeWebSocket upgrades an authenticated request and hands the connection
// to the hub. Runs behind ProtectRoute.
func (h *Handler) ServeWebSocket(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			h.Logger.Warn().Err(err).Str("user_id", user.ID).Msg("websocket upgrade failed")
			return
		}

		client := chathub.NewWebSocketClient(h.Hub, user.ID, uuid.NewString(), conn, h.Logger)
		h.Hub.Register(client)
		client.Run()
	}
}
