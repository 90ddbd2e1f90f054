package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatline/internal/chat"
	"chatline/internal/service"
)

// WSHandler atiende el upgrade a WebSocket. La sesión se valida una sola vez
// aquí; una conexión ya viva no se revalida por mensaje.
type WSHandler struct {
	logger   *zap.Logger
	sessions *service.SessionService
	registry *chat.Registry
	router   *chat.Router
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *zap.Logger, sessions *service.SessionService, registry *chat.Registry, router *chat.Router) *WSHandler {
	return &WSHandler{
		logger:   logger,
		sessions: sessions,
		registry: registry,
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Serve maneja GET /ws?token=TOKEN.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	username, err := h.sessions.Validate(c.Request.Context(), token)
	if err != nil {
		// Rechazo antes del upgrade: no se crea conexión ni efecto alguno.
		if errors.Is(err, service.ErrSessionInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}
		h.logger.Error("session validate failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not validate session"})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := chat.NewConn(ws, username, h.logger)
	h.registry.Register(conn)

	go conn.WritePump()
	go conn.ReadPump(h.registry, h.router)
}
