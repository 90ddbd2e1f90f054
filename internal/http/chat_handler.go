package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatline/internal/chat"
	"chatline/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de consulta de chat.
type ChatHandler struct {
	logger       *zap.Logger
	userServ     *service.UserService
	messageServ  *service.MessageService
	registry     *chat.Registry
	historyLimit int
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	userServ *service.UserService,
	messageServ *service.MessageService,
	registry *chat.Registry,
	historyLimit int,
) *ChatHandler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatHandler{
		logger:       logger,
		userServ:     userServ,
		messageServ:  messageServ,
		registry:     registry,
		historyLimit: historyLimit,
	}
}

// ListUsers maneja GET /users: todos los registrados con su estado en línea.
// El flag is_online se lee del registry, no de una columna persistida.
func (h *ChatHandler) ListUsers(c *gin.Context) {
	users, err := h.userServ.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}

	type userView struct {
		Username    string     `json:"username"`
		IsOnline    bool       `json:"is_online"`
		LastLoginAt *time.Time `json:"last_login_at,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
	}

	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{
			Username:    u.Username,
			IsOnline:    h.registry.Online(u.Username),
			LastLoginAt: u.LastLoginAt,
			CreatedAt:   u.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": out})
}

// GlobalHistory maneja GET /messages/global?limit=N.
func (h *ChatHandler) GlobalHistory(c *gin.Context) {
	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := h.messageServ.RecentGlobal(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("global history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
