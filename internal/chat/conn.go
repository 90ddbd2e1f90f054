package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Conn es una conexión viva de un cliente autenticado. Una identidad puede
// tener varias conexiones simultáneas (multi-dispositivo).
type Conn struct {
	ID          string
	Username    string
	ConnectedAt time.Time

	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func NewConn(ws *websocket.Conn, username string, logger *zap.Logger) *Conn {
	if ws != nil {
		ws.SetReadLimit(maxMessageSize)
	}
	return &Conn{
		ID:          uuid.NewString(),
		Username:    username,
		ConnectedAt: time.Now().UTC(),
		ws:          ws,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Send encola un frame saliente sin bloquear. Un buffer lleno o una conexión
// cerrándose cuentan como fallo de entrega: un peer lento no frena al resto.
func (c *Conn) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// ReadPump consume frames entrantes y los pasa al router en orden de llegada.
// Al salir por cualquier causa se desregistra la conexión exactamente una vez.
func (c *Conn) ReadPump(registry *Registry, router *Router) {
	defer func() {
		registry.Unregister(c.ID)
		c.close()
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read error",
					zap.String("username", c.Username),
					zap.String("conn_id", c.ID),
					zap.Error(err),
				)
			}
			return
		}
		router.HandleInbound(context.Background(), c, raw)
	}
}

// WritePump escribe frames salientes y mantiene viva la conexión con pings.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("username", c.Username),
					zap.String("conn_id", c.ID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
