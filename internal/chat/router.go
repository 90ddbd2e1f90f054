package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"chatline/internal/domain"
	"chatline/internal/repository"
)

// Router interpreta frames entrantes y decide el conjunto de entrega.
// Los mensajes de chat se persisten antes de resolver destinos; los frames de
// typing nunca tocan la persistencia.
type Router struct {
	logger   *zap.Logger
	registry *Registry
	messages repository.MessageRepository
}

func NewRouter(logger *zap.Logger, registry *Registry, messages repository.MessageRepository) *Router {
	return &Router{
		logger:   logger,
		registry: registry,
		messages: messages,
	}
}

// HandleInbound procesa un frame crudo de una conexión. Los errores de formato
// responden con un frame de error a esa conexión y la dejan abierta.
func (r *Router) HandleInbound(ctx context.Context, sender *Conn, raw []byte) {
	var frame domain.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.sendError(sender, "invalid frame")
		return
	}

	switch frame.Type {
	case domain.FrameChat:
		r.handleChat(ctx, sender, frame)
	case domain.FrameTyping:
		r.handleTyping(sender, frame)
	default:
		r.sendError(sender, "unknown frame type")
	}
}

func (r *Router) handleChat(ctx context.Context, sender *Conn, frame domain.InboundFrame) {
	content := strings.TrimSpace(frame.Content)
	if content == "" {
		r.sendError(sender, "empty content")
		return
	}

	msg := domain.Message{
		Sender:    sender.Username,
		Recipient: strings.TrimSpace(frame.Recipient),
		Content:   content,
		SentAt:    time.Now().UTC(),
	}

	id, err := r.messages.Append(ctx, msg)
	if err != nil {
		r.logger.Error("append message failed",
			zap.Error(err),
			zap.String("sender", sender.Username),
		)
		r.sendError(sender, "could not persist message")
		return
	}
	msg.ID = id

	payload, err := json.Marshal(domain.NewChatFrame(msg))
	if err != nil {
		r.logger.Error("marshal chat frame failed", zap.Error(err))
		return
	}

	if msg.Global() {
		r.registry.BroadcastAll(payload)
		return
	}
	// Destinatario sin conexiones vivas no es un error: el mensaje ya quedó
	// persistido y simplemente no encuentra sockets.
	r.deliver(r.targetedConns(sender, msg.Recipient), payload)
}

func (r *Router) handleTyping(sender *Conn, frame domain.InboundFrame) {
	payload, err := json.Marshal(domain.TypingFrame{
		Type:      domain.FrameTyping,
		Sender:    sender.Username,
		Recipient: strings.TrimSpace(frame.Recipient),
		IsTyping:  frame.IsTyping,
	})
	if err != nil {
		r.logger.Error("marshal typing frame failed", zap.Error(err))
		return
	}

	recipient := strings.TrimSpace(frame.Recipient)
	if recipient == "" {
		r.registry.BroadcastAll(payload)
		return
	}
	r.deliver(r.targetedConns(sender, recipient), payload)
}

// targetedConns resuelve los destinos de un frame dirigido: las conexiones del
// destinatario más las otras conexiones del emisor, sin duplicados y sin el
// socket que originó el frame.
func (r *Router) targetedConns(sender *Conn, recipient string) []*Conn {
	seen := make(map[string]struct{})
	var targets []*Conn
	add := func(conns []*Conn) {
		for _, c := range conns {
			if c.ID == sender.ID {
				continue
			}
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			targets = append(targets, c)
		}
	}
	add(r.registry.ConnectionsFor(recipient))
	add(r.registry.ConnectionsFor(sender.Username))
	return targets
}

func (r *Router) deliver(targets []*Conn, payload []byte) {
	for _, c := range targets {
		if !c.Send(payload) && r.logger != nil {
			r.logger.Debug("targeted delivery failed",
				zap.String("username", c.Username),
				zap.String("conn_id", c.ID),
			)
		}
	}
}

func (r *Router) sendError(c *Conn, message string) {
	payload, err := json.Marshal(domain.NewErrorFrame(message))
	if err != nil {
		return
	}
	c.Send(payload)
}
