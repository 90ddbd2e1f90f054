package chat

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"chatline/internal/domain"
)

// Publisher difunde cambios de presencia a todos los sockets vivos. La lista
// de identidades en línea se deriva del registry en el momento de publicar,
// nunca de un estado cacheado, así que no puede divergir de los sockets reales.
type Publisher struct {
	logger   *zap.Logger
	registry *Registry
}

func NewPublisher(logger *zap.Logger, registry *Registry) *Publisher {
	return &Publisher{
		logger:   logger,
		registry: registry,
	}
}

func (p *Publisher) IdentityOnline(username string) {
	p.publish(domain.PresenceJoin, username)
}

func (p *Publisher) IdentityOffline(username string) {
	p.publish(domain.PresenceLeave, username)
}

func (p *Publisher) publish(event, username string) {
	frame := domain.PresenceFrame{
		Type:   domain.FramePresence,
		Event:  event,
		User:   username,
		Online: p.registry.AllOnline(),
		At:     time.Now().UTC(),
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		p.logger.Error("marshal presence frame failed", zap.Error(err))
		return
	}

	p.logger.Info("presence change",
		zap.String("event", event),
		zap.String("username", username),
		zap.Int("online", len(frame.Online)),
	)
	p.registry.BroadcastAll(payload)
}
