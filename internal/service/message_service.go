package service

import (
	"context"
	"errors"

	"chatline/internal/domain"
	"chatline/internal/repository"
)

// MessageService encapsula el acceso de lectura al historial de mensajes.
type MessageService struct {
	repo     repository.MessageRepository
	maxLimit int
}

var ErrMessageServiceNotConfigured = errors.New("message service not configured")

const defaultMaxHistoryLimit = 500

func NewMessageService(repo repository.MessageRepository) *MessageService {
	return &MessageService{repo: repo, maxLimit: defaultMaxHistoryLimit}
}

// RecentGlobal devuelve los últimos mensajes de difusión en orden cronológico.
// Se puede pedir repetidamente con límites distintos.
func (s *MessageService) RecentGlobal(ctx context.Context, limit int) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}
	messages, err := s.repo.RecentGlobal(ctx, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
