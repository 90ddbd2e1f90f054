package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatline/internal/domain"
	"chatline/internal/repository"
)

// ErrSessionInvalid cubre tokens desconocidos y sesiones expiradas por igual.
var ErrSessionInvalid = errors.New("session invalid")

const sessionTokenBytes = 32

// SessionService emite, valida y revoca tokens opacos de sesión.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	ttl      time.Duration
}

func NewSessionService(logger *zap.Logger, sessions repository.SessionRepository, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		ttl:      ttl,
	}
}

// Create emite una sesión nueva para el usuario. Sesiones previas del mismo
// usuario siguen vigentes: se permiten varias sesiones concurrentes.
func (s *SessionService) Create(ctx context.Context, user domain.User) (domain.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return domain.Session{}, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}

	return session, nil
}

// Validate resuelve un token a su identidad. No extiende la expiración.
func (s *SessionService) Validate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrSessionInvalid
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSessionInvalid
		}
		return "", err
	}

	if session.Expired(time.Now().UTC()) {
		// Limpieza perezosa: la expiración se detecta al validar.
		if err := s.sessions.DeleteByToken(ctx, token); err != nil && s.logger != nil {
			s.logger.Warn("delete expired session failed", zap.Error(err))
		}
		return "", ErrSessionInvalid
	}

	return session.Username, nil
}

// Revoke invalida un token. Revocar un token desconocido no es un error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByToken(ctx, token)
}

// SweepExpired borra sesiones vencidas. Pensado para ejecutarse al arrancar.
func (s *SessionService) SweepExpired(ctx context.Context) {
	removed, err := s.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("sweep expired sessions failed", zap.Error(err))
		}
		return
	}
	if removed > 0 && s.logger != nil {
		s.logger.Info("expired sessions removed", zap.Int64("count", removed))
	}
}

func generateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
