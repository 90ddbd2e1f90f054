package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"chatline/internal/domain"
	"chatline/internal/repository"
)

func newSessionService(ttl time.Duration) (*SessionService, *repository.MemorySessionRepository) {
	repo := repository.NewMemorySessionRepository()
	return NewSessionService(zap.NewNop(), repo, ttl), repo
}

func TestSessionService_CreateAndValidate(t *testing.T) {
	svc, _ := newSessionService(time.Hour)
	user := domain.User{ID: "u1", Username: "alice", CreatedAt: time.Now().UTC()}

	session, err := svc.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("expected a token")
	}
	if !session.ExpiresAt.After(session.IssuedAt) {
		t.Fatalf("expiry must be after issuance: %+v", session)
	}

	username, err := svc.Validate(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if username != "alice" {
		t.Fatalf("expected alice, got %q", username)
	}
}

func TestSessionService_TokensAreUniquePerSession(t *testing.T) {
	svc, _ := newSessionService(time.Hour)
	user := domain.User{ID: "u1", Username: "alice"}

	first, err := svc.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Token == second.Token {
		t.Fatalf("expected distinct tokens per session")
	}

	// Varias sesiones concurrentes del mismo usuario siguen siendo válidas.
	for _, token := range []string{first.Token, second.Token} {
		if _, err := svc.Validate(context.Background(), token); err != nil {
			t.Fatalf("validate %q: %v", token, err)
		}
	}
}

func TestSessionService_ExpiryBoundary(t *testing.T) {
	svc, repo := newSessionService(time.Hour)
	now := time.Now().UTC()

	stillValid := domain.Session{
		ID: "s1", UserID: "u1", Username: "alice", Token: "almost-expired",
		IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Second),
	}
	expired := domain.Session{
		ID: "s2", UserID: "u1", Username: "alice", Token: "just-expired",
		IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Second),
	}
	for _, s := range []domain.Session{stillValid, expired} {
		if err := repo.Create(context.Background(), s); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	if _, err := svc.Validate(context.Background(), stillValid.Token); err != nil {
		t.Fatalf("token one second before expiry must validate: %v", err)
	}
	if _, err := svc.Validate(context.Background(), expired.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("token one second past expiry must fail, got: %v", err)
	}

	// La expiración detectada al validar elimina la sesión.
	if _, err := repo.GetByToken(context.Background(), expired.Token); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expired session should be removed lazily, got: %v", err)
	}
}

func TestSessionService_ValidateUnknownToken(t *testing.T) {
	svc, _ := newSessionService(time.Hour)
	if _, err := svc.Validate(context.Background(), "never-issued"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got: %v", err)
	}
	if _, err := svc.Validate(context.Background(), ""); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for empty token, got: %v", err)
	}
}

func TestSessionService_RevokeIsIdempotent(t *testing.T) {
	svc, _ := newSessionService(time.Hour)
	user := domain.User{ID: "u1", Username: "alice"}

	session, err := svc.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := svc.Revoke(context.Background(), session.Token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.Revoke(context.Background(), session.Token); err != nil {
		t.Fatalf("second revoke must be a no-op, got: %v", err)
	}
	if err := svc.Revoke(context.Background(), "never-issued"); err != nil {
		t.Fatalf("revoking an unknown token is not an error, got: %v", err)
	}

	if _, err := svc.Validate(context.Background(), session.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("revoked token must not validate, got: %v", err)
	}
}

func TestSessionService_SweepExpired(t *testing.T) {
	svc, repo := newSessionService(time.Hour)
	now := time.Now().UTC()

	if err := repo.Create(context.Background(), domain.Session{
		ID: "s1", UserID: "u1", Username: "alice", Token: "old",
		IssuedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	svc.SweepExpired(context.Background())

	if _, err := repo.GetByToken(context.Background(), "old"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expired session should be swept, got: %v", err)
	}
}
