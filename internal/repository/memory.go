package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"chatline/internal/domain"
)

// Implementaciones en memoria, para pruebas y entornos sin base de datos.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return ErrConflict
	}
	r.users[user.Username] = user
	return nil
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *MemoryUserRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for username, u := range r.users {
		if u.ID == id {
			u.LastLoginAt = &at
			r.users[username] = u
			return nil
		}
	}
	return ErrNotFound
}

type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *MemorySessionRepository) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.Token]; ok {
		return ErrConflict
	}
	r.sessions[session.Token] = session
	return nil
}

func (r *MemorySessionRepository) GetByToken(_ context.Context, token string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[token]
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	return s, nil
}

func (r *MemorySessionRepository) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *MemorySessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for token, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

type MemoryMessageRepository struct {
	mu       sync.RWMutex
	nextID   int64
	messages []domain.Message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{nextID: 1}
}

func (r *MemoryMessageRepository) Append(_ context.Context, message domain.Message) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = r.nextID
	r.nextID++
	r.messages = append(r.messages, message)
	return message.ID, nil
}

func (r *MemoryMessageRepository) RecentGlobal(_ context.Context, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var global []domain.Message
	for _, m := range r.messages {
		if m.Global() {
			global = append(global, m)
		}
	}
	if limit >= 0 && len(global) > limit {
		global = global[len(global)-limit:]
	}
	out := make([]domain.Message, len(global))
	copy(out, global)
	return out, nil
}

// Count devuelve el total de mensajes almacenados, privados incluidos.
func (r *MemoryMessageRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
