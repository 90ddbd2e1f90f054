package domain

import "time"

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired indica si la sesión ya no es válida en el instante dado.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
