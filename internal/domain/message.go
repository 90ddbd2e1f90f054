package domain

import "time"

// Message es un mensaje persistido. Recipient vacío significa broadcast global.
type Message struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sent_at"`
}

// Global indica si el mensaje es de difusión y no privado.
func (m Message) Global() bool {
	return m.Recipient == ""
}
