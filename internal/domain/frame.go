package domain

import "time"

// Tipos de frame intercambiados por el socket.
const (
	FrameChat     = "chat"
	FrameTyping   = "typing"
	FramePresence = "presence"
	FrameError    = "error"
)

// Eventos de presencia.
const (
	PresenceJoin  = "join"
	PresenceLeave = "leave"
)

// InboundFrame es un evento entrante por el socket de un cliente.
type InboundFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	IsTyping  bool   `json:"is_typing,omitempty"`
}

// ChatFrame es el eco de un mensaje entregado, con sello de tiempo del servidor.
type ChatFrame struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sent_at"`
}

// TypingFrame se enruta en vivo y nunca se persiste.
type TypingFrame struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	IsTyping  bool   `json:"is_typing"`
}

// PresenceFrame lleva la lista completa de identidades en línea.
type PresenceFrame struct {
	Type   string    `json:"type"`
	Event  string    `json:"event,omitempty"`
	User   string    `json:"user,omitempty"`
	Online []string  `json:"online"`
	At     time.Time `json:"at"`
}

// ErrorFrame reporta un error no fatal al emisor del frame inválido.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewChatFrame(m Message) ChatFrame {
	return ChatFrame{
		Type:      FrameChat,
		ID:        m.ID,
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Content:   m.Content,
		SentAt:    m.SentAt,
	}
}

func NewErrorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: FrameError, Message: message}
}
