package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatline/internal/domain"
)

// MessageRepository define el contrato de persistencia para mensajes.
type MessageRepository interface {
	Append(ctx context.Context, message domain.Message) (int64, error)
	RecentGlobal(ctx context.Context, limit int) ([]domain.Message, error)
}

// PgMessageRepository implementa MessageRepository usando pgxpool.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Append(ctx context.Context, message domain.Message) (int64, error) {
	const query = `
		INSERT INTO messages (sender, recipient, content, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var recipient interface{}
	if message.Recipient != "" {
		recipient = message.Recipient
	}

	var id int64
	err := r.pool.QueryRow(ctx, query,
		message.Sender,
		recipient,
		message.Content,
		message.SentAt,
	).Scan(&id)
	return id, err
}

func (r *PgMessageRepository) RecentGlobal(ctx context.Context, limit int) ([]domain.Message, error) {
	const query = `
		SELECT id, sender, content, sent_at
		FROM messages
		WHERE recipient IS NULL
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		err = rows.Scan(
			&msg.ID,
			&msg.Sender,
			&msg.Content,
			&msg.SentAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	// El query devuelve los más recientes primero; se invierte a orden cronológico.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
