package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcede/tickets/internal/domain"
)

// ChatLogRepository appends and replays per-ticket chat logs. Lookups
// carry the guild id because ticket ids only identify within a guild.
type ChatLogRepository interface {
	Append(ctx context.Context, entry *domain.ChatLogEntry) error
	// ListByTicket returns entries in insertion order. Ordering is by the
	// serial sequence column, not the timestamp, so same-millisecond
	// messages replay correctly.
	ListByTicket(ctx context.Context, guildID, ticketID string) ([]domain.ChatLogEntry, error)
}

type chatLogRepository struct {
	pool *pgxpool.Pool
}

// NewChatLogRepository instantiates the repository.
func NewChatLogRepository(pool *pgxpool.Pool) ChatLogRepository {
	return &chatLogRepository{pool: pool}
}

func (r *chatLogRepository) Append(ctx context.Context, entry *domain.ChatLogEntry) error {
	const query = `
        INSERT INTO chat_logs (guild_id, ticket_id, author_id, author_tag, message, is_support)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING seq, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.GuildID,
		entry.TicketID,
		entry.AuthorID,
		entry.AuthorTag,
		entry.Message,
		entry.IsSupport,
	).Scan(&entry.Seq, &entry.Timestamp)
}

func (r *chatLogRepository) ListByTicket(ctx context.Context, guildID, ticketID string) ([]domain.ChatLogEntry, error) {
	const query = `
        SELECT seq, guild_id, ticket_id, author_id, author_tag, message, is_support, created_at
        FROM chat_logs WHERE guild_id=$1 AND ticket_id=$2 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, guildID, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatLogEntry
	for rows.Next() {
		var entry domain.ChatLogEntry
		if err := rows.Scan(
			&entry.Seq,
			&entry.GuildID,
			&entry.TicketID,
			&entry.AuthorID,
			&entry.AuthorTag,
			&entry.Message,
			&entry.IsSupport,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
