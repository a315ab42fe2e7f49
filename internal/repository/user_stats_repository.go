package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcede/tickets/internal/domain"
)

// UserStatsRepository upserts per-user ticket counters.
type UserStatsRepository interface {
	IncrementOpened(ctx context.Context, userID, guildID string) error
	IncrementClosed(ctx context.Context, userID, guildID string) error
	Get(ctx context.Context, userID, guildID string) (*domain.UserStats, error)
}

type userStatsRepository struct {
	pool *pgxpool.Pool
}

// NewUserStatsRepository instantiates the repository.
func NewUserStatsRepository(pool *pgxpool.Pool) UserStatsRepository {
	return &userStatsRepository{pool: pool}
}

func (r *userStatsRepository) IncrementOpened(ctx context.Context, userID, guildID string) error {
	const query = `
        INSERT INTO user_stats (user_id, guild_id, tickets_opened, last_ticket_at)
        VALUES ($1, $2, 1, NOW())
        ON CONFLICT (user_id, guild_id) DO UPDATE
            SET tickets_opened = user_stats.tickets_opened + 1, last_ticket_at = NOW()`
	_, err := r.pool.Exec(ctx, query, userID, guildID)
	return err
}

func (r *userStatsRepository) IncrementClosed(ctx context.Context, userID, guildID string) error {
	const query = `
        INSERT INTO user_stats (user_id, guild_id, tickets_closed)
        VALUES ($1, $2, 1)
        ON CONFLICT (user_id, guild_id) DO UPDATE
            SET tickets_closed = user_stats.tickets_closed + 1`
	_, err := r.pool.Exec(ctx, query, userID, guildID)
	return err
}

func (r *userStatsRepository) Get(ctx context.Context, userID, guildID string) (*domain.UserStats, error) {
	const query = `
        SELECT user_id, guild_id, tickets_opened, tickets_closed, last_ticket_at
        FROM user_stats WHERE user_id=$1 AND guild_id=$2`
	var stats domain.UserStats
	if err := r.pool.QueryRow(ctx, query, userID, guildID).Scan(
		&stats.UserID,
		&stats.GuildID,
		&stats.TicketsOpened,
		&stats.TicketsClosed,
		&stats.LastTicketAt,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}
