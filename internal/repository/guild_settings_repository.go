package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcede/tickets/internal/domain"
)

// GuildSettingsRepository manages per-guild configuration and the ticket
// sequence counter.
type GuildSettingsRepository interface {
	Get(ctx context.Context, guildID string) (*domain.GuildSettings, error)
	EnsureExists(ctx context.Context, guildID string) error
	// NextTicketCounter increments the guild counter and returns the new
	// value in a single statement, creating the settings row if absent.
	NextTicketCounter(ctx context.Context, guildID string) (int64, error)
	SetTicketCategory(ctx context.Context, guildID, categoryID string) error
	SetLogsChannel(ctx context.Context, guildID, channelID string) error
	SetAIEnabled(ctx context.Context, guildID string, enabled bool) error
}

type guildSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewGuildSettingsRepository instantiates the repository.
func NewGuildSettingsRepository(pool *pgxpool.Pool) GuildSettingsRepository {
	return &guildSettingsRepository{pool: pool}
}

func (r *guildSettingsRepository) Get(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	const query = `
        SELECT guild_id, ticket_category_id, logs_channel_id, ai_enabled, ticket_counter, created_at
        FROM guild_settings WHERE guild_id=$1`
	var settings domain.GuildSettings
	if err := r.pool.QueryRow(ctx, query, guildID).Scan(
		&settings.GuildID,
		&settings.TicketCategoryID,
		&settings.LogsChannelID,
		&settings.AIEnabled,
		&settings.TicketCounter,
		&settings.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *guildSettingsRepository) EnsureExists(ctx context.Context, guildID string) error {
	const query = `
        INSERT INTO guild_settings (guild_id) VALUES ($1)
        ON CONFLICT (guild_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, guildID)
	return err
}

func (r *guildSettingsRepository) NextTicketCounter(ctx context.Context, guildID string) (int64, error) {
	// Single-statement increment: two concurrent creations can never
	// observe the same counter value.
	const query = `
        INSERT INTO guild_settings (guild_id, ticket_counter) VALUES ($1, 1)
        ON CONFLICT (guild_id) DO UPDATE SET ticket_counter = guild_settings.ticket_counter + 1
        RETURNING ticket_counter`
	var counter int64
	if err := r.pool.QueryRow(ctx, query, guildID).Scan(&counter); err != nil {
		return 0, err
	}
	return counter, nil
}

func (r *guildSettingsRepository) SetTicketCategory(ctx context.Context, guildID, categoryID string) error {
	const query = `
        INSERT INTO guild_settings (guild_id, ticket_category_id) VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET ticket_category_id = EXCLUDED.ticket_category_id`
	_, err := r.pool.Exec(ctx, query, guildID, categoryID)
	return err
}

func (r *guildSettingsRepository) SetLogsChannel(ctx context.Context, guildID, channelID string) error {
	const query = `
        INSERT INTO guild_settings (guild_id, logs_channel_id) VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET logs_channel_id = EXCLUDED.logs_channel_id`
	_, err := r.pool.Exec(ctx, query, guildID, channelID)
	return err
}

func (r *guildSettingsRepository) SetAIEnabled(ctx context.Context, guildID string, enabled bool) error {
	const query = `
        INSERT INTO guild_settings (guild_id, ai_enabled) VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET ai_enabled = EXCLUDED.ai_enabled`
	_, err := r.pool.Exec(ctx, query, guildID, enabled)
	return err
}
