package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcede/tickets/internal/domain"
)

// ClaimResult reports the outcome of a conditional claim.
type ClaimResult struct {
	Claimed bool
	// ClaimedBy holds the current claimant when the claim was lost.
	ClaimedBy string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByChannel(ctx context.Context, channelID string) (*domain.Ticket, error)
	// GetByTicketID is guild-qualified: the same ticket id exists in
	// every guild once counters pass each other.
	GetByTicketID(ctx context.Context, guildID, ticketID string) (*domain.Ticket, error)
	// ListOpen returns every open ticket across guilds; used to rebuild
	// the in-memory active-ticket index at startup.
	ListOpen(ctx context.Context) ([]domain.Ticket, error)
	// Close marks an open ticket closed, reporting whether this call
	// performed the transition. Closing an already-closed ticket is a
	// no-op that leaves closed_at untouched and reports false.
	Close(ctx context.Context, channelID string, closedAt time.Time) (bool, error)
	Reopen(ctx context.Context, channelID string) error
	// Claim sets the claimant only when the ticket is unclaimed, in one
	// conditional statement. Exactly one of N concurrent claimants wins.
	Claim(ctx context.Context, channelID, userID string, claimedAt time.Time) (ClaimResult, error)
	CountByGuild(ctx context.Context, guildID string) (domain.GuildTicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `ticket_id, channel_id, guild_id, requester_id, requester_tag,
               reason, status, claimed_by, claimed_at, created_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_id, channel_id, guild_id, requester_id, requester_tag, reason, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.ChannelID,
		ticket.GuildID,
		ticket.RequesterID,
		ticket.RequesterTag,
		ticket.Reason,
		ticket.Status,
	).Scan(&ticket.CreatedAt)
}

func (r *ticketRepository) GetByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE channel_id=$1`
	return r.fetchSingle(ctx, query, channelID)
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, guildID, ticketID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE guild_id=$1 AND ticket_id=$2`
	return r.fetchSingle(ctx, query, guildID, ticketID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.TicketID,
		&ticket.ChannelID,
		&ticket.GuildID,
		&ticket.RequesterID,
		&ticket.RequesterTag,
		&ticket.Reason,
		&ticket.Status,
		&ticket.ClaimedBy,
		&ticket.ClaimedAt,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.TicketID,
			&ticket.ChannelID,
			&ticket.GuildID,
			&ticket.RequesterID,
			&ticket.RequesterTag,
			&ticket.Reason,
			&ticket.Status,
			&ticket.ClaimedBy,
			&ticket.ClaimedAt,
			&ticket.CreatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Close(ctx context.Context, channelID string, closedAt time.Time) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, closed_at=$2
        WHERE channel_id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusClosed, closedAt, channelID, domain.TicketStatusOpen)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) Reopen(ctx context.Context, channelID string) error {
	const query = `
        UPDATE tickets SET status=$1, closed_at=NULL WHERE channel_id=$2`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusOpen, channelID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Claim(ctx context.Context, channelID, userID string, claimedAt time.Time) (ClaimResult, error) {
	const query = `
        UPDATE tickets SET claimed_by=$1, claimed_at=$2
        WHERE channel_id=$3 AND claimed_by IS NULL`
	cmd, err := r.pool.Exec(ctx, query, userID, claimedAt, channelID)
	if err != nil {
		return ClaimResult{}, err
	}
	if cmd.RowsAffected() > 0 {
		return ClaimResult{Claimed: true}, nil
	}

	ticket, err := r.GetByChannel(ctx, channelID)
	if err != nil {
		return ClaimResult{}, err
	}
	result := ClaimResult{Claimed: false}
	if ticket.ClaimedBy != nil {
		result.ClaimedBy = *ticket.ClaimedBy
	}
	return result, nil
}

func (r *ticketRepository) CountByGuild(ctx context.Context, guildID string) (domain.GuildTicketStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'open'),
               COUNT(*) FILTER (WHERE status = 'closed')
        FROM tickets WHERE guild_id=$1`
	var stats domain.GuildTicketStats
	if err := r.pool.QueryRow(ctx, query, guildID).Scan(&stats.Total, &stats.Open, &stats.Closed); err != nil {
		return domain.GuildTicketStats{}, err
	}
	return stats, nil
}
