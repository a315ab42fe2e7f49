package dto

import (
	"time"

	"github.com/arcede/tickets/internal/domain"
)

// ActorDTO identifies the member acting on a ticket, as resolved by the
// gateway adapter.
type ActorDTO struct {
	UserID  string   `json:"user_id"`
	Tag     string   `json:"tag"`
	RoleIDs []string `json:"role_ids"`
	IsAdmin bool     `json:"is_admin"`
}

// ToDomain converts the wire actor to the domain type.
func (a ActorDTO) ToDomain() domain.Actor {
	return domain.Actor{
		UserID:  a.UserID,
		Tag:     a.Tag,
		RoleIDs: a.RoleIDs,
		IsAdmin: a.IsAdmin,
	}
}

// CreateTicketRequest opens a ticket.
type CreateTicketRequest struct {
	GuildID string   `json:"guild_id"`
	Reason  string   `json:"reason"`
	Actor   ActorDTO `json:"actor"`
}

// ChannelActionRequest drives close/reopen/claim on a ticket channel.
type ChannelActionRequest struct {
	ChannelID string   `json:"channel_id"`
	Actor     ActorDTO `json:"actor"`
}

// ChannelMessageRequest records one channel message.
type ChannelMessageRequest struct {
	ChannelID string   `json:"channel_id"`
	Actor     ActorDTO `json:"actor"`
	Message   string   `json:"message"`
}

// SupportRoleRequest adds or removes a support role.
type SupportRoleRequest struct {
	GuildID  string   `json:"guild_id"`
	RoleID   string   `json:"role_id"`
	RoleName string   `json:"role_name,omitempty"`
	Actor    ActorDTO `json:"actor"`
}

// GuildSettingRequest mutates one guild setting.
type GuildSettingRequest struct {
	GuildID   string   `json:"guild_id"`
	Enabled   *bool    `json:"enabled,omitempty"`
	ChannelID string   `json:"channel_id,omitempty"`
	Actor     ActorDTO `json:"actor"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	TicketID     string     `json:"ticket_id"`
	ChannelID    string     `json:"channel_id"`
	GuildID      string     `json:"guild_id"`
	RequesterID  string     `json:"requester_id"`
	RequesterTag string     `json:"requester_tag"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	ClaimedBy    *string    `json:"claimed_by,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// NewTicketResponse maps a domain ticket to its wire form.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:     t.TicketID,
		ChannelID:    t.ChannelID,
		GuildID:      t.GuildID,
		RequesterID:  t.RequesterID,
		RequesterTag: t.RequesterTag,
		Reason:       string(t.Reason),
		Status:       string(t.Status),
		ClaimedBy:    t.ClaimedBy,
		ClaimedAt:    t.ClaimedAt,
		CreatedAt:    t.CreatedAt,
		ClosedAt:     t.ClosedAt,
	}
}

// StatsResponse reports guild ticket volume.
type StatsResponse struct {
	Total  int64 `json:"total"`
	Open   int64 `json:"open"`
	Closed int64 `json:"closed"`
}
