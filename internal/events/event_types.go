package events

import (
	"time"

	"github.com/arcede/tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketClosed   EventType = "ticket_closed"
	EventTicketReopened EventType = "ticket_reopened"
	EventTicketClaimed  EventType = "ticket_claimed"
	EventMessageLogged  EventType = "message_logged"
)

// Event represents a domain event emitted by the lifecycle service.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	GuildID   string    `json:"guild_id"`
	TicketID  string    `json:"ticket_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ChannelID    string              `json:"channel_id"`
	RequesterTag string              `json:"requester_tag"`
	Reason       domain.TicketReason `json:"reason"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ChannelID   string `json:"channel_id"`
	RequesterID string `json:"requester_id"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	ChannelID string `json:"channel_id"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	ChannelID string `json:"channel_id"`
	ClaimedBy string `json:"claimed_by"`
}

// MessageLoggedPayload payload.
type MessageLoggedPayload struct {
	ChannelID string              `json:"channel_id"`
	AuthorTag string              `json:"author_tag"`
	Message   string              `json:"message"`
	IsSupport bool                `json:"is_support"`
	Reason    domain.TicketReason `json:"reason"`
}
