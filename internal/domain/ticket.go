package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// TicketReason enumerates the categories a ticket can be opened under.
type TicketReason string

const (
	ReasonTechSupport TicketReason = "tech_support"
	ReasonReport      TicketReason = "report"
	ReasonSuggestion  TicketReason = "suggestion"
	ReasonPurchase    TicketReason = "purchase"
)

// ValidReason reports whether r is one of the known ticket categories.
func ValidReason(r TicketReason) bool {
	switch r {
	case ReasonTechSupport, ReasonReport, ReasonSuggestion, ReasonPurchase:
		return true
	}
	return false
}

// Ticket is the aggregate for one support request's lifecycle.
// TicketID is unique within a guild; ChannelID identifies at most one
// ticket globally.
type Ticket struct {
	TicketID     string
	ChannelID    string
	GuildID      string
	RequesterID  string
	RequesterTag string
	Reason       TicketReason
	Status       TicketStatus
	ClaimedBy    *string
	ClaimedAt    *time.Time
	CreatedAt    time.Time
	ClosedAt     *time.Time
}

// IsOpen reports whether the ticket currently accepts messages.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}
