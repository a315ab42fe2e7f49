package domain

import "time"

// ChatLogEntry is one recorded channel message tied to a ticket.
// Entries are append-only; Seq is the insertion-order tie breaker since
// two messages can land on the same timestamp. Ticket ids repeat across
// guilds, so entries are always addressed by (guild, ticket) together.
type ChatLogEntry struct {
	Seq       int64
	GuildID   string
	TicketID  string
	AuthorID  string
	AuthorTag string
	Message   string
	IsSupport bool
	Timestamp time.Time
}
