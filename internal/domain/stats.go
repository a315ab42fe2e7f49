package domain

import "time"

// UserStats aggregates per-user ticket counters within a guild. It is a
// derived metric, upserted alongside ticket creation and closure, never
// independently authoritative.
type UserStats struct {
	UserID        string
	GuildID       string
	TicketsOpened int64
	TicketsClosed int64
	LastTicketAt  *time.Time
}

// GuildTicketStats summarizes ticket volume for a guild.
type GuildTicketStats struct {
	Total  int64
	Open   int64
	Closed int64
}
