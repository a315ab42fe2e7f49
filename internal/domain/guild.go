package domain

import "time"

// GuildSettings holds per-guild configuration and the last-issued ticket
// sequence number. Created lazily on the first ticket request for a guild.
type GuildSettings struct {
	GuildID          string
	TicketCategoryID *string
	LogsChannelID    *string
	AIEnabled        bool
	TicketCounter    int64
	CreatedAt        time.Time
}

// SupportRole grants members of a guild role the capability to claim,
// close, and reopen tickets. Unique per (guild, role).
type SupportRole struct {
	GuildID  string
	RoleID   string
	RoleName string
	AddedAt  time.Time
}
