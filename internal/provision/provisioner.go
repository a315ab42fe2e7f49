// Package provision defines the contract for allocating isolated ticket
// channels on the chat platform. The gateway process owns the platform
// protocol; this service only issues provisioning requests.
package provision

import (
	"context"
	"errors"
)

// ErrCategoryNotFound reports that a previously stored category id no
// longer resolves on the platform.
var ErrCategoryNotFound = errors.New("category not found")

// ChannelRequest describes a ticket channel to create.
type ChannelRequest struct {
	GuildID      string   `json:"guild_id"`
	CategoryID   string   `json:"category_id"`
	Name         string   `json:"name"`
	Topic        string   `json:"topic"`
	RequesterID  string   `json:"requester_id"`
	SupportRoles []string `json:"support_roles"`
}

// ChannelProvisioner is the gateway-facing contract for channel lifecycle.
type ChannelProvisioner interface {
	// CreateCategory creates the guild's ticket category with default
	// deny-all visibility and returns its id.
	CreateCategory(ctx context.Context, guildID, name string) (string, error)
	// FetchCategory resolves an existing category id, returning
	// ErrCategoryNotFound when the platform no longer knows it.
	FetchCategory(ctx context.Context, guildID, categoryID string) (string, error)
	// CreateTicketChannel creates an isolated channel visible to the
	// requester, the configured support roles, and the system actor.
	CreateTicketChannel(ctx context.Context, req ChannelRequest) (string, error)
	// SetSendPermission grants or revokes a user's ability to send
	// messages in a channel.
	SetSendPermission(ctx context.Context, channelID, userID string, allowed bool) error
}
