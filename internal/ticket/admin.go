package ticket

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/arcede/tickets/internal/domain"
	"github.com/arcede/tickets/pkg/util"
)

// GuildConfig is the configuration read-back for administrators.
type GuildConfig struct {
	GuildID       string
	AIEnabled     bool
	LogsChannelID *string
	SupportRoles  []domain.SupportRole
	Stats         domain.GuildTicketStats
}

// AddSupportRole registers a guild role as support staff. Admin only.
func (s *Service) AddSupportRole(ctx context.Context, guildID string, actor domain.Actor, roleID, roleName string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	role := &domain.SupportRole{GuildID: guildID, RoleID: roleID, RoleName: roleName}
	if err := s.roles.Add(ctx, role); err != nil {
		return util.NewStoreError(err)
	}
	return nil
}

// RemoveSupportRole revokes a guild role's support capability. Admin only.
func (s *Service) RemoveSupportRole(ctx context.Context, guildID string, actor domain.Actor, roleID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.roles.Remove(ctx, guildID, roleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("support role", map[string]any{"role_id": roleID})
		}
		return util.NewStoreError(err)
	}
	return nil
}

// SetAIEnabled toggles automated replies for a guild. Admin only.
func (s *Service) SetAIEnabled(ctx context.Context, guildID string, actor domain.Actor, enabled bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.settings.SetAIEnabled(ctx, guildID, enabled); err != nil {
		return util.NewStoreError(err)
	}
	return nil
}

// SetLogsChannel configures the channel that receives lifecycle
// notifications. Admin only.
func (s *Service) SetLogsChannel(ctx context.Context, guildID string, actor domain.Actor, channelID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.settings.SetLogsChannel(ctx, guildID, channelID); err != nil {
		return util.NewStoreError(err)
	}
	return nil
}

// GetGuildConfig returns the guild's settings, support roles, and ticket
// volume. Admin only.
func (s *Service) GetGuildConfig(ctx context.Context, guildID string, actor domain.Actor) (*GuildConfig, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	cfg := &GuildConfig{GuildID: guildID, AIEnabled: true}
	settings, err := s.settings.Get(ctx, guildID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewStoreError(err)
		}
	} else {
		cfg.AIEnabled = settings.AIEnabled
		cfg.LogsChannelID = settings.LogsChannelID
	}

	roles, err := s.roles.ListByGuild(ctx, guildID)
	if err != nil {
		return nil, util.NewStoreError(err)
	}
	cfg.SupportRoles = roles

	stats, err := s.tickets.CountByGuild(ctx, guildID)
	if err != nil {
		return nil, util.NewStoreError(err)
	}
	cfg.Stats = stats

	return cfg, nil
}

// LogsChannelID returns the configured logs channel for a guild, if any.
func (s *Service) LogsChannelID(ctx context.Context, guildID string) *string {
	settings, err := s.settings.Get(ctx, guildID)
	if err != nil {
		return nil
	}
	return settings.LogsChannelID
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin {
		return util.NewUnauthorized("administrator required")
	}
	return nil
}
