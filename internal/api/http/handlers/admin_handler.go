package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arcede/tickets/internal/api/dto"
	"github.com/arcede/tickets/internal/ticket"
	"github.com/arcede/tickets/pkg/util"
)

// AdminHandler exposes guild configuration commands.
type AdminHandler struct {
	service *ticket.Service
}

// NewAdminHandler returns a new handler instance.
func NewAdminHandler(service *ticket.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// AddSupportRole registers a support role for a guild.
func (h *AdminHandler) AddSupportRole(c *fiber.Ctx) error {
	var req dto.SupportRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	if req.GuildID == "" || req.RoleID == "" {
		return util.NewValidationError("guild_id and role_id are required", nil)
	}
	if err := h.service.AddSupportRole(c.UserContext(), req.GuildID, req.Actor.ToDomain(), req.RoleID, req.RoleName); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveSupportRole revokes a support role.
func (h *AdminHandler) RemoveSupportRole(c *fiber.Ctx) error {
	var req dto.SupportRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	if req.GuildID == "" || req.RoleID == "" {
		return util.NewValidationError("guild_id and role_id are required", nil)
	}
	if err := h.service.RemoveSupportRole(c.UserContext(), req.GuildID, req.Actor.ToDomain(), req.RoleID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetAI toggles automated replies for a guild.
func (h *AdminHandler) SetAI(c *fiber.Ctx) error {
	var req dto.GuildSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	if req.GuildID == "" || req.Enabled == nil {
		return util.NewValidationError("guild_id and enabled are required", nil)
	}
	if err := h.service.SetAIEnabled(c.UserContext(), req.GuildID, req.Actor.ToDomain(), *req.Enabled); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetLogsChannel configures the lifecycle notification channel.
func (h *AdminHandler) SetLogsChannel(c *fiber.Ctx) error {
	var req dto.GuildSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	if req.GuildID == "" || req.ChannelID == "" {
		return util.NewValidationError("guild_id and channel_id are required", nil)
	}
	if err := h.service.SetLogsChannel(c.UserContext(), req.GuildID, req.Actor.ToDomain(), req.ChannelID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Config returns the guild's settings, support roles, and stats. The
// calling actor arrives in query parameters since this is a read.
func (h *AdminHandler) Config(c *fiber.Ctx) error {
	actor := dto.ActorDTO{
		UserID:  c.Query("user_id"),
		Tag:     c.Query("tag"),
		IsAdmin: c.QueryBool("is_admin"),
	}
	if actor.UserID == "" {
		return util.NewValidationError("user_id is required", nil)
	}
	cfg, err := h.service.GetGuildConfig(c.UserContext(), c.Params("guildID"), actor.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(cfg)
}
