package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arcede/tickets/internal/api/dto"
	"github.com/arcede/tickets/internal/domain"
	"github.com/arcede/tickets/internal/ticket"
	"github.com/arcede/tickets/pkg/util"
)

// TicketsHandler exposes lifecycle operations to the gateway adapter.
type TicketsHandler struct {
	service *ticket.Service
}

// NewTicketsHandler returns a new handler instance.
func NewTicketsHandler(service *ticket.Service) *TicketsHandler {
	return &TicketsHandler{service: service}
}

// Create opens a ticket.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	if req.GuildID == "" || req.Actor.UserID == "" {
		return util.NewValidationError("guild_id and actor are required", nil)
	}

	created, err := h.service.CreateTicket(c.UserContext(), req.GuildID, req.Actor.ToDomain(), domain.TicketReason(req.Reason))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(created))
}

// Close closes the ticket bound to a channel.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	req, err := parseChannelAction(c)
	if err != nil {
		return err
	}
	closed, err := h.service.CloseTicket(c.UserContext(), req.ChannelID, req.Actor.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(closed))
}

// Reopen reopens the ticket bound to a channel.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	req, err := parseChannelAction(c)
	if err != nil {
		return err
	}
	reopened, err := h.service.ReopenTicket(c.UserContext(), req.ChannelID, req.Actor.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(reopened))
}

// Claim assigns the ticket to the calling agent.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	req, err := parseChannelAction(c)
	if err != nil {
		return err
	}
	claimed, err := h.service.ClaimTicket(c.UserContext(), req.ChannelID, req.Actor.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(claimed))
}

// Message records one channel message in the ticket chat log. Always
// returns accepted: logging is fire-and-forget relative to delivery.
func (h *TicketsHandler) Message(c *fiber.Ctx) error {
	var req dto.ChannelMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	if req.ChannelID == "" || req.Actor.UserID == "" {
		return util.NewValidationError("channel_id and actor are required", nil)
	}

	h.service.RecordMessage(c.UserContext(), req.ChannelID, req.Actor.ToDomain(), req.Message)
	return c.SendStatus(fiber.StatusAccepted)
}

// Stats reports guild ticket volume.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.UserContext(), c.Params("guildID"))
	if err != nil {
		return err
	}
	return c.JSON(dto.StatsResponse{Total: stats.Total, Open: stats.Open, Closed: stats.Closed})
}

// Transcript renders the chat-log document for a guild's ticket id.
func (h *TicketsHandler) Transcript(c *fiber.Ctx) error {
	doc, err := h.service.BuildTranscript(c.UserContext(), c.Params("guildID"), c.Params("ticketID"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(doc)
}

// TranscriptByChannel renders the transcript for the ticket bound to a
// channel.
func (h *TicketsHandler) TranscriptByChannel(c *fiber.Ctx) error {
	doc, err := h.service.TranscriptByChannel(c.UserContext(), c.Params("channelID"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(doc)
}

func parseChannelAction(c *fiber.Ctx) (*dto.ChannelActionRequest, error) {
	var req dto.ChannelActionRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, util.NewValidationError("invalid request body", nil)
	}
	if req.ChannelID == "" || req.Actor.UserID == "" {
		return nil, util.NewValidationError("channel_id and actor are required", nil)
	}
	return &req, nil
}
