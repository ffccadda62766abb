package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// TicketsHandler exposes read-only ticket views.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// ListChannelTickets GET /channels/:id/tickets.
func (h *TicketsHandler) ListChannelTickets(c *fiber.Ctx) error {
	channelID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid channel id", nil)
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	tickets, err := h.tickets.ListByChannel(c.UserContext(), channelID, limit, offset)
	if err != nil {
		return err
	}

	data := make([]dto.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		data = append(data, dto.NewTicketSummary(t))
	}
	return c.JSON(fiber.Map{"data": data})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid ticket id", nil)
	}

	ticket, err := h.tickets.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	answers, err := h.tickets.Answers(c.UserContext(), ticket)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(ticket, answers)})
}
