package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// ChannelsHandler exposes read-only views of channel configurations.
type ChannelsHandler struct {
	channels *service.ChannelService
	fields   *service.FieldService
}

// NewChannelsHandler constructs handler.
func NewChannelsHandler(channelService *service.ChannelService, fieldService *service.FieldService) *ChannelsHandler {
	return &ChannelsHandler{channels: channelService, fields: fieldService}
}

// ListChannels GET /channels.
func (h *ChannelsHandler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.channels.List(c.UserContext())
	if err != nil {
		return err
	}

	data := make([]dto.ChannelResponse, 0, len(channels))
	for i := range channels {
		data = append(data, dto.NewChannelResponse(&channels[i], nil))
	}
	return c.JSON(fiber.Map{"data": data})
}

// GetChannel GET /channels/:id.
func (h *ChannelsHandler) GetChannel(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid channel id", nil)
	}

	ch, err := h.channels.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	fields, err := h.fields.List(c.UserContext(), ch.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChannelResponse(ch, fields)})
}
