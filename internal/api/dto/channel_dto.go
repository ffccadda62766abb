package dto

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// ChannelResponse is the external view of a channel configuration.
type ChannelResponse struct {
	ID                int64           `json:"id"`
	ChannelID         string          `json:"channel_id"`
	NoticeMessageID   *string         `json:"notice_message_id"`
	NoticeHeading     string          `json:"notice_heading"`
	NoticeDescription string          `json:"notice_description"`
	ModalTitle        string          `json:"modal_title"`
	TicketName        string          `json:"ticket_name"`
	TicketDescription string          `json:"ticket_description"`
	Mentions          []string        `json:"mentions"`
	LimitPerUser      int             `json:"limit_per_user"`
	Fields            []FieldResponse `json:"fields,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// FieldResponse is the external view of a custom field.
type FieldResponse struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Kind        string  `json:"kind"`
	Label       string  `json:"label"`
	Placeholder *string `json:"placeholder"`
	Required    bool    `json:"required"`
	MinLength   *int    `json:"min_length"`
	MaxLength   *int    `json:"max_length"`
}

// NewChannelResponse maps a channel to its response shape.
func NewChannelResponse(ch *domain.TicketChannel, fields []domain.Field) ChannelResponse {
	resp := ChannelResponse{
		ID:                ch.ID,
		ChannelID:         ch.ChannelID,
		NoticeMessageID:   ch.NoticeMessageID,
		NoticeHeading:     ch.NoticeHeading,
		NoticeDescription: ch.NoticeDescription,
		ModalTitle:        ch.ModalTitle,
		TicketName:        ch.TicketName,
		TicketDescription: ch.TicketDescription,
		Mentions:          ch.Mentions,
		LimitPerUser:      ch.LimitPerUser,
		CreatedAt:         ch.CreatedAt,
		UpdatedAt:         ch.UpdatedAt,
	}
	for _, f := range fields {
		resp.Fields = append(resp.Fields, NewFieldResponse(f))
	}
	return resp
}

// NewFieldResponse maps a field to its response shape.
func NewFieldResponse(f domain.Field) FieldResponse {
	return FieldResponse{
		ID:          f.ID,
		Slug:        f.Slug,
		Kind:        string(f.Kind),
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Required:    f.Required,
		MinLength:   f.MinLength,
		MaxLength:   f.MaxLength,
	}
}
