package dto

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// TicketSummary is a listing row.
type TicketSummary struct {
	ID           int64      `json:"id"`
	ChannelID    int64      `json:"channel_id"`
	OpenedByID   string     `json:"opened_by_id"`
	OpenedByName string     `json:"opened_by_name"`
	ThreadID     *string    `json:"thread_id"`
	Open         bool       `json:"open"`
	ClosedAt     *time.Time `json:"closed_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TicketDetailResponse provides full ticket info including closure metadata
// and the submitted answers.
type TicketDetailResponse struct {
	TicketSummary
	ClosedReason *string          `json:"closed_reason"`
	ClosedByID   *string          `json:"closed_by_id"`
	ClosedByName *string          `json:"closed_by_name"`
	Answers      []AnswerResponse `json:"answers"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// AnswerResponse pairs a submitted value with the field it answered.
type AnswerResponse struct {
	FieldSlug  string `json:"field_slug"`
	FieldLabel string `json:"field_label"`
	Value      string `json:"value"`
}

// NewTicketSummary maps a ticket to its listing shape.
func NewTicketSummary(t domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		ChannelID:    t.ChannelID,
		OpenedByID:   t.OpenedByID,
		OpenedByName: t.OpenedByName,
		ThreadID:     t.ThreadID,
		Open:         !t.Closed(),
		ClosedAt:     t.ClosedAt,
		CreatedAt:    t.CreatedAt,
	}
}

// NewTicketDetailResponse maps a ticket and its answers to the detail shape.
func NewTicketDetailResponse(t *domain.Ticket, answers []domain.AnswerWithField) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketSummary: NewTicketSummary(*t),
		ClosedReason:  t.ClosedReason,
		ClosedByID:    t.ClosedByID,
		ClosedByName:  t.ClosedByName,
		Answers:       make([]AnswerResponse, 0, len(answers)),
		UpdatedAt:     t.UpdatedAt,
	}
	for _, a := range answers {
		resp.Answers = append(resp.Answers, AnswerResponse{
			FieldSlug:  a.Field.Slug,
			FieldLabel: a.Field.Label,
			Value:      a.Value,
		})
	}
	return resp
}
