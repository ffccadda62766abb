package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChannelCreated EventType = "channel_created"
	EventChannelUpdated EventType = "channel_updated"
	EventChannelDeleted EventType = "channel_deleted"
	EventTicketOpened   EventType = "ticket_opened"
	EventTicketClosed   EventType = "ticket_closed"
	EventTicketReopened EventType = "ticket_reopened"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ChannelID int64       `json:"channel_id"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	ThreadID    string `json:"thread_id"`
	AnswerCount int    `json:"answer_count"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Reason *string `json:"reason,omitempty"`
}

// ChannelDeletedPayload payload.
type ChannelDeletedPayload struct {
	ChannelRemovedUpstream bool `json:"channel_removed_upstream"`
}
