package domain

import "time"

// Ticket is one opened support case backed by a private thread.
type Ticket struct {
	ID        int64
	ChannelID int64

	OpenedByID   string
	OpenedByName string

	// ThreadID references the remote thread, set once the thread exists.
	ThreadID *string

	// Closure metadata. All nil while the ticket is open.
	ClosedReason    *string
	ClosedByID      *string
	ClosedByName    *string
	ClosedMessageID *string
	ClosedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Closed reports whether the ticket is currently closed.
func (t *Ticket) Closed() bool {
	return t.ClosedAt != nil
}

// Answer records one field response submitted when a ticket was opened.
// FieldID is nulled, not removed, when the field is later deleted.
type Answer struct {
	ID       int64
	TicketID int64
	FieldID  *int64
	Value    string
}

// AnswerWithField pairs an answer with a snapshot of the field it answered,
// used when rendering the ticket details message.
type AnswerWithField struct {
	Answer
	Field Field
}
