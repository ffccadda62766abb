package domain

import "time"

// DefaultLimitPerUser caps concurrently open tickets per user in a channel
// unless the channel configures its own limit.
const DefaultLimitPerUser = 3

// TicketChannel configures one source channel to accept ticket openings.
type TicketChannel struct {
	ID int64

	// ChannelID references the remote platform channel.
	ChannelID string
	// NoticeMessageID references the published notice message, if any.
	NoticeMessageID *string

	NoticeHeading     string
	NoticeDescription string

	ModalTitle string

	// TicketName is the slugged prefix for ticket thread names.
	TicketName        string
	TicketDescription string
	Mentions          []string

	LimitPerUser int

	CreatedAt time.Time
	UpdatedAt time.Time
}
