// Package messages builds the text content the bot posts. Button and modal
// construction belongs to the interaction layer, not here.
package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// FallbackThreadPrefix names ticket threads when a channel has no prefix.
const FallbackThreadPrefix = "ticket"

// ChannelNotice renders the notice message published in a ticket channel.
func ChannelNotice(ch *domain.TicketChannel) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(ch.NoticeHeading)
	b.WriteString("\n")
	b.WriteString(ch.NoticeDescription)
	return b.String()
}

// ThreadName derives the thread name for a new ticket.
func ThreadName(ch *domain.TicketChannel, ticketID int64) string {
	prefix := ch.TicketName
	if prefix == "" {
		prefix = FallbackThreadPrefix
	}
	return fmt.Sprintf("%s-%d", prefix, ticketID)
}

// TicketDetails renders the opening message posted into a ticket thread:
// greeting, templated description, spoilered mention list, and every
// submitted answer.
func TicketDetails(ticketID int64, opener TemplateUser, ch *domain.TicketChannel, answers []domain.AnswerWithField, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Ticket #%d\n", ticketID)
	fmt.Fprintf(&b, "%s Thank you for opening a ticket!", UserMention(opener.ID))

	if ch.TicketDescription != "" {
		b.WriteString("\n\n")
		b.WriteString(ResolveTemplate(ch.TicketDescription, opener, now, true))
	}
	if len(ch.Mentions) > 0 {
		fmt.Fprintf(&b, "\n\n||%s||", strings.Join(ch.Mentions, " "))
	}
	for _, answer := range answers {
		fmt.Fprintf(&b, "\n### %s\n%s", answer.Field.Label, answer.Value)
	}
	return b.String()
}

// ClosedNotice renders the closure message posted when a ticket is closed.
func ClosedNotice(closedByID string, reason *string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## :no_entry: Closed\nTicket closed by %s", UserMention(closedByID))
	if reason != nil && *reason != "" {
		fmt.Fprintf(&b, "\n### Reason\n%s", *reason)
	}
	return b.String()
}

// ReopenedNotice renders the message posted when a ticket is reopened.
func ReopenedNotice(userID string) string {
	return fmt.Sprintf("%s reopened the ticket", UserMention(userID))
}
