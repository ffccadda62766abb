package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

var noon = time.Date(2025, time.March, 14, 12, 30, 0, 0, time.UTC)

func TestResolveTemplate(t *testing.T) {
	user := TemplateUser{ID: "42", Username: "alice"}

	tests := []struct {
		name      string
		template  string
		asMessage bool
		want      string
	}{
		{
			name:      "user mention in message mode",
			template:  "Hello {user}",
			asMessage: true,
			want:      "Hello <@42>",
		},
		{
			name:     "user falls back to username in plain mode",
			template: "Hello {user} ({username})",
			want:     "Hello alice (alice)",
		},
		{
			name:     "plain timestamps",
			template: "{date} {time} / {datetime} / {year}",
			want:     "2025-03-14 12:30 / 2025-03-14 12:30 / 2025",
		},
		{
			name:      "markup timestamps",
			template:  "{datetime}",
			asMessage: true,
			want:      "<t:1741955400:f>",
		},
		{
			name:     "no placeholders untouched",
			template: "nothing here",
			want:     "nothing here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTemplate(tt.template, user, noon, tt.asMessage)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannelNotice(t *testing.T) {
	ch := &domain.TicketChannel{
		NoticeHeading:     "Need help?",
		NoticeDescription: "Open a ticket below.",
	}
	assert.Equal(t, "# Need help?\nOpen a ticket below.", ChannelNotice(ch))
}

func TestThreadName(t *testing.T) {
	assert.Equal(t, "support-7", ThreadName(&domain.TicketChannel{TicketName: "support"}, 7))
	assert.Equal(t, "ticket-7", ThreadName(&domain.TicketChannel{}, 7))
}

func TestTicketDetails(t *testing.T) {
	ch := &domain.TicketChannel{
		TicketDescription: "Hi {username}",
		Mentions:          []string{"<@&1>", "<@2>"},
	}
	answers := []domain.AnswerWithField{
		{
			Answer: domain.Answer{Value: "ORD-1"},
			Field:  domain.Field{Label: "Order Number"},
		},
	}

	got := TicketDetails(9, TemplateUser{ID: "42", Username: "alice"}, ch, answers, noon)

	assert.Contains(t, got, "## Ticket #9")
	assert.Contains(t, got, "<@42> Thank you for opening a ticket!")
	assert.Contains(t, got, "Hi alice")
	assert.Contains(t, got, "||<@&1> <@2>||")
	assert.Contains(t, got, "### Order Number\nORD-1")
}

func TestClosedNotice(t *testing.T) {
	reason := "resolved"
	assert.Equal(t,
		"## :no_entry: Closed\nTicket closed by <@5>\n### Reason\nresolved",
		ClosedNotice("5", &reason))
	assert.Equal(t,
		"## :no_entry: Closed\nTicket closed by <@5>",
		ClosedNotice("5", nil))
}

func TestReopenedNotice(t *testing.T) {
	assert.Equal(t, "<@5> reopened the ticket", ReopenedNotice("5"))
}
