package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/messages"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/saga"
)

// AnswerInput pairs a configured field with the value submitted for it.
type AnswerInput struct {
	Field domain.Field
	Value string
}

// CloseOutcome reports what a close request did. AlreadyClosed means the
// ticket was closed before the request and nothing was changed.
type CloseOutcome struct {
	Ticket        *domain.Ticket
	AlreadyClosed bool
}

// TicketService drives the ticket lifecycle: open, close, reopen. Each
// transition is a saga pairing database writes with remote messaging calls
// so a mid-flight failure leaves neither side half done.
type TicketService struct {
	store      persistence.Store
	channels   repository.ChannelRepository
	tickets    repository.TicketRepository
	answers    repository.AnswerRepository
	fields     repository.FieldRepository
	gw         gateway.Gateway
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store       persistence.Store
	ChannelRepo repository.ChannelRepository
	TicketRepo  repository.TicketRepository
	AnswerRepo  repository.AnswerRepository
	FieldRepo   repository.FieldRepository
	Gateway     gateway.Gateway
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		channels:   deps.ChannelRepo,
		tickets:    deps.TicketRepo,
		answers:    deps.AnswerRepo,
		fields:     deps.FieldRepo,
		gw:         deps.Gateway,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// CheckLimit reports whether the user may open another ticket in the
// channel. This is an advisory pre-check for the interaction layer; Create
// re-verifies the limit under a channel row lock.
func (s *TicketService) CheckLimit(ctx context.Context, ch *domain.TicketChannel, userID string) error {
	count, err := s.tickets.CountOpen(ctx, s.store, ch.ID, userID)
	if err != nil {
		return err
	}
	if count >= ch.LimitPerUser {
		return errTicketLimitReached(ch.LimitPerUser)
	}
	return nil
}

// Create opens a ticket: insert the row and its answers, create the private
// thread, record the thread reference, post the opening details, and add the
// opener to the thread. A failure at any point unwinds everything, deleting
// the thread if one was created.
func (s *TicketService) Create(ctx context.Context, actor events.Actor, ch *domain.TicketChannel, answers []AnswerInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		ChannelID:    ch.ID,
		OpenedByID:   actor.UserID,
		OpenedByName: actor.Username,
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	var (
		thread   *gateway.Thread
		recorded []domain.AnswerWithField
	)

	steps := []saga.Step{
		{
			// The channel row lock serializes concurrent opens by the same
			// user so the recount below cannot miss an in-flight ticket.
			Name: "insert_ticket",
			Run: func(ctx context.Context) error {
				if err := s.channels.Lock(ctx, tx, ch.ID); err != nil {
					return err
				}
				count, err := s.tickets.CountOpen(ctx, tx, ch.ID, actor.UserID)
				if err != nil {
					return err
				}
				if count >= ch.LimitPerUser {
					return errTicketLimitReached(ch.LimitPerUser)
				}
				return s.tickets.Insert(ctx, tx, ticket)
			},
		},
		{
			// One answer row per configured field, values exactly as
			// submitted. Blank answers are part of the record too.
			Name: "insert_answers",
			Run: func(ctx context.Context) error {
				for _, in := range answers {
					fieldID := in.Field.ID
					answer := domain.Answer{
						TicketID: ticket.ID,
						FieldID:  &fieldID,
						Value:    in.Value,
					}
					if err := s.answers.Insert(ctx, tx, &answer); err != nil {
						return err
					}
					recorded = append(recorded, domain.AnswerWithField{Answer: answer, Field: in.Field})
				}
				return nil
			},
		},
		{
			Name: "create_thread",
			Run: func(ctx context.Context) error {
				created, err := s.gw.CreatePrivateThread(ctx, ch.ChannelID, messages.ThreadName(ch, ticket.ID))
				if err != nil {
					return err
				}
				thread = created
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.gw.DeleteThread(ctx, thread.ID)
			},
		},
		{
			Name: "store_thread_ref",
			Run: func(ctx context.Context) error {
				if err := s.tickets.SetThread(ctx, tx, ticket.ID, thread.ID); err != nil {
					return err
				}
				ticket.ThreadID = &thread.ID
				return nil
			},
		},
		{
			Name: "send_details",
			Run: func(ctx context.Context) error {
				opener := messages.TemplateUser{ID: actor.UserID, Username: actor.Username}
				_, err := s.gw.Send(ctx, thread.ID, messages.TicketDetails(ticket.ID, opener, ch, recorded, s.now()))
				return err
			},
		},
		{
			Name: "add_opener",
			Run: func(ctx context.Context) error {
				return s.gw.AddThreadMember(ctx, thread.ID, actor.UserID)
			},
		},
	}

	err = saga.Run(ctx, tx, steps...)
	recordSaga(s.metrics, "ticket_create", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket opened",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("channel_id", ch.ID),
		zap.String("opened_by", actor.UserID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketOpened,
		ChannelID: ch.ID,
		TicketID:  ticket.ID,
		Actor:     actor,
		Payload:   events.TicketOpenedPayload{ThreadID: thread.ID, AnswerCount: len(recorded)},
	})
	return ticket, nil
}

// Close closes the ticket attached to the thread. Closing an already-closed
// ticket is not an error: the outcome reports it and nothing changes. The
// closure notice is sent first so its message id can be recorded with the
// closure; if the database write then fails the notice is deleted again.
func (s *TicketService) Close(ctx context.Context, actor events.Actor, threadID string, reason *string) (*CloseOutcome, error) {
	ticket, err := s.mustGetByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if ticket.Closed() {
		return &CloseOutcome{Ticket: ticket, AlreadyClosed: true}, nil
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	var (
		notice  *gateway.Message
		closure repository.TicketClosure
	)

	steps := []saga.Step{
		{
			Name: "send_closed_notice",
			Run: func(ctx context.Context) error {
				sent, err := s.gw.Send(ctx, threadID, messages.ClosedNotice(actor.UserID, reason))
				if err != nil {
					return err
				}
				notice = sent
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.gw.DeleteMessage(ctx, threadID, notice.ID)
			},
		},
		{
			Name: "close_ticket",
			Run: func(ctx context.Context) error {
				closure = repository.TicketClosure{
					Reason:    reason,
					ByID:      actor.UserID,
					ByName:    actor.Username,
					MessageID: notice.ID,
					At:        s.now(),
				}
				return s.tickets.Close(ctx, tx, ticket.ID, closure)
			},
		},
		{
			Name: "archive_thread",
			Run: func(ctx context.Context) error {
				return s.gw.ArchiveThread(ctx, threadID, "ticket closed")
			},
		},
	}

	err = saga.Run(ctx, tx, steps...)
	recordSaga(s.metrics, "ticket_close", err)
	if err != nil {
		return nil, err
	}

	ticket.ClosedReason = closure.Reason
	ticket.ClosedByID = &closure.ByID
	ticket.ClosedByName = &closure.ByName
	ticket.ClosedMessageID = &closure.MessageID
	ticket.ClosedAt = &closure.At

	s.logger.Info("ticket closed",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("closed_by", actor.UserID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketClosed,
		ChannelID: ticket.ChannelID,
		TicketID:  ticket.ID,
		Actor:     actor,
		Payload:   events.TicketClosedPayload{Reason: reason},
	})
	return &CloseOutcome{Ticket: ticket}, nil
}

// Reopen reverts a closure: clear the closure fields, delete the old closure
// notice, unarchive the thread, and announce the reopening. The old notice
// may already be gone; that is tolerated.
func (s *TicketService) Reopen(ctx context.Context, actor events.Actor, threadID string) (*domain.Ticket, error) {
	ticket, err := s.mustGetByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	oldNoticeID := ticket.ClosedMessageID

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	steps := []saga.Step{
		{
			Name: "reopen_ticket",
			Run: func(ctx context.Context) error {
				return s.tickets.Reopen(ctx, tx, ticket.ID)
			},
		},
		{
			Name: "delete_closed_notice",
			Run: func(ctx context.Context) error {
				if oldNoticeID == nil {
					return nil
				}
				return s.gw.DeleteMessage(ctx, threadID, *oldNoticeID)
			},
		},
		{
			Name: "unarchive_thread",
			Run: func(ctx context.Context) error {
				return s.gw.UnarchiveThread(ctx, threadID, "ticket reopened")
			},
			Compensate: func(ctx context.Context) error {
				return s.gw.ArchiveThread(ctx, threadID, "ticket reopen reverted")
			},
		},
		{
			Name: "send_reopened_notice",
			Run: func(ctx context.Context) error {
				_, err := s.gw.Send(ctx, threadID, messages.ReopenedNotice(actor.UserID))
				return err
			},
		},
	}

	err = saga.Run(ctx, tx, steps...)
	recordSaga(s.metrics, "ticket_reopen", err)
	if err != nil {
		return nil, err
	}

	ticket.ClosedReason = nil
	ticket.ClosedByID = nil
	ticket.ClosedByName = nil
	ticket.ClosedMessageID = nil
	ticket.ClosedAt = nil

	s.logger.Info("ticket reopened",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("reopened_by", actor.UserID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketReopened,
		ChannelID: ticket.ChannelID,
		TicketID:  ticket.ID,
		Actor:     actor,
	})
	return ticket, nil
}

// GetByThread fetches the ticket for a thread, failing when none exists.
func (s *TicketService) GetByThread(ctx context.Context, threadID string) (*domain.Ticket, error) {
	return s.mustGetByThread(ctx, threadID)
}

// GetByID fetches a ticket by id, failing when absent.
func (s *TicketService) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, errTicketNotFound()
	}
	return ticket, nil
}

// ListByChannel pages through a channel's tickets, newest first.
func (s *TicketService) ListByChannel(ctx context.Context, channelID int64, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListByChannel(ctx, channelID, limit, offset)
}

// Answers returns a ticket's recorded answers joined with their field
// definitions. Every answer is returned: those whose field was since
// removed keep their value and carry a zero-valued field.
func (s *TicketService) Answers(ctx context.Context, ticket *domain.Ticket) ([]domain.AnswerWithField, error) {
	answers, err := s.answers.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	fields, err := s.fields.ListByChannel(ctx, ticket.ChannelID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	result := make([]domain.AnswerWithField, 0, len(answers))
	for _, a := range answers {
		var field domain.Field
		if a.FieldID != nil {
			field = byID[*a.FieldID]
		}
		result = append(result, domain.AnswerWithField{Answer: a, Field: field})
	}
	return result, nil
}

func (s *TicketService) mustGetByThread(ctx context.Context, threadID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, errTicketNotFound()
	}
	return ticket, nil
}
