package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/messages"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/saga"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// FallbackModalTitle is used when a channel config leaves the title empty.
const FallbackModalTitle = "Ticket form"

// MaxMentionSlots bounds how many mention slots a configuration accepts.
const MaxMentionSlots = 8

// ChannelConfigInput is the free-text configuration submitted for a channel.
type ChannelConfigInput struct {
	NoticeHeading     string
	NoticeDescription string
	ModalTitle        string
	TicketName        string
	TicketDescription string
}

// MentionKind enumerates the resolvable mention slot kinds.
type MentionKind string

const (
	MentionKindRole   MentionKind = "role"
	MentionKindUser   MentionKind = "user"
	MentionKindMember MentionKind = "member"
)

// MentionSlot is one selected mentionable to add to new tickets.
type MentionSlot struct {
	Kind MentionKind
	ID   string
}

// ChannelService manages ticket channel configuration and the published
// notice message.
type ChannelService struct {
	store      persistence.Store
	channels   repository.ChannelRepository
	tickets    repository.TicketRepository
	gw         gateway.Gateway
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ChannelDependencies bundles collaborators for the channel service.
type ChannelDependencies struct {
	Store       persistence.Store
	ChannelRepo repository.ChannelRepository
	TicketRepo  repository.TicketRepository
	Gateway     gateway.Gateway
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewChannelService constructs the service.
func NewChannelService(deps ChannelDependencies) *ChannelService {
	return &ChannelService{
		store:      deps.Store,
		channels:   deps.ChannelRepo,
		tickets:    deps.TicketRepo,
		gw:         deps.Gateway,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

func normalizeConfig(input ChannelConfigInput) ChannelConfigInput {
	input.NoticeHeading = strings.TrimSpace(input.NoticeHeading)
	input.NoticeDescription = strings.TrimSpace(input.NoticeDescription)
	input.TicketDescription = strings.TrimSpace(input.TicketDescription)

	input.ModalTitle = strings.TrimSpace(input.ModalTitle)
	if input.ModalTitle == "" {
		input.ModalTitle = FallbackModalTitle
	}

	input.TicketName = Slugify(input.TicketName)
	if input.TicketName == "" {
		input.TicketName = messages.FallbackThreadPrefix
	}
	return input
}

// Create configures a channel for tickets and publishes its notice message.
// The insert and the notice publication run as one saga: a failed send
// leaves no row behind, a failed persist deletes the sent notice.
func (s *ChannelService) Create(ctx context.Context, actor events.Actor, channelID string, input ChannelConfigInput) (*domain.TicketChannel, error) {
	existing, err := s.channels.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errChannelExists(channelID)
	}

	input = normalizeConfig(input)
	ch := &domain.TicketChannel{
		ChannelID:         channelID,
		NoticeHeading:     input.NoticeHeading,
		NoticeDescription: input.NoticeDescription,
		ModalTitle:        input.ModalTitle,
		TicketName:        input.TicketName,
		TicketDescription: input.TicketDescription,
		Mentions:          []string{},
		LimitPerUser:      domain.DefaultLimitPerUser,
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	steps := append([]saga.Step{
		{
			Name: "insert_channel",
			Run: func(ctx context.Context) error {
				return s.channels.Insert(ctx, tx, ch)
			},
		},
	}, s.noticeSteps(tx, ch)...)

	err = saga.Run(ctx, tx, steps...)
	recordSaga(s.metrics, "channel_create", err)
	if err != nil {
		// A concurrent create can slip past the existence check and land on
		// the channel_id unique constraint instead.
		if apperrors.IsUniqueViolation(err) {
			return nil, errChannelExists(channelID)
		}
		return nil, err
	}

	s.logger.Info("ticket channel created",
		zap.Int64("channel_id", ch.ID),
		zap.String("remote_channel", ch.ChannelID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventChannelCreated,
		ChannelID: ch.ID,
		Actor:     actor,
	})
	return ch, nil
}

// Edit updates the channel configuration and republishes the notice.
func (s *ChannelService) Edit(ctx context.Context, actor events.Actor, ch *domain.TicketChannel, input ChannelConfigInput) (*domain.TicketChannel, error) {
	input = normalizeConfig(input)
	ch.NoticeHeading = input.NoticeHeading
	ch.NoticeDescription = input.NoticeDescription
	ch.ModalTitle = input.ModalTitle
	ch.TicketName = input.TicketName
	ch.TicketDescription = input.TicketDescription

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	steps := append([]saga.Step{
		{
			Name: "update_channel",
			Run: func(ctx context.Context) error {
				return s.channels.Update(ctx, tx, ch)
			},
		},
	}, s.noticeSteps(tx, ch)...)

	err = saga.Run(ctx, tx, steps...)
	recordSaga(s.metrics, "channel_edit", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket channel updated", zap.Int64("channel_id", ch.ID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventChannelUpdated,
		ChannelID: ch.ID,
		Actor:     actor,
	})
	return ch, nil
}

// PublishNotice republishes the channel notice standalone ("fix"). Safe to
// call again after a partial prior failure: any stale notice is deleted
// before a new one is sent, so the channel never ends up with two.
func (s *ChannelService) PublishNotice(ctx context.Context, ch *domain.TicketChannel) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	err = saga.Run(ctx, tx, s.noticeSteps(tx, ch)...)
	recordSaga(s.metrics, "channel_notice", err)
	return err
}

// noticeSteps builds the delete-stale / send / persist sequence shared by
// create, edit and the standalone fix. ch is updated in place with the new
// notice message reference once it is persisted.
func (s *ChannelService) noticeSteps(tx persistence.Tx, ch *domain.TicketChannel) []saga.Step {
	var sent *gateway.Message
	return []saga.Step{
		{
			Name: "delete_stale_notice",
			Run: func(ctx context.Context) error {
				if ch.NoticeMessageID == nil {
					return nil
				}
				return s.gw.DeleteMessage(ctx, ch.ChannelID, *ch.NoticeMessageID)
			},
		},
		{
			Name: "send_notice",
			Run: func(ctx context.Context) error {
				msg, err := s.gw.Send(ctx, ch.ChannelID, messages.ChannelNotice(ch))
				if err != nil {
					return err
				}
				sent = msg
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.gw.DeleteMessage(ctx, ch.ChannelID, sent.ID)
			},
		},
		{
			Name: "store_notice_ref",
			Run: func(ctx context.Context) error {
				if err := s.channels.SetNoticeMessage(ctx, tx, ch.ID, sent.ID); err != nil {
					return err
				}
				ch.NoticeMessageID = &sent.ID
				return nil
			},
		},
	}
}

// Delete removes the channel configuration. Unless the remote channel was
// already removed upstream, every open ticket's thread is archived first and
// the notice message deleted. Per-thread archiving is best effort: a failure
// aborts the delete, leaving already-archived threads archived.
func (s *ChannelService) Delete(ctx context.Context, actor events.Actor, ch *domain.TicketChannel, channelRemovedUpstream bool) error {
	if !channelRemovedUpstream {
		open, err := s.tickets.ListOpenByChannel(ctx, ch.ID)
		if err != nil {
			return err
		}
		for _, ticket := range open {
			if ticket.ThreadID == nil {
				continue
			}
			err := s.gw.ArchiveThread(ctx, *ticket.ThreadID, "ticket channel deleted")
			if err != nil && !errors.Is(err, gateway.ErrNotFound) {
				return err
			}
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}

	steps := []saga.Step{
		{
			Name: "delete_channel_row",
			Run: func(ctx context.Context) error {
				return s.channels.Delete(ctx, tx, ch.ID)
			},
		},
	}
	if !channelRemovedUpstream && ch.NoticeMessageID != nil {
		steps = append(steps, saga.Step{
			Name: "delete_notice",
			Run: func(ctx context.Context) error {
				return s.gw.DeleteMessage(ctx, ch.ChannelID, *ch.NoticeMessageID)
			},
		})
	}

	err = saga.Run(ctx, tx, steps...)
	recordSaga(s.metrics, "channel_delete", err)
	if err != nil {
		return err
	}

	s.logger.Info("ticket channel deleted",
		zap.Int64("channel_id", ch.ID),
		zap.Bool("removed_upstream", channelRemovedUpstream))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventChannelDeleted,
		ChannelID: ch.ID,
		Actor:     actor,
		Payload:   events.ChannelDeletedPayload{ChannelRemovedUpstream: channelRemovedUpstream},
	})
	return nil
}

// SetLimitPerUser stores a new per-user open ticket limit.
func (s *ChannelService) SetLimitPerUser(ctx context.Context, ch *domain.TicketChannel, limit int) error {
	if limit <= 0 {
		return errInvalidLimit(limit)
	}
	if err := s.channels.SetLimitPerUser(ctx, ch.ID, limit); err != nil {
		return err
	}
	ch.LimitPerUser = limit
	return nil
}

// SetMentions resolves up to MaxMentionSlots mention slots and stores the
// resulting ordered mention list. Unresolvable slot kinds are skipped, not
// errored.
func (s *ChannelService) SetMentions(ctx context.Context, ch *domain.TicketChannel, slots []MentionSlot) ([]string, error) {
	if len(slots) > MaxMentionSlots {
		slots = slots[:MaxMentionSlots]
	}

	mentions := make([]string, 0, len(slots))
	for _, slot := range slots {
		switch slot.Kind {
		case MentionKindRole:
			mentions = append(mentions, messages.RoleMention(slot.ID))
		case MentionKindUser, MentionKindMember:
			mentions = append(mentions, messages.UserMention(slot.ID))
		default:
			continue
		}
	}

	if err := s.channels.SetMentions(ctx, ch.ID, mentions); err != nil {
		return nil, err
	}
	ch.Mentions = mentions
	return mentions, nil
}

// GetByID fetches a channel config, failing when absent.
func (s *ChannelService) GetByID(ctx context.Context, id int64) (*domain.TicketChannel, error) {
	ch, err := s.channels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, errChannelNotFound()
	}
	return ch, nil
}

// GetByChannelID fetches a channel config by its remote channel reference,
// returning (nil, nil) when the channel is not configured for tickets.
func (s *ChannelService) GetByChannelID(ctx context.Context, channelID string) (*domain.TicketChannel, error) {
	return s.channels.GetByChannelID(ctx, channelID)
}

// List returns every configured channel.
func (s *ChannelService) List(ctx context.Context) ([]domain.TicketChannel, error) {
	return s.channels.List(ctx)
}
