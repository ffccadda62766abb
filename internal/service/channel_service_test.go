package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

type channelFixture struct {
	store      *fakeStore
	channels   *fakeChannelRepo
	tickets    *fakeTicketRepo
	gw         *fakeGateway
	dispatcher *fakeDispatcher
	metrics    *observability.Metrics
	svc        *ChannelService
}

func newChannelFixture() *channelFixture {
	f := &channelFixture{
		store:      newFakeStore(),
		channels:   newFakeChannelRepo(),
		tickets:    newFakeTicketRepo(),
		gw:         &fakeGateway{},
		dispatcher: &fakeDispatcher{},
		metrics:    observability.NewMetrics(),
	}
	f.svc = NewChannelService(ChannelDependencies{
		Store:       f.store,
		ChannelRepo: f.channels,
		TicketRepo:  f.tickets,
		Gateway:     f.gw,
		Dispatcher:  f.dispatcher,
		Metrics:     f.metrics,
		Logger:      zap.NewNop(),
	})
	return f
}

var testActor = events.Actor{UserID: "user-1", Username: "casey"}

func TestCreateChannel(t *testing.T) {
	f := newChannelFixture()

	ch, err := f.svc.Create(context.Background(), testActor, "chan-1", ChannelConfigInput{
		NoticeHeading:     "Support",
		NoticeDescription: "Open a ticket below.",
		TicketName:        "Help Request",
	})

	require.NoError(t, err)
	assert.True(t, f.store.tx.committed)
	assert.Equal(t, domain.DefaultLimitPerUser, ch.LimitPerUser)
	assert.Equal(t, FallbackModalTitle, ch.ModalTitle)
	assert.Equal(t, "help-request", ch.TicketName)

	// Exactly one notice sent and its reference persisted.
	require.Len(t, f.gw.sent, 1)
	assert.Equal(t, []string{f.gw.sent[0].ID}, f.channels.noticeSet)
	require.NotNil(t, ch.NoticeMessageID)
	assert.Equal(t, f.gw.sent[0].ID, *ch.NoticeMessageID)

	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventChannelCreated, f.dispatcher.published[0].Type)
	assert.Equal(t, int64(1), f.metrics.SagaCount("channel_create", "success"))
}

func TestCreateChannelAlreadyConfigured(t *testing.T) {
	f := newChannelFixture()
	f.channels.add(&domain.TicketChannel{ID: 7, ChannelID: "chan-1"})

	_, err := f.svc.Create(context.Background(), testActor, "chan-1", ChannelConfigInput{})

	require.Error(t, err)
	assert.Equal(t, CodeChannelExists, apperrors.ToDomainError(err).Code)
	assert.Empty(t, f.gw.sent)
}

func TestCreateChannelConcurrentInsertMapsConflict(t *testing.T) {
	f := newChannelFixture()
	f.channels.insertErr = &pgconn.PgError{Code: "23505"}

	_, err := f.svc.Create(context.Background(), testActor, "chan-1", ChannelConfigInput{})

	require.Error(t, err)
	assert.Equal(t, CodeChannelExists, apperrors.ToDomainError(err).Code)
	assert.True(t, f.store.tx.rolledBack)
	assert.Empty(t, f.gw.sent)
}

func TestEditChannelReplacesNotice(t *testing.T) {
	f := newChannelFixture()
	oldNotice := "old-notice"
	ch := &domain.TicketChannel{ID: 1, ChannelID: "chan-1", NoticeMessageID: &oldNotice}

	_, err := f.svc.Edit(context.Background(), testActor, ch, ChannelConfigInput{
		NoticeHeading: "Updated",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, f.channels.updated)
	// The stale notice is gone and exactly one replacement exists.
	assert.Equal(t, []string{"old-notice"}, f.gw.deletedMessages)
	require.Len(t, f.gw.sent, 1)
	assert.Equal(t, f.gw.sent[0].ID, *ch.NoticeMessageID)
}

func TestPublishNoticeSendFailureRollsBack(t *testing.T) {
	f := newChannelFixture()
	f.gw.sendErr = errors.New("remote unavailable")
	ch := &domain.TicketChannel{ID: 1, ChannelID: "chan-1"}

	err := f.svc.PublishNotice(context.Background(), ch)

	require.Error(t, err)
	assert.True(t, f.store.tx.rolledBack)
	assert.Empty(t, f.channels.noticeSet)
	assert.Nil(t, ch.NoticeMessageID)
}

func TestPublishNoticePersistFailureDeletesSentNotice(t *testing.T) {
	f := newChannelFixture()
	f.channels.setNoticeErr = errors.New("db down")
	ch := &domain.TicketChannel{ID: 1, ChannelID: "chan-1"}

	err := f.svc.PublishNotice(context.Background(), ch)

	require.Error(t, err)
	assert.True(t, f.store.tx.rolledBack)
	// The orphaned notice was compensated away.
	require.Len(t, f.gw.sent, 1)
	assert.Equal(t, []string{f.gw.sent[0].ID}, f.gw.deletedMessages)
	assert.Nil(t, ch.NoticeMessageID)
	assert.Equal(t, int64(1), f.metrics.SagaCount("channel_notice", "compensated"))
}

func TestDeleteChannelArchivesOpenThreads(t *testing.T) {
	f := newChannelFixture()
	notice := "notice-1"
	thread := "thread-9"
	ch := &domain.TicketChannel{ID: 1, ChannelID: "chan-1", NoticeMessageID: &notice}
	f.tickets.open = []domain.Ticket{
		{ID: 5, ChannelID: 1, ThreadID: &thread},
		{ID: 6, ChannelID: 1}, // never got a thread
	}

	err := f.svc.Delete(context.Background(), testActor, ch, false)

	require.NoError(t, err)
	assert.Equal(t, []string{"thread-9"}, f.gw.archived)
	assert.Equal(t, []string{"notice-1"}, f.gw.deletedMessages)
	assert.Equal(t, []int64{1}, f.channels.deletedIDs)
	assert.True(t, f.store.tx.committed)

	require.Len(t, f.dispatcher.published, 1)
	payload, ok := f.dispatcher.published[0].Payload.(events.ChannelDeletedPayload)
	require.True(t, ok)
	assert.False(t, payload.ChannelRemovedUpstream)
}

func TestDeleteChannelRemovedUpstreamSkipsRemoteCalls(t *testing.T) {
	f := newChannelFixture()
	notice := "notice-1"
	ch := &domain.TicketChannel{ID: 1, ChannelID: "chan-1", NoticeMessageID: &notice}

	err := f.svc.Delete(context.Background(), testActor, ch, true)

	require.NoError(t, err)
	assert.Empty(t, f.gw.archived)
	assert.Empty(t, f.gw.deletedMessages)
	assert.Equal(t, []int64{1}, f.channels.deletedIDs)
}

func TestSetLimitPerUser(t *testing.T) {
	f := newChannelFixture()
	ch := &domain.TicketChannel{ID: 1, LimitPerUser: 3}

	require.NoError(t, f.svc.SetLimitPerUser(context.Background(), ch, 5))
	assert.Equal(t, 5, ch.LimitPerUser)
	assert.Equal(t, 5, f.channels.limits[1])
}

func TestSetLimitPerUserRejectsNonPositive(t *testing.T) {
	f := newChannelFixture()
	ch := &domain.TicketChannel{ID: 1, LimitPerUser: 3}

	for _, limit := range []int{0, -1} {
		err := f.svc.SetLimitPerUser(context.Background(), ch, limit)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidLimit, apperrors.ToDomainError(err).Code)
	}
	assert.Equal(t, 3, ch.LimitPerUser)
}

func TestSetMentions(t *testing.T) {
	f := newChannelFixture()
	ch := &domain.TicketChannel{ID: 1}

	mentions, err := f.svc.SetMentions(context.Background(), ch, []MentionSlot{
		{Kind: MentionKindRole, ID: "role-1"},
		{Kind: MentionKindUser, ID: "user-2"},
		{Kind: MentionKindMember, ID: "user-3"},
		{Kind: MentionKind("webhook"), ID: "skipped"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"<@&role-1>", "<@user-2>", "<@user-3>"}, mentions)
	assert.Equal(t, mentions, ch.Mentions)
	assert.Equal(t, mentions, f.channels.mentions[1])
}

func TestSetMentionsCapsSlots(t *testing.T) {
	f := newChannelFixture()
	ch := &domain.TicketChannel{ID: 1}

	slots := make([]MentionSlot, MaxMentionSlots+3)
	for i := range slots {
		slots[i] = MentionSlot{Kind: MentionKindUser, ID: "u"}
	}
	mentions, err := f.svc.SetMentions(context.Background(), ch, slots)

	require.NoError(t, err)
	assert.Len(t, mentions, MaxMentionSlots)
}
