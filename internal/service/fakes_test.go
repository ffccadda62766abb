package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
)

func testTime() time.Time {
	return time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC)
}

// stubQuerier satisfies persistence.Querier for fakes whose repositories
// never touch the database directly.
type stubQuerier struct{}

func (stubQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (stubQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type fakeTx struct {
	stubQuerier
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeStore struct {
	stubQuerier
	tx       *fakeTx
	beginErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tx: &fakeTx{}}
}

func (s *fakeStore) Begin(ctx context.Context) (persistence.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.tx, nil
}

type fakeGateway struct {
	sendErr         error
	createThreadErr error
	archiveErr      error
	unarchiveErr    error
	addMemberErr    error

	sent            []gateway.Message
	sentContents    []string
	deletedMessages []string
	createdThreads  []gateway.Thread
	deletedThreads  []string
	archived        []string
	unarchived      []string
	threadMembers   []string
}

func (g *fakeGateway) Channel(ctx context.Context, channelID string) (*gateway.Channel, error) {
	return &gateway.Channel{ID: channelID, Name: "support"}, nil
}

func (g *fakeGateway) Message(ctx context.Context, channelID, messageID string) (*gateway.Message, error) {
	return &gateway.Message{ID: messageID, ChannelID: channelID}, nil
}

func (g *fakeGateway) Send(ctx context.Context, channelID, content string) (*gateway.Message, error) {
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	msg := gateway.Message{ID: fmt.Sprintf("msg-%d", len(g.sent)+1), ChannelID: channelID}
	g.sent = append(g.sent, msg)
	g.sentContents = append(g.sentContents, content)
	return &msg, nil
}

func (g *fakeGateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	g.deletedMessages = append(g.deletedMessages, messageID)
	return nil
}

func (g *fakeGateway) CreatePrivateThread(ctx context.Context, channelID, name string) (*gateway.Thread, error) {
	if g.createThreadErr != nil {
		return nil, g.createThreadErr
	}
	thread := gateway.Thread{ID: fmt.Sprintf("thread-%d", len(g.createdThreads)+1), Name: name}
	g.createdThreads = append(g.createdThreads, thread)
	return &thread, nil
}

func (g *fakeGateway) DeleteThread(ctx context.Context, threadID string) error {
	g.deletedThreads = append(g.deletedThreads, threadID)
	return nil
}

func (g *fakeGateway) ArchiveThread(ctx context.Context, threadID, reason string) error {
	if g.archiveErr != nil {
		return g.archiveErr
	}
	g.archived = append(g.archived, threadID)
	return nil
}

func (g *fakeGateway) UnarchiveThread(ctx context.Context, threadID, reason string) error {
	if g.unarchiveErr != nil {
		return g.unarchiveErr
	}
	g.unarchived = append(g.unarchived, threadID)
	return nil
}

func (g *fakeGateway) AddThreadMember(ctx context.Context, threadID, userID string) error {
	if g.addMemberErr != nil {
		return g.addMemberErr
	}
	g.threadMembers = append(g.threadMembers, userID)
	return nil
}

type fakeDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *fakeDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

type fakeChannelRepo struct {
	nextID       int64
	insertErr    error
	byChannelID  map[string]*domain.TicketChannel
	byID         map[int64]*domain.TicketChannel
	lockCount    int
	noticeSet    []string
	setNoticeErr error
	updated      int
	deletedIDs   []int64
	limits       map[int64]int
	mentions     map[int64][]string
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{
		byChannelID: map[string]*domain.TicketChannel{},
		byID:        map[int64]*domain.TicketChannel{},
		limits:      map[int64]int{},
		mentions:    map[int64][]string{},
	}
}

func (r *fakeChannelRepo) add(ch *domain.TicketChannel) {
	r.byChannelID[ch.ChannelID] = ch
	r.byID[ch.ID] = ch
}

func (r *fakeChannelRepo) Insert(ctx context.Context, q persistence.Querier, ch *domain.TicketChannel) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.nextID++
	ch.ID = r.nextID
	r.add(ch)
	return nil
}

func (r *fakeChannelRepo) Update(ctx context.Context, q persistence.Querier, ch *domain.TicketChannel) error {
	r.updated++
	return nil
}

func (r *fakeChannelRepo) SetNoticeMessage(ctx context.Context, q persistence.Querier, id int64, messageID string) error {
	if r.setNoticeErr != nil {
		return r.setNoticeErr
	}
	r.noticeSet = append(r.noticeSet, messageID)
	return nil
}

func (r *fakeChannelRepo) Delete(ctx context.Context, q persistence.Querier, id int64) error {
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

func (r *fakeChannelRepo) Lock(ctx context.Context, q persistence.Querier, id int64) error {
	r.lockCount++
	return nil
}

func (r *fakeChannelRepo) SetLimitPerUser(ctx context.Context, id int64, limit int) error {
	r.limits[id] = limit
	return nil
}

func (r *fakeChannelRepo) SetMentions(ctx context.Context, id int64, mentions []string) error {
	r.mentions[id] = mentions
	return nil
}

func (r *fakeChannelRepo) GetByID(ctx context.Context, id int64) (*domain.TicketChannel, error) {
	return r.byID[id], nil
}

func (r *fakeChannelRepo) GetByChannelID(ctx context.Context, channelID string) (*domain.TicketChannel, error) {
	return r.byChannelID[channelID], nil
}

func (r *fakeChannelRepo) List(ctx context.Context) ([]domain.TicketChannel, error) {
	var result []domain.TicketChannel
	for _, ch := range r.byID {
		result = append(result, *ch)
	}
	return result, nil
}

type fakeFieldRepo struct {
	nextID    int64
	count     int
	insertErr error
	deleteErr error
	inserted  []domain.Field
	fields    []domain.Field
}

func (r *fakeFieldRepo) Insert(ctx context.Context, q persistence.Querier, f *domain.Field) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.nextID++
	f.ID = r.nextID
	r.inserted = append(r.inserted, *f)
	return nil
}

func (r *fakeFieldRepo) Count(ctx context.Context, q persistence.Querier, channelID int64) (int, error) {
	return r.count, nil
}

func (r *fakeFieldRepo) GetBySlug(ctx context.Context, channelID int64, slug string) (*domain.Field, error) {
	for i := range r.fields {
		if r.fields[i].Slug == slug {
			return &r.fields[i], nil
		}
	}
	return nil, nil
}

func (r *fakeFieldRepo) ListByChannel(ctx context.Context, channelID int64) ([]domain.Field, error) {
	return r.fields, nil
}

func (r *fakeFieldRepo) DeleteBySlug(ctx context.Context, channelID int64, slug string) error {
	return r.deleteErr
}

func (r *fakeFieldRepo) DeleteByChannel(ctx context.Context, channelID int64) error {
	return nil
}

type fakeTicketRepo struct {
	nextID    int64
	openCount int
	closeErr  error
	reopenErr error

	inserted  []*domain.Ticket
	threadSet map[int64]string
	closed    map[int64]repository.TicketClosure
	reopened  []int64
	byThread  map[string]*domain.Ticket
	open      []domain.Ticket
	all       []domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		threadSet: map[int64]string{},
		closed:    map[int64]repository.TicketClosure{},
		byThread:  map[string]*domain.Ticket{},
	}
}

func (r *fakeTicketRepo) Insert(ctx context.Context, q persistence.Querier, t *domain.Ticket) error {
	r.nextID++
	t.ID = r.nextID
	r.inserted = append(r.inserted, t)
	return nil
}

func (r *fakeTicketRepo) SetThread(ctx context.Context, q persistence.Querier, id int64, threadID string) error {
	r.threadSet[id] = threadID
	return nil
}

func (r *fakeTicketRepo) Close(ctx context.Context, q persistence.Querier, id int64, closure repository.TicketClosure) error {
	if r.closeErr != nil {
		return r.closeErr
	}
	r.closed[id] = closure
	return nil
}

func (r *fakeTicketRepo) Reopen(ctx context.Context, q persistence.Querier, id int64) error {
	if r.reopenErr != nil {
		return r.reopenErr
	}
	r.reopened = append(r.reopened, id)
	return nil
}

func (r *fakeTicketRepo) CountOpen(ctx context.Context, q persistence.Querier, channelID int64, userID string) (int, error) {
	return r.openCount, nil
}

func (r *fakeTicketRepo) GetByThread(ctx context.Context, threadID string) (*domain.Ticket, error) {
	return r.byThread[threadID], nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	for i := range r.all {
		if r.all[i].ID == id {
			return &r.all[i], nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) ListOpenByChannel(ctx context.Context, channelID int64) ([]domain.Ticket, error) {
	return r.open, nil
}

func (r *fakeTicketRepo) ListByChannel(ctx context.Context, channelID int64, limit, offset int) ([]domain.Ticket, error) {
	return r.all, nil
}

type fakeAnswerRepo struct {
	nextID   int64
	inserted []domain.Answer
	answers  []domain.Answer
}

func (r *fakeAnswerRepo) Insert(ctx context.Context, q persistence.Querier, a *domain.Answer) error {
	r.nextID++
	a.ID = r.nextID
	r.inserted = append(r.inserted, *a)
	return nil
}

func (r *fakeAnswerRepo) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Answer, error) {
	return r.answers, nil
}
