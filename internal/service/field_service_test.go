package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

func newFieldService(store *fakeStore, channels *fakeChannelRepo, fields *fakeFieldRepo) *FieldService {
	return NewFieldService(FieldDependencies{
		Store:       store,
		ChannelRepo: channels,
		FieldRepo:   fields,
		Logger:      zap.NewNop(),
	})
}

func testChannel() *domain.TicketChannel {
	return &domain.TicketChannel{
		ID:           1,
		ChannelID:    "chan-1",
		LimitPerUser: domain.DefaultLimitPerUser,
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Order ID", "order-id"},
		{"  Order ID  ", "order-id"},
		{"order id", "order-id"},
		{"Priority", "priority"},
		{"What went wrong", "what-went-wrong"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.label), "label %q", tc.label)
	}
}

func TestSlugifyCollidingLabels(t *testing.T) {
	// Labels differing only in case and padding produce the same slug.
	assert.Equal(t, Slugify("Order ID"), Slugify("  order id "))
}

func TestAddField(t *testing.T) {
	store := newFakeStore()
	channels := newFakeChannelRepo()
	fields := &fakeFieldRepo{}
	svc := newFieldService(store, channels, fields)

	field, err := svc.Add(context.Background(), testChannel(), FieldInput{
		Label: "Order ID",
		Kind:  domain.FieldKindShort,
	})

	require.NoError(t, err)
	assert.Equal(t, "order-id", field.Slug)
	assert.Equal(t, "Order ID", field.Label)
	assert.True(t, store.tx.committed)
	assert.Equal(t, 1, channels.lockCount)
	require.Len(t, fields.inserted, 1)
}

func TestAddFieldRejectsSixth(t *testing.T) {
	store := newFakeStore()
	fields := &fakeFieldRepo{count: MaxFieldsPerChannel}
	svc := newFieldService(store, newFakeChannelRepo(), fields)

	_, err := svc.Add(context.Background(), testChannel(), FieldInput{
		Label: "One Too Many",
		Kind:  domain.FieldKindShort,
	})

	require.Error(t, err)
	assert.Equal(t, CodeFieldLimitExceeded, apperrors.ToDomainError(err).Code)
	assert.Empty(t, fields.inserted)
	assert.True(t, store.tx.rolledBack)
	assert.False(t, store.tx.committed)
}

func TestAddFieldDuplicateSlug(t *testing.T) {
	store := newFakeStore()
	fields := &fakeFieldRepo{insertErr: &pgconn.PgError{Code: "23505"}}
	svc := newFieldService(store, newFakeChannelRepo(), fields)

	_, err := svc.Add(context.Background(), testChannel(), FieldInput{
		Label: "Order ID",
		Kind:  domain.FieldKindShort,
	})

	require.Error(t, err)
	assert.Equal(t, CodeDuplicateField, apperrors.ToDomainError(err).Code)
	assert.True(t, store.tx.rolledBack)
}

func TestAddFieldInvalidKind(t *testing.T) {
	store := newFakeStore()
	svc := newFieldService(store, newFakeChannelRepo(), &fakeFieldRepo{})

	_, err := svc.Add(context.Background(), testChannel(), FieldInput{
		Label: "Order ID",
		Kind:  domain.FieldKind("paragraph"),
	})

	require.Error(t, err)
	assert.Equal(t, CodeInvalidFieldKind, apperrors.ToDomainError(err).Code)
}

func TestAddFieldEmptyLabel(t *testing.T) {
	store := newFakeStore()
	svc := newFieldService(store, newFakeChannelRepo(), &fakeFieldRepo{})

	_, err := svc.Add(context.Background(), testChannel(), FieldInput{
		Label: "   ",
		Kind:  domain.FieldKindShort,
	})

	require.Error(t, err)
}

func TestRemoveFieldNotFound(t *testing.T) {
	store := newFakeStore()
	fields := &fakeFieldRepo{deleteErr: pgx.ErrNoRows}
	svc := newFieldService(store, newFakeChannelRepo(), fields)

	err := svc.Remove(context.Background(), testChannel(), "missing")

	require.Error(t, err)
	assert.Equal(t, CodeFieldNotFound, apperrors.ToDomainError(err).Code)
}
