package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// MaxFieldsPerChannel caps the custom fields configurable per channel.
const MaxFieldsPerChannel = 5

// Slugify derives the stable identifier for a field label: lowercase, trim,
// spaces to hyphens. Deterministic, used both for uniqueness checks and for
// keying submitted answers.
func Slugify(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(label)), " ", "-")
}

// FieldInput describes a field to add.
type FieldInput struct {
	Label       string
	Kind        domain.FieldKind
	Placeholder *string
	Required    bool
	MinLength   *int
	MaxLength   *int
}

// FieldService manages custom field definitions for ticket channels.
type FieldService struct {
	store    persistence.Store
	channels repository.ChannelRepository
	fields   repository.FieldRepository
	logger   *zap.Logger
}

// FieldDependencies bundles collaborators for the field service.
type FieldDependencies struct {
	Store       persistence.Store
	ChannelRepo repository.ChannelRepository
	FieldRepo   repository.FieldRepository
	Logger      *zap.Logger
}

// NewFieldService constructs the service.
func NewFieldService(deps FieldDependencies) *FieldService {
	return &FieldService{
		store:    deps.Store,
		channels: deps.ChannelRepo,
		fields:   deps.FieldRepo,
		logger:   deps.Logger,
	}
}

// Add creates a field on the channel. The five-field cap is enforced here,
// inside a transaction that locks the channel row, so concurrent
// double-submissions cannot create a sixth field.
func (s *FieldService) Add(ctx context.Context, ch *domain.TicketChannel, input FieldInput) (*domain.Field, error) {
	if !input.Kind.Valid() {
		return nil, errInvalidFieldKind(string(input.Kind))
	}
	label := strings.TrimSpace(input.Label)
	slug := Slugify(label)
	if slug == "" {
		return nil, apperrors.NewValidationError("field label must not be empty", nil)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.channels.Lock(ctx, tx, ch.ID); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	count, err := s.fields.Count(ctx, tx, ch.ID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if count >= MaxFieldsPerChannel {
		_ = tx.Rollback(ctx)
		return nil, errFieldLimitExceeded()
	}

	field := &domain.Field{
		ChannelID:   ch.ID,
		Slug:        slug,
		Kind:        input.Kind,
		Label:       label,
		Placeholder: input.Placeholder,
		Required:    input.Required,
		MinLength:   input.MinLength,
		MaxLength:   input.MaxLength,
	}
	if err := s.fields.Insert(ctx, tx, field); err != nil {
		_ = tx.Rollback(ctx)
		if apperrors.IsUniqueViolation(err) {
			return nil, errDuplicateField(slug)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("field added",
		zap.Int64("channel_id", ch.ID),
		zap.String("slug", slug),
		zap.String("kind", string(input.Kind)))
	return field, nil
}

// Remove deletes the field with the given slug. Existing answers keep their
// values; the store nulls their field back-reference.
func (s *FieldService) Remove(ctx context.Context, ch *domain.TicketChannel, slug string) error {
	err := s.fields.DeleteBySlug(ctx, ch.ID, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errFieldNotFound(slug)
		}
		return err
	}
	s.logger.Info("field removed", zap.Int64("channel_id", ch.ID), zap.String("slug", slug))
	return nil
}

// Clear deletes every field on the channel.
func (s *FieldService) Clear(ctx context.Context, ch *domain.TicketChannel) error {
	if err := s.fields.DeleteByChannel(ctx, ch.ID); err != nil {
		return err
	}
	s.logger.Info("fields cleared", zap.Int64("channel_id", ch.ID))
	return nil
}

// Get returns the field with the given slug, or (nil, nil) when absent.
func (s *FieldService) Get(ctx context.Context, ch *domain.TicketChannel, slug string) (*domain.Field, error) {
	return s.fields.GetBySlug(ctx, ch.ID, slug)
}

// List returns the channel's fields in creation order.
func (s *FieldService) List(ctx context.Context, channelID int64) ([]domain.Field, error) {
	return s.fields.ListByChannel(ctx, channelID)
}

// Count returns the number of fields configured on the channel.
func (s *FieldService) Count(ctx context.Context, ch *domain.TicketChannel) (int, error) {
	return s.fields.Count(ctx, s.store, ch.ID)
}
