package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/persistence"
)

// FieldRepository encapsulates custom field persistence.
type FieldRepository interface {
	Insert(ctx context.Context, q persistence.Querier, f *domain.Field) error
	// Count runs against the given Querier so callers can count under a
	// channel row lock.
	Count(ctx context.Context, q persistence.Querier, channelID int64) (int, error)
	// GetBySlug returns (nil, nil) when no field exists.
	GetBySlug(ctx context.Context, channelID int64, slug string) (*domain.Field, error)
	ListByChannel(ctx context.Context, channelID int64) ([]domain.Field, error)
	DeleteBySlug(ctx context.Context, channelID int64, slug string) error
	DeleteByChannel(ctx context.Context, channelID int64) error
}

type fieldRepository struct {
	pool *pgxpool.Pool
}

// NewFieldRepository instantiates repository.
func NewFieldRepository(pool *pgxpool.Pool) FieldRepository {
	return &fieldRepository{pool: pool}
}

const fieldColumns = `id, channel_id, slug, kind, label, placeholder, required, min_length, max_length, created_at, updated_at`

func (r *fieldRepository) Insert(ctx context.Context, q persistence.Querier, f *domain.Field) error {
	const query = `
        INSERT INTO ticket_fields (channel_id, slug, kind, label, placeholder, required, min_length, max_length)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return q.QueryRow(ctx, query,
		f.ChannelID,
		f.Slug,
		f.Kind,
		f.Label,
		f.Placeholder,
		f.Required,
		f.MinLength,
		f.MaxLength,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *fieldRepository) Count(ctx context.Context, q persistence.Querier, channelID int64) (int, error) {
	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_fields WHERE channel_id=$1`, channelID).Scan(&count)
	return count, err
}

func (r *fieldRepository) GetBySlug(ctx context.Context, channelID int64, slug string) (*domain.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM ticket_fields WHERE channel_id=$1 AND slug=$2`

	var f domain.Field
	err := r.pool.QueryRow(ctx, query, channelID, slug).Scan(
		&f.ID,
		&f.ChannelID,
		&f.Slug,
		&f.Kind,
		&f.Label,
		&f.Placeholder,
		&f.Required,
		&f.MinLength,
		&f.MaxLength,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fieldRepository) ListByChannel(ctx context.Context, channelID int64) ([]domain.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM ticket_fields WHERE channel_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Field
	for rows.Next() {
		var f domain.Field
		if err := rows.Scan(
			&f.ID,
			&f.ChannelID,
			&f.Slug,
			&f.Kind,
			&f.Label,
			&f.Placeholder,
			&f.Required,
			&f.MinLength,
			&f.MaxLength,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *fieldRepository) DeleteBySlug(ctx context.Context, channelID int64, slug string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_fields WHERE channel_id=$1 AND slug=$2`, channelID, slug)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *fieldRepository) DeleteByChannel(ctx context.Context, channelID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ticket_fields WHERE channel_id=$1`, channelID)
	return err
}
