package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/persistence"
)

// ChannelRepository encapsulates ticket channel persistence. Mutations take
// an explicit Querier so the same method serves pool callers and saga
// transactions.
type ChannelRepository interface {
	Insert(ctx context.Context, q persistence.Querier, ch *domain.TicketChannel) error
	Update(ctx context.Context, q persistence.Querier, ch *domain.TicketChannel) error
	SetNoticeMessage(ctx context.Context, q persistence.Querier, id int64, messageID string) error
	Delete(ctx context.Context, q persistence.Querier, id int64) error
	// Lock acquires the channel row for the duration of the transaction,
	// serializing workflows that check-then-mutate per-channel counts.
	Lock(ctx context.Context, q persistence.Querier, id int64) error
	SetLimitPerUser(ctx context.Context, id int64, limit int) error
	SetMentions(ctx context.Context, id int64, mentions []string) error
	// GetByID returns (nil, nil) when no channel exists.
	GetByID(ctx context.Context, id int64) (*domain.TicketChannel, error)
	// GetByChannelID returns (nil, nil) when no channel exists.
	GetByChannelID(ctx context.Context, channelID string) (*domain.TicketChannel, error)
	List(ctx context.Context) ([]domain.TicketChannel, error)
}

type channelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository instantiates repository.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepository{pool: pool}
}

const channelColumns = `id, channel_id, notice_message_id, notice_heading, notice_description,
        modal_title, ticket_name, ticket_description, mentions, limit_per_user, created_at, updated_at`

func (r *channelRepository) Insert(ctx context.Context, q persistence.Querier, ch *domain.TicketChannel) error {
	const query = `
        INSERT INTO ticket_channels (channel_id, notice_heading, notice_description, modal_title, ticket_name, ticket_description, mentions, limit_per_user)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return q.QueryRow(ctx, query,
		ch.ChannelID,
		ch.NoticeHeading,
		ch.NoticeDescription,
		ch.ModalTitle,
		ch.TicketName,
		ch.TicketDescription,
		ch.Mentions,
		ch.LimitPerUser,
	).Scan(&ch.ID, &ch.CreatedAt, &ch.UpdatedAt)
}

func (r *channelRepository) Update(ctx context.Context, q persistence.Querier, ch *domain.TicketChannel) error {
	const query = `
        UPDATE ticket_channels SET notice_heading=$1, notice_description=$2, modal_title=$3,
            ticket_name=$4, ticket_description=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := q.Exec(ctx, query,
		ch.NoticeHeading,
		ch.NoticeDescription,
		ch.ModalTitle,
		ch.TicketName,
		ch.TicketDescription,
		ch.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *channelRepository) SetNoticeMessage(ctx context.Context, q persistence.Querier, id int64, messageID string) error {
	const query = `UPDATE ticket_channels SET notice_message_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := q.Exec(ctx, query, messageID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *channelRepository) Delete(ctx context.Context, q persistence.Querier, id int64) error {
	cmd, err := q.Exec(ctx, `DELETE FROM ticket_channels WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *channelRepository) Lock(ctx context.Context, q persistence.Querier, id int64) error {
	var locked int64
	err := q.QueryRow(ctx, `SELECT id FROM ticket_channels WHERE id=$1 FOR UPDATE`, id).Scan(&locked)
	return err
}

func (r *channelRepository) SetLimitPerUser(ctx context.Context, id int64, limit int) error {
	const query = `UPDATE ticket_channels SET limit_per_user=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, limit, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *channelRepository) SetMentions(ctx context.Context, id int64, mentions []string) error {
	const query = `UPDATE ticket_channels SET mentions=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, mentions, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *channelRepository) GetByID(ctx context.Context, id int64) (*domain.TicketChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM ticket_channels WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *channelRepository) GetByChannelID(ctx context.Context, channelID string) (*domain.TicketChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM ticket_channels WHERE channel_id=$1`
	return r.fetchSingle(ctx, query, channelID)
}

func (r *channelRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.TicketChannel, error) {
	var ch domain.TicketChannel
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ch.ID,
		&ch.ChannelID,
		&ch.NoticeMessageID,
		&ch.NoticeHeading,
		&ch.NoticeDescription,
		&ch.ModalTitle,
		&ch.TicketName,
		&ch.TicketDescription,
		&ch.Mentions,
		&ch.LimitPerUser,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *channelRepository) List(ctx context.Context) ([]domain.TicketChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM ticket_channels ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketChannel
	for rows.Next() {
		var ch domain.TicketChannel
		if err := rows.Scan(
			&ch.ID,
			&ch.ChannelID,
			&ch.NoticeMessageID,
			&ch.NoticeHeading,
			&ch.NoticeDescription,
			&ch.ModalTitle,
			&ch.TicketName,
			&ch.TicketDescription,
			&ch.Mentions,
			&ch.LimitPerUser,
			&ch.CreatedAt,
			&ch.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ch)
	}
	return result, rows.Err()
}
