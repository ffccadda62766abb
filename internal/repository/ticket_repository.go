package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/persistence"
)

// TicketClosure bundles the metadata recorded when a ticket closes.
type TicketClosure struct {
	Reason    *string
	ByID      string
	ByName    string
	MessageID string
	At        time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Insert(ctx context.Context, q persistence.Querier, t *domain.Ticket) error
	SetThread(ctx context.Context, q persistence.Querier, id int64, threadID string) error
	Close(ctx context.Context, q persistence.Querier, id int64, closure TicketClosure) error
	// Reopen clears every closure field, leaving the ticket state-wise
	// indistinguishable from one that was never closed.
	Reopen(ctx context.Context, q persistence.Querier, id int64) error
	// CountOpen counts a user's open tickets in a channel. Runs against the
	// given Querier so the create workflow can count under a channel row lock.
	CountOpen(ctx context.Context, q persistence.Querier, channelID int64, userID string) (int, error)
	// GetByThread returns (nil, nil) when no ticket exists for the thread.
	GetByThread(ctx context.Context, threadID string) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListOpenByChannel(ctx context.Context, channelID int64) ([]domain.Ticket, error)
	ListByChannel(ctx context.Context, channelID int64, limit, offset int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, channel_id, opened_by_id, opened_by_name, thread_id,
        closed_reason, closed_by_id, closed_by_name, closed_message_id, closed_at, created_at, updated_at`

func (r *ticketRepository) Insert(ctx context.Context, q persistence.Querier, t *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (channel_id, opened_by_id, opened_by_name)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return q.QueryRow(ctx, query,
		t.ChannelID,
		t.OpenedByID,
		t.OpenedByName,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *ticketRepository) SetThread(ctx context.Context, q persistence.Querier, id int64, threadID string) error {
	const query = `UPDATE tickets SET thread_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := q.Exec(ctx, query, threadID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Close(ctx context.Context, q persistence.Querier, id int64, closure TicketClosure) error {
	const query = `
        UPDATE tickets SET closed_reason=$1, closed_by_id=$2, closed_by_name=$3,
            closed_message_id=$4, closed_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := q.Exec(ctx, query,
		closure.Reason,
		closure.ByID,
		closure.ByName,
		closure.MessageID,
		closure.At,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Reopen(ctx context.Context, q persistence.Querier, id int64) error {
	const query = `
        UPDATE tickets SET closed_reason=NULL, closed_by_id=NULL, closed_by_name=NULL,
            closed_message_id=NULL, closed_at=NULL, updated_at=NOW()
        WHERE id=$1`
	cmd, err := q.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountOpen(ctx context.Context, q persistence.Querier, channelID int64, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE channel_id=$1 AND opened_by_id=$2 AND closed_at IS NULL`
	var count int
	err := q.QueryRow(ctx, query, channelID, userID).Scan(&count)
	return count, err
}

func (r *ticketRepository) GetByThread(ctx context.Context, threadID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE thread_id=$1`
	return r.fetchSingle(ctx, query, threadID)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var t domain.Ticket
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID,
		&t.ChannelID,
		&t.OpenedByID,
		&t.OpenedByName,
		&t.ThreadID,
		&t.ClosedReason,
		&t.ClosedByID,
		&t.ClosedByName,
		&t.ClosedMessageID,
		&t.ClosedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) ListOpenByChannel(ctx context.Context, channelID int64) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE channel_id=$1 AND closed_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByChannel(ctx context.Context, channelID int64, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE channel_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, channelID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(
			&t.ID,
			&t.ChannelID,
			&t.OpenedByID,
			&t.OpenedByName,
			&t.ThreadID,
			&t.ClosedReason,
			&t.ClosedByID,
			&t.ClosedByName,
			&t.ClosedMessageID,
			&t.ClosedAt,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
