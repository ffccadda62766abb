package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/persistence"
)

// AnswerRepository encapsulates field answer persistence. Answers are an
// immutable record of what was asked and answered at ticket-open time.
type AnswerRepository interface {
	Insert(ctx context.Context, q persistence.Querier, a *domain.Answer) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Answer, error)
}

type answerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository instantiates repository.
func NewAnswerRepository(pool *pgxpool.Pool) AnswerRepository {
	return &answerRepository{pool: pool}
}

func (r *answerRepository) Insert(ctx context.Context, q persistence.Querier, a *domain.Answer) error {
	const query = `
        INSERT INTO ticket_answers (ticket_id, field_id, value)
        VALUES ($1,$2,$3)
        RETURNING id`
	return q.QueryRow(ctx, query, a.TicketID, a.FieldID, a.Value).Scan(&a.ID)
}

func (r *answerRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Answer, error) {
	const query = `SELECT id, ticket_id, field_id, value FROM ticket_answers WHERE ticket_id=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.TicketID, &a.FieldID, &a.Value); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
