// Package saga runs ordered multi-system workflows as compensating
// transactions. Store mutations ride the surrounding database transaction
// and are undone by rollback; external calls carry an explicit compensating
// action that reverses their side effect when a later step fails.
package saga

import (
	"context"
	"fmt"
	"strings"
)

// Tx is the transactional scope a saga executes inside. Satisfied by pgx.Tx.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Step is one unit of work. Steps execute strictly in order because later
// steps commonly depend on identifiers produced by earlier ones.
type Step struct {
	// Name tags the step in failure reports.
	Name string

	Run func(ctx context.Context) error

	// Compensate reverses the external side effect of Run. Nil for steps
	// whose only effect is a store mutation undone by rollback. Compensating
	// actions must tolerate a partially applied forward action: undoing
	// something that is already gone is success, not an error.
	Compensate func(ctx context.Context) error
}

// CompensationError records a failed undo of a completed step. It indicates
// an orphaned remote artifact needing manual or retried cleanup.
type CompensationError struct {
	Step string
	Err  error
}

// Error reports a failed saga: the step that failed, its cause, and every
// compensation that itself failed. Compensation failures are never dropped.
type Error struct {
	Step               string
	Err                error
	CompensationErrors []CompensationError
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "saga step %q failed: %v", e.Step, e.Err)
	for _, ce := range e.CompensationErrors {
		fmt.Fprintf(&b, "; compensation %q failed: %v", ce.Step, ce.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compensated reports whether every compensating action succeeded.
func (e *Error) Compensated() bool {
	return len(e.CompensationErrors) == 0
}

// Run executes steps in order inside tx. On the first failing step it
// invokes the compensating actions of all previously completed steps in
// reverse order, rolls the transaction back, and returns an *Error. On
// success it commits and returns nil.
func Run(ctx context.Context, tx Tx, steps ...Step) error {
	var completed []Step
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			return unwind(ctx, tx, step.Name, err, completed, true)
		}
		if step.Compensate != nil {
			completed = append(completed, step)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		// The transaction is finished either way; only external effects
		// remain to undo.
		return unwind(ctx, tx, "commit", err, completed, false)
	}
	return nil
}

func unwind(ctx context.Context, tx Tx, step string, cause error, completed []Step, rollback bool) error {
	sagaErr := &Error{Step: step, Err: cause}
	for i := len(completed) - 1; i >= 0; i-- {
		if err := completed[i].Compensate(ctx); err != nil {
			sagaErr.CompensationErrors = append(sagaErr.CompensationErrors, CompensationError{
				Step: completed[i].Name,
				Err:  err,
			})
		}
	}
	if rollback {
		if err := tx.Rollback(ctx); err != nil {
			sagaErr.CompensationErrors = append(sagaErr.CompensationErrors, CompensationError{
				Step: "rollback",
				Err:  err,
			})
		}
	}
	return sagaErr
}
