package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/saga"
)

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

// recordSaga tags a finished workflow run: success, failed-but-compensated,
// or failed with orphaned remote artifacts.
func recordSaga(metrics *observability.Metrics, workflow string, err error) {
	if err == nil {
		metrics.RecordSaga(workflow, "success")
		return
	}
	var sagaErr *saga.Error
	if errors.As(err, &sagaErr) && sagaErr.Compensated() {
		metrics.RecordSaga(workflow, "compensated")
		return
	}
	metrics.RecordSaga(workflow, "failed")
}
