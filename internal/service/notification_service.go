package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/persistence"
)

// NotificationService mirrors lifecycle events to the operations side: each
// event is logged and pushed onto a Redis list for external consumers.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every lifecycle event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventChannelCreated,
		events.EventChannelUpdated,
		events.EventChannelDeleted,
		events.EventTicketOpened,
		events.EventTicketClosed,
		events.EventTicketReopened,
	} {
		n.dispatcher.Subscribe(eventType, n.handleEvent)
	}
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("lifecycle event",
		zap.String("event_type", string(event.Type)),
		zap.Int64("channel_id", event.ChannelID),
		zap.Int64("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.UserID))

	n.enqueue(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event) {
	if n.redis == nil || strings.TrimSpace(n.cfg.QueueKey) == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal lifecycle event", zap.Error(err))
		return
	}
	if err := n.redis.Client.LPush(ctx, n.cfg.QueueKey, payload).Err(); err != nil {
		n.logger.Error("enqueue lifecycle event",
			zap.String("queue", n.cfg.QueueKey),
			zap.Error(err))
	}
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
