package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arcede/tickets/internal/events"
	"github.com/arcede/tickets/internal/ticket"
)

// NotificationWorker mirrors lifecycle events into the guild's configured
// logs channel via the gateway. Everything here is best effort: a failed
// announcement is logged and dropped.
type NotificationWorker struct {
	service   *ticket.Service
	announcer Announcer
	logger    *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(service *ticket.Service, announcer Announcer, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{service: service, announcer: announcer, logger: logger}
}

// Register subscribes the worker to lifecycle events.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, w.handle)
	dispatcher.Subscribe(events.EventTicketClosed, w.handle)
	dispatcher.Subscribe(events.EventTicketReopened, w.handle)
	dispatcher.Subscribe(events.EventTicketClaimed, w.handle)
}

func (w *NotificationWorker) handle(ctx context.Context, event events.Event) error {
	w.logger.Info("ticket event",
		zap.String("type", string(event.Type)),
		zap.String("guild_id", event.GuildID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID),
	)

	if w.announcer == nil {
		return nil
	}
	logsChannel := w.service.LogsChannelID(ctx, event.GuildID)
	if logsChannel == nil {
		return nil
	}

	text := fmt.Sprintf("%s: ticket %s by %s", event.Type, event.TicketID, event.ActorID)
	if err := w.announcer.Announce(*logsChannel, text); err != nil {
		w.logger.Warn("announce ticket event", zap.Error(err), zap.String("ticket_id", event.TicketID))
	}
	return nil
}
