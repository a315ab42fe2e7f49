package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arcede/tickets/internal/events"
	"github.com/arcede/tickets/internal/reply"
	"github.com/arcede/tickets/internal/ticket"
)

// Identity used for reply-engine authored chat-log entries.
const (
	assistantID  = "assistant"
	assistantTag = "Support Assistant"
)

// ReplyWorker invokes the automated responder for non-support messages
// logged in open tickets. The responder call runs detached from the
// message-handling path: it never blocks logging, and its failures are
// caught and logged without reaching the end user.
type ReplyWorker struct {
	service   *ticket.Service
	responder reply.Responder
	announcer Announcer
	logger    *zap.Logger
	delay     time.Duration
}

// Announcer delivers a text message into a channel, best effort.
type Announcer interface {
	Announce(channelID, text string) error
}

// NewReplyWorker constructs the worker.
func NewReplyWorker(service *ticket.Service, responder reply.Responder, announcer Announcer, delay time.Duration, logger *zap.Logger) *ReplyWorker {
	return &ReplyWorker{
		service:   service,
		responder: responder,
		announcer: announcer,
		logger:    logger,
		delay:     delay,
	}
}

// Register subscribes the worker to logged-message events.
func (w *ReplyWorker) Register(dispatcher events.Dispatcher) {
	if w.responder == nil {
		return
	}
	dispatcher.Subscribe(events.EventMessageLogged, w.handleMessageLogged)
}

func (w *ReplyWorker) handleMessageLogged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageLoggedPayload)
	if !ok || payload.IsSupport {
		return nil
	}
	if !w.service.AIEnabled(ctx, event.GuildID) {
		return nil
	}

	go w.respond(event, payload)
	return nil
}

func (w *ReplyWorker) respond(event events.Event, payload events.MessageLoggedPayload) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("reply worker panic", zap.Any("panic", r), zap.String("ticket_id", event.TicketID))
		}
	}()

	// Detached from the triggering request: fresh context, own lifetime.
	ctx := context.Background()

	if w.delay > 0 {
		time.Sleep(w.delay)
	}

	answer, err := w.responder.Respond(ctx, reply.Request{
		GuildID:  event.GuildID,
		TicketID: event.TicketID,
		Reason:   payload.Reason,
		Message:  payload.Message,
	})
	if err != nil {
		w.logger.Warn("automated reply failed", zap.Error(err), zap.String("ticket_id", event.TicketID))
		return
	}
	if answer == "" {
		return
	}

	if w.announcer != nil {
		if err := w.announcer.Announce(payload.ChannelID, answer); err != nil {
			w.logger.Warn("deliver automated reply", zap.Error(err), zap.String("channel_id", payload.ChannelID))
		}
	}
	if err := w.service.RecordReply(ctx, event.GuildID, event.TicketID, assistantID, assistantTag, answer); err != nil {
		w.logger.Warn("record automated reply", zap.Error(err), zap.String("ticket_id", event.TicketID))
	}
}
