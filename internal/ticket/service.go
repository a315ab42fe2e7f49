package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/arcede/tickets/internal/config"
	"github.com/arcede/tickets/internal/domain"
	"github.com/arcede/tickets/internal/events"
	"github.com/arcede/tickets/internal/observability"
	"github.com/arcede/tickets/internal/provision"
	"github.com/arcede/tickets/internal/repository"
	"github.com/arcede/tickets/pkg/util"
)

// Service coordinates the ticket lifecycle: creation, close, reopen,
// claim, chat logging, and transcript retrieval. It is stateless between
// calls except for the cooldown guard and the active-ticket index, both
// rebuildable from the store.
type Service struct {
	settings    repository.GuildSettingsRepository
	roles       repository.SupportRoleRepository
	tickets     repository.TicketRepository
	stats       repository.UserStatsRepository
	chatLogs    repository.ChatLogRepository
	provisioner provision.ChannelProvisioner
	dispatcher  events.Dispatcher
	transcripts *TranscriptBuilder
	cooldowns   *CooldownGuard
	logger      *zap.Logger
	metrics     *observability.Metrics
	cfg         config.TicketConfig

	mu     sync.RWMutex
	active map[string]activeTicket

	now func() time.Time
}

// activeTicket is the in-memory index entry for one open ticket channel.
type activeTicket struct {
	ticketID    string
	guildID     string
	requesterID string
	reason      domain.TicketReason
}

// Dependencies bundles collaborators for the lifecycle service.
type Dependencies struct {
	SettingsRepo repository.GuildSettingsRepository
	RoleRepo     repository.SupportRoleRepository
	TicketRepo   repository.TicketRepository
	StatsRepo    repository.UserStatsRepository
	ChatLogRepo  repository.ChatLogRepository
	Provisioner  provision.ChannelProvisioner
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewService constructs the service.
func NewService(cfg config.TicketConfig, deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings:    deps.SettingsRepo,
		roles:       deps.RoleRepo,
		tickets:     deps.TicketRepo,
		stats:       deps.StatsRepo,
		chatLogs:    deps.ChatLogRepo,
		provisioner: deps.Provisioner,
		dispatcher:  deps.Dispatcher,
		transcripts: NewTranscriptBuilder(deps.TicketRepo, deps.ChatLogRepo),
		cooldowns:   NewCooldownGuard(cfg.Cooldown()),
		logger:      logger,
		metrics:     deps.Metrics,
		cfg:         cfg,
		active:      make(map[string]activeTicket),
		now:         time.Now,
	}
}

// RebuildActiveIndex repopulates the active-ticket index from the store.
// Called once at startup; the store remains authoritative throughout.
func (s *Service) RebuildActiveIndex(ctx context.Context) error {
	open, err := s.tickets.ListOpen(ctx)
	if err != nil {
		return util.NewStoreError(err)
	}

	s.mu.Lock()
	s.active = make(map[string]activeTicket, len(open))
	for _, t := range open {
		s.active[t.ChannelID] = activeTicket{
			ticketID:    t.TicketID,
			guildID:     t.GuildID,
			requesterID: t.RequesterID,
			reason:      t.Reason,
		}
	}
	s.mu.Unlock()

	s.logger.Info("active ticket index rebuilt", zap.Int("open_tickets", len(open)))
	return nil
}

// CreateTicket opens a new ticket for the requester: cooldown check,
// sequence allocation, channel provisioning, then the durable insert.
// Nothing is persisted for the ticket itself if provisioning fails; a
// counter gap is acceptable, a duplicate id is not.
func (s *Service) CreateTicket(ctx context.Context, guildID string, requester domain.Actor, reason domain.TicketReason) (*domain.Ticket, error) {
	if !domain.ValidReason(reason) {
		return nil, util.NewValidationError("unknown ticket reason", map[string]any{"reason": reason})
	}

	if remaining, ok := s.cooldowns.CheckAndRecord(guildID, requester.UserID, s.now()); !ok {
		s.metrics.RecordOperation("create", "rate_limited")
		return nil, util.NewRateLimited(remaining)
	}

	counter, err := s.settings.NextTicketCounter(ctx, guildID)
	if err != nil {
		return nil, util.NewStoreError(err)
	}
	ticketID := fmt.Sprintf("%s%0*d", s.cfg.CounterPrefix, s.cfg.CounterWidth, counter)

	settings, err := s.settings.Get(ctx, guildID)
	if err != nil {
		return nil, util.NewStoreError(err)
	}

	categoryID, err := s.resolveCategory(ctx, settings)
	if err != nil {
		s.metrics.RecordOperation("create", "provisioning_failed")
		return nil, util.NewProvisioningFailed(err)
	}

	supportRoles, err := s.roles.ListByGuild(ctx, guildID)
	if err != nil {
		return nil, util.NewStoreError(err)
	}
	roleIDs := make([]string, 0, len(supportRoles))
	for _, role := range supportRoles {
		roleIDs = append(roleIDs, role.RoleID)
	}

	channelID, err := s.provisioner.CreateTicketChannel(ctx, provision.ChannelRequest{
		GuildID:      guildID,
		CategoryID:   categoryID,
		Name:         s.channelName(requester, counter),
		Topic:        fmt.Sprintf("%s - %s - %s", ticketID, requester.Tag, reason),
		RequesterID:  requester.UserID,
		SupportRoles: roleIDs,
	})
	if err != nil {
		s.metrics.RecordOperation("create", "provisioning_failed")
		return nil, util.NewProvisioningFailed(err)
	}

	t := &domain.Ticket{
		TicketID:     ticketID,
		ChannelID:    channelID,
		GuildID:      guildID,
		RequesterID:  requester.UserID,
		RequesterTag: requester.Tag,
		Reason:       reason,
		Status:       domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, util.NewStoreError(err)
	}
	if err := s.stats.IncrementOpened(ctx, requester.UserID, guildID); err != nil {
		s.logger.Error("increment opened stats", zap.Error(err), zap.String("ticket_id", ticketID))
	}

	s.mu.Lock()
	s.active[channelID] = activeTicket{
		ticketID:    ticketID,
		guildID:     guildID,
		requesterID: requester.UserID,
		reason:      reason,
	}
	s.mu.Unlock()

	s.metrics.RecordOperation("create", "ok")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		GuildID:  guildID,
		TicketID: ticketID,
		ActorID:  requester.UserID,
		Payload: events.TicketCreatedPayload{
			ChannelID:    channelID,
			RequesterTag: requester.Tag,
			Reason:       reason,
		},
	})
	return t, nil
}

// CloseTicket transitions an open ticket to closed, credits the closer's
// stats, and revokes the requester's send permission. Closing an
// already-closed ticket is a no-op that never rewrites closedAt.
func (s *Service) CloseTicket(ctx context.Context, channelID string, closer domain.Actor) (*domain.Ticket, error) {
	t, err := s.getByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSupport(ctx, t.GuildID, closer); err != nil {
		s.metrics.RecordOperation("close", "unauthorized")
		return nil, err
	}
	if !t.IsOpen() {
		return t, nil
	}

	closedAt := s.now()
	closed, err := s.tickets.Close(ctx, channelID, closedAt)
	if err != nil {
		return nil, util.NewStoreError(err)
	}
	if !closed {
		// Lost the race to a concurrent close: the transition already
		// happened, so no stats credit and no second event.
		return s.getByChannel(ctx, channelID)
	}
	if err := s.stats.IncrementClosed(ctx, closer.UserID, t.GuildID); err != nil {
		s.logger.Error("increment closed stats", zap.Error(err), zap.String("ticket_id", t.TicketID))
	}

	if err := s.provisioner.SetSendPermission(ctx, channelID, t.RequesterID, false); err != nil {
		s.logger.Warn("revoke send permission", zap.Error(err), zap.String("channel_id", channelID))
	}

	s.mu.Lock()
	delete(s.active, channelID)
	s.mu.Unlock()

	t.Status = domain.TicketStatusClosed
	t.ClosedAt = &closedAt

	s.metrics.RecordOperation("close", "ok")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		GuildID:  t.GuildID,
		TicketID: t.TicketID,
		ActorID:  closer.UserID,
		Payload: events.TicketClosedPayload{
			ChannelID:   channelID,
			RequesterID: t.RequesterID,
		},
	})
	return t, nil
}

// ReopenTicket transitions a closed ticket back to open and restores the
// requester's send permission. The claim, if any, stays in place.
func (s *Service) ReopenTicket(ctx context.Context, channelID string, actor domain.Actor) (*domain.Ticket, error) {
	t, err := s.getByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSupport(ctx, t.GuildID, actor); err != nil {
		s.metrics.RecordOperation("reopen", "unauthorized")
		return nil, err
	}

	if err := s.tickets.Reopen(ctx, channelID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"channel_id": channelID})
		}
		return nil, util.NewStoreError(err)
	}

	if err := s.provisioner.SetSendPermission(ctx, channelID, t.RequesterID, true); err != nil {
		s.logger.Warn("restore send permission", zap.Error(err), zap.String("channel_id", channelID))
	}

	s.mu.Lock()
	s.active[channelID] = activeTicket{
		ticketID:    t.TicketID,
		guildID:     t.GuildID,
		requesterID: t.RequesterID,
		reason:      t.Reason,
	}
	s.mu.Unlock()

	t.Status = domain.TicketStatusOpen
	t.ClosedAt = nil

	s.metrics.RecordOperation("reopen", "ok")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		GuildID:  t.GuildID,
		TicketID: t.TicketID,
		ActorID:  actor.UserID,
		Payload:  events.TicketReopenedPayload{ChannelID: channelID},
	})
	return t, nil
}

// ClaimTicket assigns the ticket to the claimer. The check-and-set runs
// as one conditional store operation: under contention exactly one
// claimant wins and the rest observe AlreadyClaimed. There is no unclaim.
func (s *Service) ClaimTicket(ctx context.Context, channelID string, claimer domain.Actor) (*domain.Ticket, error) {
	t, err := s.getByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSupport(ctx, t.GuildID, claimer); err != nil {
		s.metrics.RecordOperation("claim", "unauthorized")
		return nil, err
	}
	if t.ClaimedBy != nil {
		s.metrics.RecordOperation("claim", "already_claimed")
		return nil, util.NewAlreadyClaimed(*t.ClaimedBy)
	}

	claimedAt := s.now()
	result, err := s.tickets.Claim(ctx, channelID, claimer.UserID, claimedAt)
	if err != nil {
		return nil, util.NewStoreError(err)
	}
	if !result.Claimed {
		s.metrics.RecordOperation("claim", "already_claimed")
		return nil, util.NewAlreadyClaimed(result.ClaimedBy)
	}

	t.ClaimedBy = &claimer.UserID
	t.ClaimedAt = &claimedAt

	s.metrics.RecordOperation("claim", "ok")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClaimed,
		GuildID:  t.GuildID,
		TicketID: t.TicketID,
		ActorID:  claimer.UserID,
		Payload: events.TicketClaimedPayload{
			ChannelID: channelID,
			ClaimedBy: claimer.UserID,
		},
	})
	return t, nil
}

// GetStats returns total/open/closed ticket counts for a guild.
func (s *Service) GetStats(ctx context.Context, guildID string) (domain.GuildTicketStats, error) {
	stats, err := s.tickets.CountByGuild(ctx, guildID)
	if err != nil {
		return domain.GuildTicketStats{}, util.NewStoreError(err)
	}
	return stats, nil
}

// RecordMessage appends a chat-log entry for a channel message. Messages
// in channels without an open ticket are ignored. The append is
// fire-and-forget: failures are logged, never surfaced, because the chat
// surface has already delivered the message.
func (s *Service) RecordMessage(ctx context.Context, channelID string, author domain.Actor, text string) {
	t, err := s.openTicketForChannel(ctx, channelID)
	if err != nil || t == nil {
		if err != nil {
			s.logger.Error("chat log lookup", zap.Error(err), zap.String("channel_id", channelID))
		}
		return
	}

	isSupport, err := s.IsSupport(ctx, t.guildID, author)
	if err != nil {
		s.logger.Error("chat log support check", zap.Error(err), zap.String("channel_id", channelID))
		isSupport = false
	}

	entry := &domain.ChatLogEntry{
		GuildID:   t.guildID,
		TicketID:  t.ticketID,
		AuthorID:  author.UserID,
		AuthorTag: author.Tag,
		Message:   text,
		IsSupport: isSupport,
	}
	if err := s.chatLogs.Append(ctx, entry); err != nil {
		s.logger.Error("chat log append", zap.Error(err), zap.String("ticket_id", t.ticketID))
		return
	}

	s.publish(ctx, events.Event{
		Type:     events.EventMessageLogged,
		GuildID:  t.guildID,
		TicketID: t.ticketID,
		ActorID:  author.UserID,
		Payload: events.MessageLoggedPayload{
			ChannelID: channelID,
			AuthorTag: author.Tag,
			Message:   text,
			IsSupport: isSupport,
			Reason:    t.reason,
		},
	})
}

// RecordReply appends a support-authored entry produced by the reply
// engine. It does not re-trigger the reply flow.
func (s *Service) RecordReply(ctx context.Context, guildID, ticketID, authorID, authorTag, text string) error {
	entry := &domain.ChatLogEntry{
		GuildID:   guildID,
		TicketID:  ticketID,
		AuthorID:  authorID,
		AuthorTag: authorTag,
		Message:   text,
		IsSupport: true,
	}
	if err := s.chatLogs.Append(ctx, entry); err != nil {
		return util.NewStoreError(err)
	}
	return nil
}

// BuildTranscript renders the ordered chat log for a guild's ticket id.
func (s *Service) BuildTranscript(ctx context.Context, guildID, ticketID string) (string, error) {
	return s.transcripts.Build(ctx, guildID, ticketID)
}

// TranscriptByChannel renders the transcript for the ticket bound to a
// channel.
func (s *Service) TranscriptByChannel(ctx context.Context, channelID string) (string, error) {
	t, err := s.getByChannel(ctx, channelID)
	if err != nil {
		return "", err
	}
	return s.transcripts.Build(ctx, t.GuildID, t.TicketID)
}

// IsSupport reports whether the actor may claim/close/reopen tickets:
// either the platform administrator override or membership in one of the
// guild's configured support roles.
func (s *Service) IsSupport(ctx context.Context, guildID string, actor domain.Actor) (bool, error) {
	if actor.IsAdmin {
		return true, nil
	}
	roles, err := s.roles.ListByGuild(ctx, guildID)
	if err != nil {
		return false, util.NewStoreError(err)
	}
	for _, role := range roles {
		for _, held := range actor.RoleIDs {
			if role.RoleID == held {
				return true, nil
			}
		}
	}
	return false, nil
}

// AIEnabled reports whether automated replies are active for a guild.
// Guilds without a settings row default to enabled.
func (s *Service) AIEnabled(ctx context.Context, guildID string) bool {
	settings, err := s.settings.Get(ctx, guildID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("load guild settings", zap.Error(err), zap.String("guild_id", guildID))
		}
		return true
	}
	return settings.AIEnabled
}

func (s *Service) resolveCategory(ctx context.Context, settings *domain.GuildSettings) (string, error) {
	if settings.TicketCategoryID != nil {
		id, err := s.provisioner.FetchCategory(ctx, settings.GuildID, *settings.TicketCategoryID)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, provision.ErrCategoryNotFound) {
			return "", err
		}
		// stale id: fall through and create a fresh category
	}

	id, err := s.provisioner.CreateCategory(ctx, settings.GuildID, s.cfg.CategoryName)
	if err != nil {
		return "", err
	}
	if err := s.settings.SetTicketCategory(ctx, settings.GuildID, id); err != nil {
		s.logger.Error("persist ticket category", zap.Error(err), zap.String("guild_id", settings.GuildID))
	}
	return id, nil
}

func (s *Service) channelName(requester domain.Actor, counter int64) string {
	username := requester.Tag
	if idx := strings.IndexByte(username, '#'); idx > 0 {
		username = username[:idx]
	}
	name := fmt.Sprintf("ticket-%s-%d", strings.ToLower(username), counter)
	if limit := s.cfg.ChannelNameLimit; limit > 0 && len(name) > limit {
		name = name[:limit]
	}
	return name
}

func (s *Service) requireSupport(ctx context.Context, guildID string, actor domain.Actor) error {
	ok, err := s.IsSupport(ctx, guildID, actor)
	if err != nil {
		return err
	}
	if !ok {
		return util.NewUnauthorized("support role or administrator required")
	}
	return nil
}

func (s *Service) getByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	t, err := s.tickets.GetByChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"channel_id": channelID})
		}
		return nil, util.NewStoreError(err)
	}
	return t, nil
}

// openTicketForChannel consults the index first and falls back to the
// store, re-priming the index on a hit. A nil result with nil error means
// the channel has no open ticket.
func (s *Service) openTicketForChannel(ctx context.Context, channelID string) (*activeTicket, error) {
	s.mu.RLock()
	entry, ok := s.active[channelID]
	s.mu.RUnlock()
	if ok {
		return &entry, nil
	}

	t, err := s.tickets.GetByChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !t.IsOpen() {
		return nil, nil
	}

	entry = activeTicket{
		ticketID:    t.TicketID,
		guildID:     t.GuildID,
		requesterID: t.RequesterID,
		reason:      t.Reason,
	}
	s.mu.Lock()
	s.active[channelID] = entry
	s.mu.Unlock()
	return &entry, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
