package ticket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arcede/tickets/internal/config"
	"github.com/arcede/tickets/internal/domain"
	"github.com/arcede/tickets/internal/events"
	"github.com/arcede/tickets/internal/provision"
	"github.com/arcede/tickets/internal/repository"
)

// In-memory store fakes mirroring the SQL repositories' contracts,
// including their concurrency semantics: the counter increments and the
// conditional claim run under a single lock, like the single-statement
// queries they stand in for.

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*domain.GuildSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[string]*domain.GuildSettings)}
}

func (r *fakeSettingsRepo) row(guildID string) *domain.GuildSettings {
	s, ok := r.settings[guildID]
	if !ok {
		s = &domain.GuildSettings{GuildID: guildID, AIEnabled: true, CreatedAt: time.Now()}
		r.settings[guildID] = s
	}
	return s
}

func (r *fakeSettingsRepo) Get(_ context.Context, guildID string) (*domain.GuildSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[guildID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSettingsRepo) EnsureExists(_ context.Context, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.row(guildID)
	return nil
}

func (r *fakeSettingsRepo) NextTicketCounter(_ context.Context, guildID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.row(guildID)
	s.TicketCounter++
	return s.TicketCounter, nil
}

func (r *fakeSettingsRepo) SetTicketCategory(_ context.Context, guildID, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.row(guildID).TicketCategoryID = &categoryID
	return nil
}

func (r *fakeSettingsRepo) SetLogsChannel(_ context.Context, guildID, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.row(guildID).LogsChannelID = &channelID
	return nil
}

func (r *fakeSettingsRepo) SetAIEnabled(_ context.Context, guildID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.row(guildID).AIEnabled = enabled
	return nil
}

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[string][]domain.SupportRole
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[string][]domain.SupportRole)}
}

func (r *fakeRoleRepo) Add(_ context.Context, role *domain.SupportRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles[role.GuildID] {
		if existing.RoleID == role.RoleID {
			return nil
		}
	}
	role.AddedAt = time.Now()
	r.roles[role.GuildID] = append(r.roles[role.GuildID], *role)
	return nil
}

func (r *fakeRoleRepo) Remove(_ context.Context, guildID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.roles[guildID]
	for i, role := range list {
		if role.RoleID == roleID {
			r.roles[guildID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeRoleRepo) ListByGuild(_ context.Context, guildID string) ([]domain.SupportRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SupportRole{}, r.roles[guildID]...), nil
}

type fakeTicketRepo struct {
	mu        sync.Mutex
	byChannel map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byChannel: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byChannel[t.ChannelID]; exists {
		return errors.New("duplicate channel id")
	}
	t.CreatedAt = time.Now()
	copied := *t
	r.byChannel[t.ChannelID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByChannel(_ context.Context, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) GetByTicketID(_ context.Context, guildID, ticketID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byChannel {
		if t.GuildID == guildID && t.TicketID == ticketID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListOpen(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var open []domain.Ticket
	for _, t := range r.byChannel {
		if t.Status == domain.TicketStatusOpen {
			open = append(open, *t)
		}
	}
	return open, nil
}

func (r *fakeTicketRepo) Close(_ context.Context, channelID string, closedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok || t.Status != domain.TicketStatusOpen {
		return false, nil
	}
	t.Status = domain.TicketStatusClosed
	t.ClosedAt = &closedAt
	return true, nil
}

func (r *fakeTicketRepo) Reopen(_ context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Status = domain.TicketStatusOpen
	t.ClosedAt = nil
	return nil
}

func (r *fakeTicketRepo) Claim(_ context.Context, channelID, userID string, claimedAt time.Time) (repository.ClaimResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return repository.ClaimResult{}, pgx.ErrNoRows
	}
	if t.ClaimedBy != nil {
		return repository.ClaimResult{Claimed: false, ClaimedBy: *t.ClaimedBy}, nil
	}
	t.ClaimedBy = &userID
	t.ClaimedAt = &claimedAt
	return repository.ClaimResult{Claimed: true, ClaimedBy: userID}, nil
}

func (r *fakeTicketRepo) CountByGuild(_ context.Context, guildID string) (domain.GuildTicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats domain.GuildTicketStats
	for _, t := range r.byChannel {
		if t.GuildID != guildID {
			continue
		}
		stats.Total++
		if t.Status == domain.TicketStatusOpen {
			stats.Open++
		} else {
			stats.Closed++
		}
	}
	return stats, nil
}

type fakeStatsRepo struct {
	mu    sync.Mutex
	stats map[string]*domain.UserStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[string]*domain.UserStats)}
}

func (r *fakeStatsRepo) row(userID, guildID string) *domain.UserStats {
	key := userID + "|" + guildID
	s, ok := r.stats[key]
	if !ok {
		s = &domain.UserStats{UserID: userID, GuildID: guildID}
		r.stats[key] = s
	}
	return s
}

func (r *fakeStatsRepo) IncrementOpened(_ context.Context, userID, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.row(userID, guildID)
	s.TicketsOpened++
	now := time.Now()
	s.LastTicketAt = &now
	return nil
}

func (r *fakeStatsRepo) IncrementClosed(_ context.Context, userID, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.row(userID, guildID).TicketsClosed++
	return nil
}

func (r *fakeStatsRepo) Get(_ context.Context, userID, guildID string) (*domain.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[userID+"|"+guildID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

type fakeChatLogRepo struct {
	mu      sync.Mutex
	nextSeq int64
	entries map[string][]domain.ChatLogEntry
	// clock stamps appended entries; defaults to time.Now so tests can
	// pin it to force timestamp collisions.
	clock func() time.Time
}

func newFakeChatLogRepo() *fakeChatLogRepo {
	return &fakeChatLogRepo{entries: make(map[string][]domain.ChatLogEntry), clock: time.Now}
}

func (r *fakeChatLogRepo) Append(_ context.Context, entry *domain.ChatLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	entry.Seq = r.nextSeq
	entry.Timestamp = r.clock()
	key := entry.GuildID + "|" + entry.TicketID
	r.entries[key] = append(r.entries[key], *entry)
	return nil
}

func (r *fakeChatLogRepo) ListByTicket(_ context.Context, guildID, ticketID string) ([]domain.ChatLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChatLogEntry{}, r.entries[guildID+"|"+ticketID]...), nil
}

// fakeProvisioner simulates the gateway. Channel ids are allocated
// sequentially; failure modes are toggled per call site.
type fakeProvisioner struct {
	mu          sync.Mutex
	nextID      int
	categories  map[string]string
	channels    []provision.ChannelRequest
	permissions map[string]bool

	failCreateChannel  bool
	failCreateCategory bool
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		categories:  make(map[string]string),
		permissions: make(map[string]bool),
	}
}

func (p *fakeProvisioner) CreateCategory(_ context.Context, guildID, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCreateCategory {
		return "", errors.New("gateway unavailable")
	}
	p.nextID++
	id := fmt.Sprintf("cat-%d", p.nextID)
	p.categories[id] = guildID + "/" + name
	return id, nil
}

func (p *fakeProvisioner) FetchCategory(_ context.Context, _, categoryID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.categories[categoryID]; !ok {
		return "", provision.ErrCategoryNotFound
	}
	return categoryID, nil
}

func (p *fakeProvisioner) CreateTicketChannel(_ context.Context, req provision.ChannelRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCreateChannel {
		return "", errors.New("gateway unavailable")
	}
	p.nextID++
	p.channels = append(p.channels, req)
	return fmt.Sprintf("chan-%d", p.nextID), nil
}

func (p *fakeProvisioner) SetSendPermission(_ context.Context, channelID, userID string, allowed bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.permissions[channelID+"|"+userID] = allowed
	return nil
}

func (p *fakeProvisioner) sendAllowed(channelID, userID string) (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	allowed, ok := p.permissions[channelID+"|"+userID]
	return allowed, ok
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fixture bundles a service wired to fakes with a controllable clock.
type fixture struct {
	svc         *Service
	settings    *fakeSettingsRepo
	roles       *fakeRoleRepo
	tickets     *fakeTicketRepo
	stats       *fakeStatsRepo
	chatLogs    *fakeChatLogRepo
	provisioner *fakeProvisioner
	dispatcher  *recordingDispatcher

	mu  sync.Mutex
	now time.Time
}

func newFixture() *fixture {
	f := &fixture{
		settings:    newFakeSettingsRepo(),
		roles:       newFakeRoleRepo(),
		tickets:     newFakeTicketRepo(),
		stats:       newFakeStatsRepo(),
		chatLogs:    newFakeChatLogRepo(),
		provisioner: newFakeProvisioner(),
		dispatcher:  &recordingDispatcher{},
		now:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(testTicketConfig(), Dependencies{
		SettingsRepo: f.settings,
		RoleRepo:     f.roles,
		TicketRepo:   f.tickets,
		StatsRepo:    f.stats,
		ChatLogRepo:  f.chatLogs,
		Provisioner:  f.provisioner,
		Dispatcher:   f.dispatcher,
	})
	f.svc.now = f.clock
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) addSupportRole(guildID, roleID string) {
	_ = f.roles.Add(context.Background(), &domain.SupportRole{
		GuildID: guildID, RoleID: roleID, RoleName: "Support",
	})
}

func testTicketConfig() config.TicketConfig {
	return config.TicketConfig{
		CooldownSeconds:  60,
		CounterPrefix:    "TICKET-",
		CounterWidth:     4,
		CategoryName:     "tickets",
		LogsChannelName:  "ticket-logs",
		ChannelNameLimit: 100,
	}
}

func member(userID, tag string, roleIDs ...string) domain.Actor {
	return domain.Actor{UserID: userID, Tag: tag, RoleIDs: roleIDs}
}

func supporter(userID, tag, roleID string) domain.Actor {
	return domain.Actor{UserID: userID, Tag: tag, RoleIDs: []string{roleID}}
}
