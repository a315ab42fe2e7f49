package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/arcede/tickets/internal/config"
)

// NATSProvisioner fulfils provisioning requests over NATS request/reply
// against the gateway process.
type NATSProvisioner struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

type provisionReply struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

type categoryRequest struct {
	GuildID    string `json:"guild_id"`
	Name       string `json:"name,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

type permissionRequest struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Allowed   bool   `json:"allowed"`
}

type announcement struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// ConnectNATS establishes the gateway connection.
func ConnectNATS(cfg config.NATSConfig, logger *zap.Logger) (*NATSProvisioner, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	logger.Info("connected to nats", zap.String("url", cfg.URL))
	return &NATSProvisioner{
		conn:    conn,
		prefix:  cfg.SubjectPrefix,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}, nil
}

// Close closes the gateway connection.
func (p *NATSProvisioner) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// Ping verifies gateway connectivity.
func (p *NATSProvisioner) Ping() error {
	if p == nil || p.conn == nil || !p.conn.IsConnected() {
		return fmt.Errorf("nats connection unavailable")
	}
	return nil
}

func (p *NATSProvisioner) CreateCategory(ctx context.Context, guildID, name string) (string, error) {
	reply, err := p.request(ctx, p.prefix+".category.create", categoryRequest{GuildID: guildID, Name: name})
	if err != nil {
		return "", err
	}
	return reply.ID, nil
}

func (p *NATSProvisioner) FetchCategory(ctx context.Context, guildID, categoryID string) (string, error) {
	reply, err := p.request(ctx, p.prefix+".category.fetch", categoryRequest{GuildID: guildID, CategoryID: categoryID})
	if err != nil {
		return "", err
	}
	return reply.ID, nil
}

func (p *NATSProvisioner) CreateTicketChannel(ctx context.Context, req ChannelRequest) (string, error) {
	reply, err := p.request(ctx, p.prefix+".channel.create", req)
	if err != nil {
		return "", err
	}
	return reply.ID, nil
}

func (p *NATSProvisioner) SetSendPermission(ctx context.Context, channelID, userID string, allowed bool) error {
	_, err := p.request(ctx, p.prefix+".channel.permission", permissionRequest{
		ChannelID: channelID,
		UserID:    userID,
		Allowed:   allowed,
	})
	return err
}

// Announce publishes a message for the gateway to deliver into a
// channel. Fire-and-forget; delivery is best effort.
func (p *NATSProvisioner) Announce(channelID, text string) error {
	data, err := json.Marshal(announcement{ChannelID: channelID, Text: text})
	if err != nil {
		return err
	}
	return p.conn.Publish(p.prefix+".announce", data)
}

func (p *NATSProvisioner) request(ctx context.Context, subject string, payload any) (*provisionReply, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	reqCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg, err := p.conn.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("gateway request %s: %w", subject, err)
	}

	var reply provisionReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("gateway reply %s: %w", subject, err)
	}
	if !reply.OK {
		if reply.Code == "not_found" {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("gateway %s: %s", subject, reply.Error)
	}
	return &reply, nil
}
