package reply

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/arcede/tickets/internal/config"
)

const systemPrompt = "You are a support assistant inside a community ticket system. " +
	"Reply helpfully and briefly, suggest concrete troubleshooting steps when possible, " +
	"and encourage the user to request a human support agent when the issue needs one."

// OpenAIResponder generates replies with a chat-completion model,
// keeping a short per-ticket conversation window in Redis so follow-up
// messages carry context across process restarts.
type OpenAIResponder struct {
	client *openai.Client
	redis  *redis.Client
	cfg    config.ReplyConfig
	logger *zap.Logger
}

type exchange struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewOpenAIResponder constructs the responder. The Redis client may be
// nil, in which case replies are generated without history.
func NewOpenAIResponder(cfg config.ReplyConfig, redisClient *redis.Client, logger *zap.Logger) (*OpenAIResponder, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &OpenAIResponder{
		client: openai.NewClient(cfg.OpenAIAPIKey),
		redis:  redisClient,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (r *OpenAIResponder) Respond(ctx context.Context, req Request) (string, error) {
	if r.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RequestTimeout)
		defer cancel()
	}

	history := r.loadHistory(ctx, req.TicketID)

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf("%s\nTicket: %s\nCategory: %s", systemPrompt, req.TicketID, req.Reason),
	})
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.cfg.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	answer := Truncate(resp.Choices[0].Message.Content, r.cfg.MaxLength)
	r.storeHistory(ctx, req.TicketID, append(history,
		exchange{Role: openai.ChatMessageRoleUser, Content: req.Message},
		exchange{Role: openai.ChatMessageRoleAssistant, Content: answer},
	))
	return answer, nil
}

func (r *OpenAIResponder) loadHistory(ctx context.Context, ticketID string) []exchange {
	if r.redis == nil {
		return nil
	}
	raw, err := r.redis.Get(ctx, historyKey(ticketID)).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("load reply context", zap.Error(err), zap.String("ticket_id", ticketID))
		}
		return nil
	}
	var history []exchange
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil
	}
	return history
}

func (r *OpenAIResponder) storeHistory(ctx context.Context, ticketID string, history []exchange) {
	if r.redis == nil {
		return
	}
	if window := r.cfg.ContextWindow * 2; window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, historyKey(ticketID), raw, r.cfg.ContextTTL).Err(); err != nil {
		r.logger.Warn("store reply context", zap.Error(err), zap.String("ticket_id", ticketID))
	}
}

func historyKey(ticketID string) string {
	return "reply:context:" + ticketID
}
