package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arcede/tickets/internal/repository"
	"github.com/arcede/tickets/pkg/util"
)

const transcriptRule = "=================================================="

// TranscriptBuilder replays a ticket's chat log into an ordered,
// human-readable document. Output is deterministic for the same log
// content and is never truncated here; delivery-size limits are the
// caller's concern.
type TranscriptBuilder struct {
	tickets  repository.TicketRepository
	chatLogs repository.ChatLogRepository
}

// NewTranscriptBuilder constructs the builder.
func NewTranscriptBuilder(tickets repository.TicketRepository, chatLogs repository.ChatLogRepository) *TranscriptBuilder {
	return &TranscriptBuilder{tickets: tickets, chatLogs: chatLogs}
}

// Build renders the transcript for a ticket id within one guild.
func (b *TranscriptBuilder) Build(ctx context.Context, guildID, ticketID string) (string, error) {
	t, err := b.tickets.GetByTicketID(ctx, guildID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", util.NewNotFound("ticket", map[string]any{"guild_id": guildID, "ticket_id": ticketID})
		}
		return "", util.NewStoreError(err)
	}

	entries, err := b.chatLogs.ListByTicket(ctx, guildID, ticketID)
	if err != nil {
		return "", util.NewStoreError(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ticket transcript %s\n", t.TicketID)
	sb.WriteString(transcriptRule + "\n")
	fmt.Fprintf(&sb, "Requester: %s\n", t.RequesterTag)
	fmt.Fprintf(&sb, "Reason: %s\n", t.Reason)
	fmt.Fprintf(&sb, "Created: %s\n", formatTimestamp(t.CreatedAt))
	if t.ClosedAt != nil {
		fmt.Fprintf(&sb, "Closed: %s\n", formatTimestamp(*t.ClosedAt))
	}
	sb.WriteString(transcriptRule + "\n\n")

	for _, entry := range entries {
		author := "user"
		if entry.IsSupport {
			author = "support"
		}
		fmt.Fprintf(&sb, "[%s] [%s] %s: %s\n",
			entry.Timestamp.UTC().Format("15:04:05"), author, entry.AuthorTag, entry.Message)
	}

	return sb.String(), nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
