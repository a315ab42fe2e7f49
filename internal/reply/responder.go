// Package reply implements the automated first-response engine for
// ticket channels. The lifecycle core only depends on the Responder
// interface; the matching strategy behind it is swappable.
package reply

import (
	"context"

	"github.com/arcede/tickets/internal/domain"
)

// Request carries the ticket context for one inbound message.
type Request struct {
	GuildID  string
	TicketID string
	Reason   domain.TicketReason
	Message  string
}

// Responder produces a best-effort automated reply. An empty string with
// a nil error means no reply should be sent.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// Truncate caps a reply at max bytes, appending an ellipsis when cut.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
