package auditlog

import (
	"context"
	"strings"
	"time"
)

// TurnRecord is the immutable audit entry for one completed turn. One
// record exists exactly when the chain produced a reply for that turn;
// validator failures do not prevent record creation, and a degraded turn
// is recorded with the apology as the reply and empty validator fields.
type TurnRecord struct {
	ID                string    `json:"id"`
	HeadmasterID      string    `json:"headmaster_id"`
	UserQuery         string    `json:"user_query"`
	AssistantResponse string    `json:"assistant_response"`
	FactCheck         string    `json:"fact_check"`
	PeriodValidation  string    `json:"period_validation"`
	Citation          string    `json:"citation"`
	CreatedAt         time.Time `json:"created_at"`
}

// Log is the append-only interaction history. The turn pipeline only ever
// appends; Recent exists for the operational browsing endpoint and is never
// consulted by a live turn.
type Log interface {
	Append(ctx context.Context, record TurnRecord) error
	Recent(ctx context.Context, limit int) ([]TurnRecord, error)
	Close() error
}

// NewLog creates a postgres-backed log when configured, otherwise in-memory.
func NewLog(ctx context.Context, databaseURL string) (Log, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryLog(), nil
	}
	return NewPostgresLog(ctx, databaseURL)
}
