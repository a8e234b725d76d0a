package auditlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryLog keeps records in process memory for local/dev use.
type InMemoryLog struct {
	mu      sync.RWMutex
	records []TurnRecord
}

func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

func (l *InMemoryLog) Append(_ context.Context, record TurnRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return nil
}

func (l *InMemoryLog) Recent(_ context.Context, limit int) ([]TurnRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > len(l.records) {
		limit = len(l.records)
	}
	out := make([]TurnRecord, 0, limit)
	for i := len(l.records) - 1; i >= len(l.records)-limit; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

func (l *InMemoryLog) Close() error { return nil }
