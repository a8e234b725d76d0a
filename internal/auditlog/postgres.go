package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLog persists interaction history in PostgreSQL.
type PostgresLog struct {
	pool *pgxpool.Pool
}

func NewPostgresLog(ctx context.Context, databaseURL string) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresLog{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interaction_history (
			id TEXT PRIMARY KEY,
			headmaster_id TEXT NOT NULL,
			user_query TEXT NOT NULL,
			assistant_response TEXT NOT NULL,
			fact_check TEXT NOT NULL DEFAULT '',
			period_validation TEXT NOT NULL DEFAULT '',
			citation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interaction_history_created ON interaction_history (created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init audit schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (l *PostgresLog) Append(ctx context.Context, record TurnRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := l.pool.Exec(ctx,
		`INSERT INTO interaction_history
		 (id, headmaster_id, user_query, assistant_response, fact_check, period_validation, citation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID,
		record.HeadmasterID,
		record.UserQuery,
		record.AssistantResponse,
		record.FactCheck,
		record.PeriodValidation,
		record.Citation,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append turn record: %w", err)
	}
	return nil
}

func (l *PostgresLog) Recent(ctx context.Context, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, headmaster_id, user_query, assistant_response, fact_check, period_validation, citation, created_at
		 FROM interaction_history ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query interaction history: %w", err)
	}
	defer rows.Close()

	items := make([]TurnRecord, 0, limit)
	for rows.Next() {
		var r TurnRecord
		if err := rows.Scan(&r.ID, &r.HeadmasterID, &r.UserQuery, &r.AssistantResponse,
			&r.FactCheck, &r.PeriodValidation, &r.Citation, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}
	return items, nil
}

func (l *PostgresLog) Close() error {
	l.pool.Close()
	return nil
}
