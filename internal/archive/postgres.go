package archive

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRetriever queries a pgvector-backed documents table by cosine
// distance.
type PostgresRetriever struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewPostgresRetriever(ctx context.Context, databaseURL string, embedder Embedder) (*PostgresRetriever, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool, embedder.Dimension()); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRetriever{pool: pool, embedder: embedder}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`, dim),
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init archive schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Index embeds and inserts documents into the corpus table.
func (r *PostgresRetriever) Index(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		vec, err := r.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("index %q: %w", doc.Title, err)
		}
		_, err = r.pool.Exec(ctx,
			`INSERT INTO documents (id, content, title, date, embedding)
			 VALUES ($1, $2, $3, $4, $5::vector)
			 ON CONFLICT (id) DO NOTHING`,
			uuid.NewString(), doc.Content, doc.Title, doc.Date, vectorLiteral(vec),
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return nil
}

func (r *PostgresRetriever) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	qvec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT content, title, date, 1 - (embedding <=> $1::vector) AS score
		 FROM documents
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1::vector, created_at, id
		 LIMIT $2`,
		vectorLiteral(qvec), k,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make([]Passage, 0, k)
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.Content, &p.Title, &p.Date, &p.Score); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRetriever) Close() error {
	r.pool.Close()
	return nil
}

func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
