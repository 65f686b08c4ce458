package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink appends exchanges to a PostgreSQL table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresSink{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bot_exchanges (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			provider TEXT NOT NULL,
			input TEXT NOT NULL,
			reply TEXT NOT NULL,
			failed BOOLEAN NOT NULL DEFAULT FALSE,
			redacted BOOLEAN NOT NULL DEFAULT FALSE,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bot_exchanges_user_created ON bot_exchanges (user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresSink) Record(ctx context.Context, ex Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO bot_exchanges (id, user_id, mode, provider, input, reply, failed, redacted, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ex.ID,
		ex.UserID,
		ex.Mode,
		ex.Provider,
		ex.Input,
		ex.Reply,
		ex.Failed,
		ex.Redacted,
		ex.LatencyMS,
		ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
