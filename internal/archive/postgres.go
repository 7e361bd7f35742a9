package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/callback"
)

// PostgresStore archives finalized reports in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS honeypot_reports (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			report JSONB NOT NULL,
			delivered BOOLEAN NOT NULL DEFAULT FALSE,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_honeypot_reports_archived ON honeypot_reports (archived_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, record ReportRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.ArchivedAt.IsZero() {
		record.ArchivedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO honeypot_reports (id, session_id, report, delivered, archived_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID,
		record.SessionID,
		payload,
		record.Delivered,
		record.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentReports(ctx context.Context, limit int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, report, delivered, archived_at
		 FROM honeypot_reports ORDER BY archived_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	items := make([]ReportRecord, 0, limit)
	for rows.Next() {
		var r ReportRecord
		var payload []byte
		if err := rows.Scan(&r.ID, &r.SessionID, &payload, &r.Delivered, &r.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		var rep callback.Report
		if err := json.Unmarshal(payload, &rep); err != nil {
			return nil, fmt.Errorf("unmarshal report payload: %w", err)
		}
		r.Report = rep
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
