package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/parisxmas/leadsite/internal/db"
)

const funnelSchema = `
CREATE TABLE IF NOT EXISTS funnel_hits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_stage ON funnel_hits(stage);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_session_stage ON funnel_hits(session_id, stage);
`

// FunnelRepo records which wizard stages each session reached.
type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(dsn string) (*FunnelRepo, error) {
	conn, err := db.OpenSQLite(dsn, funnelSchema)
	if err != nil {
		return nil, err
	}
	return &FunnelRepo{db: conn}, nil
}

func (r *FunnelRepo) Hit(ctx context.Context, stage, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO funnel_hits(session_id, stage, created_at) VALUES(?,?,?)`, sessionID, stage, time.Now().UTC())
	return err
}

// Counts returns distinct sessions per stage.
func (r *FunnelRepo) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT stage, COUNT(DISTINCT session_id) FROM funnel_hits GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var stage string
		var cnt int
		if err := rows.Scan(&stage, &cnt); err != nil {
			return nil, err
		}
		out[stage] = cnt
	}
	return out, rows.Err()
}

func (r *FunnelRepo) Close() error {
	return r.db.Close()
}

// MemoryFunnelRepo keeps funnel hits in process memory. It backs the funnel
// when funnel_store is "memory"; counts reset on restart.
type MemoryFunnelRepo struct {
	mu     sync.RWMutex
	stages map[string]map[string]struct{}
}

func NewMemoryFunnelRepo() *MemoryFunnelRepo {
	return &MemoryFunnelRepo{stages: make(map[string]map[string]struct{})}
}

func (r *MemoryFunnelRepo) Hit(_ context.Context, stage, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.stages[stage]
	if !ok {
		m = make(map[string]struct{})
		r.stages[stage] = m
	}
	m[sessionID] = struct{}{}
	return nil
}

func (r *MemoryFunnelRepo) Counts(context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.stages))
	for s, set := range r.stages {
		out[s] = len(set)
	}
	return out, nil
}
