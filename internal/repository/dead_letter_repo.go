package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/parisxmas/leadsite/internal/db"
	"github.com/parisxmas/leadsite/internal/models"
)

const deadLetterSchema = `
CREATE TABLE IF NOT EXISTS dead_letters (
    id TEXT PRIMARY KEY,
    lead_id TEXT NOT NULL,
    sink TEXT NOT NULL,
    attempts INTEGER NOT NULL,
    error TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dead_letters_sink ON dead_letters(sink);
`

// DeadLetterRepo stores sink deliveries that exhausted their retries.
type DeadLetterRepo struct {
	db *sql.DB
}

func NewDeadLetterRepo(dsn string) (*DeadLetterRepo, error) {
	conn, err := db.OpenSQLite(dsn, deadLetterSchema)
	if err != nil {
		return nil, err
	}
	return &DeadLetterRepo{db: conn}, nil
}

func (r *DeadLetterRepo) Save(ctx context.Context, dl models.DeadLetter) error {
	if dl.ID == "" {
		dl.ID = uuid.NewString()
	}
	if dl.CreatedAt.IsZero() {
		dl.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dead_letters(id, lead_id, sink, attempts, error, payload, created_at) VALUES(?,?,?,?,?,?,?)`,
		dl.ID, dl.LeadID, dl.Sink, dl.Attempts, dl.Error, dl.Payload, dl.CreatedAt)
	return err
}

func (r *DeadLetterRepo) ListRecent(ctx context.Context, n int) ([]models.DeadLetter, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lead_id, sink, attempts, error, payload, created_at FROM dead_letters ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.DeadLetter, 0, n)
	for rows.Next() {
		var dl models.DeadLetter
		if err := rows.Scan(&dl.ID, &dl.LeadID, &dl.Sink, &dl.Attempts, &dl.Error, &dl.Payload, &dl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

func (r *DeadLetterRepo) CountBySink(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sink, COUNT(*) FROM dead_letters GROUP BY sink`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var sink string
		var cnt int
		if err := rows.Scan(&sink, &cnt); err != nil {
			return nil, err
		}
		out[sink] = cnt
	}
	return out, rows.Err()
}

func (r *DeadLetterRepo) Close() error {
	return r.db.Close()
}
