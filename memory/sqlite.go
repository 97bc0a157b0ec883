package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spetersoncode/stride"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a persistent Store backed by SQLite with an FTS5 index
// over record queries. Writes are append-only inserts; WAL mode keeps
// concurrent readers from blocking on writers.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and initializes
// the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("memory: open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			query TEXT NOT NULL,
			plan TEXT NOT NULL,
			status TEXT NOT NULL,
			final_answer TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			query,
			final_answer,
			id UNINDEXED,
			tokenize='porter unicode61'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Write appends one record and its FTS entry.
func (s *SQLiteStore) Write(ctx context.Context, rec stride.MemoryRecord) error {
	planJSON, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("memory: marshal plan: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, session_id, query, plan, status, final_answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Query, string(planJSON), string(rec.Status), rec.FinalAnswer, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("memory: insert record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records_fts (query, final_answer, id) VALUES (?, ?, ?)`,
		rec.Query, rec.FinalAnswer, rec.ID)
	if err != nil {
		return fmt.Errorf("memory: insert fts: %w", err)
	}

	return tx.Commit()
}

// Query runs a full-text search with BM25 ranking and returns up to topK
// records, most relevant first.
func (s *SQLiteStore) Query(ctx context.Context, text string, topK int) ([]stride.MemoryRecord, error) {
	if topK <= 0 {
		topK = 5
	}

	match := ftsQuery(text)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.session_id, r.query, r.plan, r.status, r.final_answer, r.created_at
		 FROM records_fts f
		 JOIN records r ON r.id = f.id
		 WHERE records_fts MATCH ?
		 ORDER BY f.rank
		 LIMIT ?`, match, topK)
	if err != nil {
		return nil, fmt.Errorf("memory: fts query: %w", err)
	}
	defer rows.Close()

	var out []stride.MemoryRecord
	for rows.Next() {
		var rec stride.MemoryRecord
		var planJSON, status string
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Query, &planJSON, &status, &rec.FinalAnswer, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(planJSON), &rec.Plan); err != nil {
			return nil, fmt.Errorf("memory: unmarshal plan for %s: %w", rec.ID, err)
		}
		rec.Status = stride.Status(status)
		rec.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ftsQuery turns free text into an FTS5 OR-query of quoted tokens, so
// user text can never inject FTS syntax.
func ftsQuery(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, " OR ")
}
