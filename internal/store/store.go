// Package store keeps an audit history of classifications in SQLite. The
// navigation engine never reads it back.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("classification not found")

const maxListLimit = 500

const schema = `
CREATE TABLE IF NOT EXISTS classifications (
	id                TEXT PRIMARY KEY,
	item              TEXT NOT NULL,
	model             TEXT NOT NULL DEFAULT '',
	source            TEXT NOT NULL DEFAULT 'api',
	final_code        TEXT NOT NULL,
	final_description TEXT NOT NULL DEFAULT '',
	path_json         TEXT NOT NULL DEFAULT '[]',
	resolved          INTEGER NOT NULL DEFAULT 0,
	oracle_calls      INTEGER NOT NULL DEFAULT 0,
	backtracks        INTEGER NOT NULL DEFAULT 0,
	events            TEXT NOT NULL DEFAULT '[]',
	duration_ms       INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_classifications_created_at ON classifications(created_at);
CREATE INDEX IF NOT EXISTS idx_classifications_final_code ON classifications(final_code);
`

// Record is one stored classification.
type Record struct {
	ID          string             `json:"id"`
	Item        string             `json:"descritivo"`
	Model       string             `json:"model"`
	Source      string             `json:"source"`
	Code        string             `json:"codigo_final"`
	Description string             `json:"descricao_final"`
	Path        []hierarchy.Option `json:"caminho"`
	Resolved    bool               `json:"resolved"`
	OracleCalls int                `json:"oracle_calls"`
	Backtracks  int                `json:"backtracks"`
	Events      []navigate.Event   `json:"events,omitempty"`
	DurationMs  int64              `json:"duration_ms"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewRecord fills a Record from an engine result. ID and CreatedAt are set
// by Save when empty.
func NewRecord(item, model, source string, res navigate.Result, events []navigate.Event, d time.Duration) Record {
	return Record{
		Item:        item,
		Model:       model,
		Source:      source,
		Code:        res.Code,
		Description: res.Description,
		Path:        res.Path,
		Resolved:    res.Resolved,
		OracleCalls: res.Stats.OracleCalls,
		Backtracks:  res.Stats.Backtracks,
		Events:      events,
		DurationMs:  d.Milliseconds(),
	}
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts rec and returns its id.
func (s *Store) Save(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Path == nil {
		rec.Path = []hierarchy.Option{}
	}
	pathJSON, err := json.Marshal(rec.Path)
	if err != nil {
		return "", fmt.Errorf("marshal path: %w", err)
	}
	events := rec.Events
	if events == nil {
		events = []navigate.Event{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("marshal events: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO classifications
		 (id, item, model, source, final_code, final_description, path_json, resolved, oracle_calls, backtracks, events, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Item, rec.Model, rec.Source, rec.Code, rec.Description, string(pathJSON),
		rec.Resolved, rec.OracleCalls, rec.Backtracks, string(eventsJSON), rec.DurationMs, rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert classification: %w", err)
	}
	return rec.ID, nil
}

// Get returns one record including its event trace.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item, model, source, final_code, final_description, path_json, resolved, oracle_calls, backtracks, events, duration_ms, created_at
		 FROM classifications WHERE id = ?`, id)

	rec, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns the most recent records first, without event traces.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, maxListLimit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item, model, source, final_code, final_description, path_json, resolved, oracle_calls, backtracks, '[]', duration_ms, created_at
		 FROM classifications ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner, withEvents bool) (Record, error) {
	var (
		rec        Record
		pathJSON   string
		eventsJSON string
	)
	err := sc.Scan(&rec.ID, &rec.Item, &rec.Model, &rec.Source, &rec.Code, &rec.Description, &pathJSON,
		&rec.Resolved, &rec.OracleCalls, &rec.Backtracks, &eventsJSON, &rec.DurationMs, &rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(pathJSON), &rec.Path); err != nil {
		return Record{}, fmt.Errorf("decode path of %s: %w", rec.ID, err)
	}
	if withEvents {
		if err := json.Unmarshal([]byte(eventsJSON), &rec.Events); err != nil {
			return Record{}, fmt.Errorf("decode events of %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}
