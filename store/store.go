// Package store keeps the latest scraped catalog of every set in SQLite,
// alongside a log of runs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aluiziolira/go-scrape-duelmasters/models"
)

// Store is a SQLite-backed catalog.
type Store struct {
	conn *sql.DB
}

// Open creates or opens the catalog database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS cards (
  setKey TEXT NOT NULL,
  no INTEGER NOT NULL,
  rarity TEXT NOT NULL,
  cardId TEXT NOT NULL,
  japaneseName TEXT NOT NULL,
  englishName TEXT NOT NULL,
  civilization TEXT NOT NULL,
  reference TEXT NOT NULL,
  priceYen INTEGER NOT NULL,
  priceSgd REAL NOT NULL,
  qty INTEGER NOT NULL DEFAULT 0,
  runId TEXT NOT NULL,
  scrapedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(setKey, no)
);
CREATE INDEX IF NOT EXISTS idx_cards_cardId ON cards(cardId);

CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL,
  sets INTEGER NOT NULL,
  cards INTEGER NOT NULL,
  requests INTEGER NOT NULL,
  errors INTEGER NOT NULL,
  failedSets TEXT NOT NULL
);
`
	_, err := s.conn.Exec(schema)
	return err
}

// ReplaceSet swaps the stored catalog of one set for records.
func (s *Store) ReplaceSet(runID, setKey string, records []*models.CardRecord) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM cards WHERE setKey = ?`, setKey); err != nil {
		return fmt.Errorf("clear set %s: %w", setKey, err)
	}

	stmt, err := tx.Prepare(`
INSERT INTO cards (
  setKey, no, rarity, cardId, japaneseName, englishName, civilization,
  reference, priceYen, priceSgd, qty, runId
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			setKey, r.No, r.Rarity, r.ID, r.JapaneseName, r.EnglishName, r.Civilization,
			r.Reference, r.PriceYen, r.PriceSGD, r.Qty, runID,
		); err != nil {
			return fmt.Errorf("insert card %d of %s: %w", r.No, setKey, err)
		}
	}

	return tx.Commit()
}

// Cards returns the stored catalog of a set in listing order.
func (s *Store) Cards(setKey string) ([]*models.CardRecord, error) {
	rows, err := s.conn.Query(`
SELECT no, rarity, cardId, japaneseName, englishName, civilization,
       setKey, reference, priceYen, priceSgd, qty
FROM cards WHERE setKey = ? ORDER BY no`, setKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CardRecord
	for rows.Next() {
		var r models.CardRecord
		if err := rows.Scan(
			&r.No, &r.Rarity, &r.ID, &r.JapaneseName, &r.EnglishName, &r.Civilization,
			&r.Set, &r.Reference, &r.PriceYen, &r.PriceSGD, &r.Qty,
		); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// RunRow is a stored run summary.
type RunRow struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Sets       int
	Cards      int
	Requests   int
	Errors     int
	FailedSets []string
}

// RecordRun stores the summary of a finished run.
func (s *Store) RecordRun(result *models.RunResult) error {
	_, err := s.conn.Exec(`
INSERT INTO runs (id, startedAt, finishedAt, sets, cards, requests, errors, failedSets)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  finishedAt=excluded.finishedAt,
  sets=excluded.sets,
  cards=excluded.cards,
  requests=excluded.requests,
  errors=excluded.errors,
  failedSets=excluded.failedSets
`,
		result.RunID,
		result.StartTime.UTC().Format(time.RFC3339Nano),
		result.EndTime.UTC().Format(time.RFC3339Nano),
		len(result.Sets), result.TotalCount, result.RequestCount, result.ErrorCount,
		strings.Join(result.FailedSets(), ","),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", result.RunID, err)
	}
	return nil
}

// Run loads a stored run summary, or nil when id is unknown.
func (s *Store) Run(id string) (*RunRow, error) {
	var (
		row               RunRow
		started, finished string
		failed            string
	)
	err := s.conn.QueryRow(`
SELECT id, startedAt, finishedAt, sets, cards, requests, errors, failedSets
FROM runs WHERE id = ?`, id).Scan(
		&row.ID, &started, &finished, &row.Sets, &row.Cards, &row.Requests, &row.Errors, &failed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if row.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parse startedAt: %w", err)
	}
	if row.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("parse finishedAt: %w", err)
	}
	if failed != "" {
		row.FailedSets = strings.Split(failed, ",")
	}
	return &row, nil
}

// SetWriter buffers one set's records and stores them in a single
// transaction on Close, so a set that fails midway keeps its previous rows.
type SetWriter struct {
	store  *Store
	runID  string
	setKey string

	mu      sync.Mutex
	records []*models.CardRecord
	closed  bool
}

// SetWriter returns an output writer for one set.
func (s *Store) SetWriter(runID, setKey string) *SetWriter {
	return &SetWriter{store: s, runID: runID, setKey: setKey}
}

// Write buffers records.
func (w *SetWriter) Write(records []*models.CardRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("store writer for %s is closed", w.setKey)
	}
	w.records = append(w.records, records...)
	return nil
}

// Validate ensures something was buffered.
func (w *SetWriter) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.records) == 0 {
		return fmt.Errorf("no records buffered for %s", w.setKey)
	}
	return nil
}

// Close commits the buffered records.
func (w *SetWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if len(w.records) == 0 {
		return nil
	}
	return w.store.ReplaceSet(w.runID, w.setKey, w.records)
}
