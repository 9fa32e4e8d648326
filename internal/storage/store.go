package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Result is one finished game.
type Result struct {
	ID         int64     `json:"id"`
	RoomID     string    `json:"roomId"`
	WinnerID   string    `json:"winnerId"`
	WinnerName string    `json:"winnerName"`
	Players    []string  `json:"players"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// each :memory: connection is its own database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id     TEXT NOT NULL,
			winner_id   TEXT NOT NULL,
			winner_name TEXT NOT NULL,
			players     TEXT NOT NULL,
			finished_at INTEGER NOT NULL -- unix milliseconds
		);
		CREATE INDEX IF NOT EXISTS results_finished_at ON results(finished_at);
	`)
	return err
}

// RecordResult appends a finished game to the ledger.
func (s *Store) RecordResult(ctx context.Context, r Result) error {
	players, err := json.Marshal(r.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO results (room_id, winner_id, winner_name, players, finished_at) VALUES (?, ?, ?, ?, ?)",
		r.RoomID, r.WinnerID, r.WinnerName, string(players), r.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", r.RoomID, err)
	}
	return nil
}

// ListResults returns the most recent results first. A limit of zero or
// less returns all of them.
func (s *Store) ListResults(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, room_id, winner_id, winner_name, players, finished_at FROM results ORDER BY finished_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// GetResult retrieves the latest result for a room.
func (s *Store) GetResult(ctx context.Context, roomID string) (*Result, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, room_id, winner_id, winner_name, players, finished_at FROM results WHERE room_id = ? ORDER BY id DESC LIMIT 1",
		roomID,
	)
	return scanResult(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (*Result, error) {
	var r Result
	var players string
	var finished int64
	if err := sc.Scan(&r.ID, &r.RoomID, &r.WinnerID, &r.WinnerName, &players, &finished); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(players), &r.Players); err != nil {
		return nil, fmt.Errorf("result %d players: %w", r.ID, err)
	}
	r.FinishedAt = time.UnixMilli(finished).UTC()
	return &r, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
