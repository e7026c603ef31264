// Package sqlite provides a SQLite-backed game archive.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/redblue/internal/archive"
	"github.com/mcoot/redblue/internal/archive/sqlite/migrations"
	"github.com/mcoot/redblue/internal/model"
)

// Store persists archived games in SQLite
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens a SQLite archive at path and applies embedded migrations
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a terminal game. An already archived id is left untouched.
func (s *Store) Record(ctx context.Context, game *model.Game) error {
	e := archive.EntryFrom(game)
	rounds, err := json.Marshal(e.Rounds)
	if err != nil {
		return fmt.Errorf("marshal rounds: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO archived_games (
		   id, code, player1_name, player2_name, player1_score, player2_score,
		   state, winner, finish_reason, rounds, created_at, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		e.ID, e.Code, e.Player1Name, e.Player2Name, e.Player1Score, e.Player2Score,
		e.State, e.Winner, e.FinishReason, string(rounds), toMillis(e.CreatedAt), toMillis(e.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("archive game: %w", err)
	}
	return nil
}

// Recent returns archived games, most recently finished first
func (s *Store) Recent(ctx context.Context, limit int) ([]*model.Game, error) {
	if limit <= 0 {
		limit = archive.DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, player1_name, player2_name, player1_score, player2_score,
		        state, winner, finish_reason, rounds, created_at, finished_at
		 FROM archived_games
		 ORDER BY finished_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	games := []*model.Game{}
	for rows.Next() {
		var (
			e                   archive.Entry
			rounds              string
			createdAt, finished int64
		)
		if err := rows.Scan(
			&e.ID, &e.Code, &e.Player1Name, &e.Player2Name, &e.Player1Score, &e.Player2Score,
			&e.State, &e.Winner, &e.FinishReason, &rounds, &createdAt, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		if err := json.Unmarshal([]byte(rounds), &e.Rounds); err != nil {
			return nil, fmt.Errorf("unmarshal rounds for %s: %w", e.ID, err)
		}
		e.CreatedAt = fromMillis(createdAt)
		e.FinishedAt = fromMillis(finished)
		games = append(games, e.Game())
	}
	return games, rows.Err()
}
