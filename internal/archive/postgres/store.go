// Package postgres provides a PostgreSQL-backed game archive.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/redblue/internal/archive"
	"github.com/mcoot/redblue/internal/model"
)

//go:embed schema.sql
var schema string

// Store persists archived games in PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, pings, and ensures the schema exists
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Record inserts a terminal game. An already archived id is left untouched.
func (s *Store) Record(ctx context.Context, game *model.Game) error {
	e := archive.EntryFrom(game)
	rounds, err := json.Marshal(e.Rounds)
	if err != nil {
		return fmt.Errorf("marshal rounds: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO archived_games
			(id, code, player1_name, player2_name, player1_score, player2_score,
			 state, winner, finish_reason, rounds, created_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Code, e.Player1Name, e.Player2Name, e.Player1Score, e.Player2Score,
		e.State, e.Winner, e.FinishReason, rounds, e.CreatedAt, e.FinishedAt,
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

	rows, err := s.pool.Query(ctx,
		`SELECT id, code, player1_name, player2_name, player1_score, player2_score,
				state, winner, finish_reason, rounds, created_at, finished_at
		 FROM archived_games
		 ORDER BY finished_at DESC, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	games := []*model.Game{}
	for rows.Next() {
		var (
			e      archive.Entry
			rounds []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Code, &e.Player1Name, &e.Player2Name, &e.Player1Score, &e.Player2Score,
			&e.State, &e.Winner, &e.FinishReason, &rounds, &e.CreatedAt, &e.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		if len(rounds) > 0 {
			if err := json.Unmarshal(rounds, &e.Rounds); err != nil {
				return nil, fmt.Errorf("unmarshal rounds for %s: %w", e.ID, err)
			}
		}
		e.CreatedAt = e.CreatedAt.UTC()
		e.FinishedAt = e.FinishedAt.UTC()
		games = append(games, e.Game())
	}
	return games, rows.Err()
}
