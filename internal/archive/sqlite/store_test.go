package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcoot/redblue/internal/model"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func finishedGame(id string, finishedAt time.Time) *model.Game {
	return &model.Game{
		ID:           model.GameID(id),
		Code:         "ABC234",
		State:        model.GameStateFinished,
		Player1:      &model.Player{Name: "Alice"},
		Player2:      &model.Player{Name: "Bob"},
		CurrentRound: 1,
		Player1Score: 3,
		Player2Score: 3,
		Rounds: []model.Round{
			{Number: 1, Player1Choice: model.ChoiceRed, Player2Choice: model.ChoiceRed, Player1Score: 3, Player2Score: 3, CreatedAt: finishedAt.Add(-time.Minute)},
		},
		Winner:       model.OutcomeDraw,
		FinishReason: model.FinishReasonFinish,
		CreatedAt:    finishedAt.Add(-time.Hour),
		FinishedAt:   &finishedAt,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenTwiceAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	first, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = first.Close()

	second, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = second.Close()
}

func TestRecordAndRecentRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	finished := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, finishedGame("game-1", finished)); err != nil {
		t.Fatalf("record: %v", err)
	}

	games, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("len(games) = %d, want 1", len(games))
	}
	got := games[0]
	if got.ID != "game-1" || got.PlayerName(model.RolePlayer2) != "Bob" {
		t.Fatalf("unexpected game %+v", got)
	}
	if got.Winner != model.OutcomeDraw {
		t.Fatalf("winner = %q, want draw", got.Winner)
	}
	if len(got.Rounds) != 1 || got.Rounds[0].Player1Choice != model.ChoiceRed {
		t.Fatalf("rounds = %+v", got.Rounds)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Fatalf("finished_at = %v, want %v", got.FinishedAt, finished)
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	game := finishedGame("game-1", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if err := store.Record(ctx, game); err != nil {
			t.Fatalf("record #%d: %v", i+1, err)
		}
	}

	games, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("len(games) = %d, want 1", len(games))
	}
}

func TestRecentOrdersNewestFirstAndLimits(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		if err := store.Record(ctx, finishedGame(id, base.Add(offsets[i]))); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	games, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("len(games) = %d, want 2", len(games))
	}
	if games[0].ID != "newest" || games[1].ID != "middle" {
		t.Fatalf("order = %s, %s", games[0].ID, games[1].ID)
	}
}
