package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

func TestSyncStateRepository_UpsertAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSyncStateRepository(syncstate.CompetitionState{
		CompetitionKey: "premier_division",
		PostID:         "abc123",
		TrackedDates:   []string{"2026-10-16"},
	})

	state, ok, err := repo.Get(ctx, "premier_division")
	if err != nil || !ok {
		t.Fatalf("get seeded state: ok=%v err=%v", ok, err)
	}
	state.TrackedDates[0] = "mutated"

	again, _, _ := repo.Get(ctx, "premier_division")
	if again.TrackedDates[0] != "2026-10-16" {
		t.Fatalf("expected stored state isolated from caller, got=%v", again.TrackedDates)
	}

	if err := repo.Upsert(ctx, syncstate.CompetitionState{CompetitionKey: "fai_cup", PostID: "def456"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].CompetitionKey != "fai_cup" {
		t.Fatalf("unexpected list order: %+v", items)
	}

	if _, ok, _ := repo.Get(ctx, "first_division"); ok {
		t.Fatalf("expected missing competition to report not found")
	}
}

func TestLimiterStateStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewLimiterStateStore()
	if _, ok, err := store.LoadLimiterState(ctx); ok || err != nil {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}

	now := time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)
	if err := store.SaveLimiterState(ctx, resilience.LimiterState{
		DailyCalls:   7,
		DailyResetAt: now,
		MinuteCalls:  []time.Time{now},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.LoadLimiterState(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.DailyCalls != 7 || len(got.MinuteCalls) != 1 {
		t.Fatalf("unexpected state: %+v", got)
	}
}
