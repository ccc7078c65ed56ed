package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(fmt.Errorf("pq: relation competition_sync_states does not exist")) {
		t.Fatalf("expected unrelated error to not be not found")
	}
}

func TestSyncStateModelConversion(t *testing.T) {
	t.Parallel()

	publishedAt := time.Date(2026, 10, 16, 21, 0, 0, 0, time.UTC)
	state := syncstate.CompetitionState{
		CompetitionKey:    "fai_cup",
		PostID:            "x1y2z3",
		TrackedDates:      []string{"2026-10-18", "2026-10-17", "2026-10-18"},
		RoundLabel:        "Round 1/4",
		LastPublishedHash: "cafe",
		LastPublishedAt:   &publishedAt,
	}

	model := syncStateUpsertModel(state)
	if len(model.TrackedDates) != 2 || model.TrackedDates[0] != "2026-10-17" {
		t.Fatalf("expected normalized tracked dates, got=%v", model.TrackedDates)
	}
	if !model.LastPublishedAt.Valid {
		t.Fatalf("expected published at to be set")
	}

	got := syncStateFromRow(competitionSyncStateTableModel{
		CompetitionKey:    model.CompetitionKey,
		PostID:            model.PostID,
		TrackedDates:      model.TrackedDates,
		ThreadDates:       model.ThreadDates,
		RoundLabel:        model.RoundLabel,
		LastPublishedHash: model.LastPublishedHash,
		LastPublishedAt:   model.LastPublishedAt,
	})
	if got.RoundLabel != "Round 1/4" || got.PostID != "x1y2z3" {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.LastPublishedAt == nil || !got.LastPublishedAt.Equal(publishedAt) {
		t.Fatalf("unexpected published at: got=%v want=%v", got.LastPublishedAt, publishedAt)
	}
}

func TestLimiterStateModelConversion(t *testing.T) {
	t.Parallel()

	resetAt := time.Date(2026, 10, 16, 0, 5, 0, 0, time.UTC)
	callAt := resetAt.Add(2 * time.Hour)
	model, err := limiterStateUpsertModel(DefaultLimiterStateID, resilience.LimiterState{
		DailyCalls:          12,
		DailyResetAt:        resetAt,
		MinuteCalls:         []time.Time{callAt},
		ConsecutiveFailures: 2,
	})
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	if model.CircuitOpenAt.Valid {
		t.Fatalf("expected closed circuit to store null open time")
	}

	got, err := limiterStateFromRow(rateLimiterStateTableModel{
		ID:                  model.ID,
		DailyCalls:          model.DailyCalls,
		DailyResetAt:        model.DailyResetAt,
		MinuteCalls:         []byte(model.MinuteCalls),
		ConsecutiveFailures: model.ConsecutiveFailures,
		CircuitOpenAt:       model.CircuitOpenAt,
	})
	if err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if got.DailyCalls != 12 || got.ConsecutiveFailures != 2 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if !got.DailyResetAt.Equal(resetAt) {
		t.Fatalf("unexpected reset at: got=%v want=%v", got.DailyResetAt, resetAt)
	}
	if len(got.MinuteCalls) != 1 || !got.MinuteCalls[0].Equal(callAt) {
		t.Fatalf("unexpected minute calls: got=%v", got.MinuteCalls)
	}
	if got.CircuitOpenAt != nil {
		t.Fatalf("expected nil circuit open time, got=%v", got.CircuitOpenAt)
	}
}
