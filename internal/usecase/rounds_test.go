package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
)

func TestCurrentRound(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 10, 16, 18, 45, 0, 0, time.UTC)
	round := func(n string) fixture.Round {
		return fixture.Round{Raw: "Regular Season - " + n, Display: n}
	}

	t.Run("earliest unfinished fixture", func(t *testing.T) {
		items := []fixture.Fixture{
			{ID: 3, Round: round("34"), Status: fixture.StatusNotStarted, KickoffAt: base.Add(7 * 24 * time.Hour)},
			{ID: 1, Round: round("32"), Status: fixture.StatusFullTime, KickoffAt: base.Add(-7 * 24 * time.Hour)},
			{ID: 2, Round: round("33"), Status: fixture.StatusNotStarted, KickoffAt: base},
		}
		got, ok := CurrentRound(items)
		if !ok || got.Display != "33" {
			t.Fatalf("unexpected round: got=%+v ok=%v want=33", got, ok)
		}
	})

	t.Run("latest fixture when all finished", func(t *testing.T) {
		items := []fixture.Fixture{
			{ID: 1, Round: round("35"), Status: fixture.StatusFullTime, KickoffAt: base},
			{ID: 2, Round: round("36"), Status: fixture.StatusPostponed, KickoffAt: base.Add(24 * time.Hour)},
		}
		got, ok := CurrentRound(items)
		if !ok || got.Display != "36" {
			t.Fatalf("unexpected round: got=%+v ok=%v want=36", got, ok)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, ok := CurrentRound(nil); ok {
			t.Fatalf("expected no round for empty input")
		}
	})
}

func TestThreadTitle(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

	got := ThreadTitle(premierDivision, fixture.Round{Raw: "Regular Season - 33", Display: "33"}, day)
	want := "LOI Premier Division - Round 33 Discussion Thread / 16-10-2026"
	if got != want {
		t.Fatalf("unexpected league title: got=%q want=%q", got, want)
	}

	got = ThreadTitle(faiCup, fixture.Round{Raw: "FAI Cup - 1/2", Display: "1/2"}, day)
	want = "Sports Direct FAI Cup - Semi-finals Discussion Thread / 16-10-2026"
	if got != want {
		t.Fatalf("unexpected cup title: got=%q want=%q", got, want)
	}
}
