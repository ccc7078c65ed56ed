package usecase

import (
	"fmt"
	"slices"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/normalizer"
)

// CurrentRound is the round of the earliest fixture not yet terminal. When
// every fixture is done it is the round of the latest kickoff.
func CurrentRound(items []fixture.Fixture) (fixture.Round, bool) {
	if len(items) == 0 {
		return fixture.Round{}, false
	}

	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b fixture.Fixture) int {
		return a.KickoffAt.Compare(b.KickoffAt)
	})
	for _, item := range ordered {
		if !fixture.IsTerminalStatus(item.Status) {
			return item.Round, true
		}
	}
	return ordered[len(ordered)-1].Round, true
}

// ThreadTitle formats "<Name> - Round N Discussion Thread / dd-mm-yyyy". Cup
// threads use the round display name instead of "Round N".
func ThreadTitle(comp competition.Competition, round fixture.Round, day time.Time) string {
	label := "Round " + round.Display
	if comp.IsCup() {
		label = normalizer.RoundDisplayName(round.Raw)
	}
	return fmt.Sprintf("%s - %s Discussion Thread / %s", comp.Name, label, day.Format("02-01-2006"))
}

// matchDates returns the distinct local kickoff dates of items.
func matchDates(items []fixture.Fixture, loc *time.Location) []string {
	dates := make([]string, 0, len(items))
	for _, item := range items {
		if item.KickoffAt.IsZero() {
			continue
		}
		dates = append(dates, item.LocalDate(loc))
	}
	return dates
}
