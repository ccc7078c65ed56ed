package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
)

var (
	premierDivision = competition.Competition{
		Key:        "premier_division",
		Name:       "LOI Premier Division",
		ProviderID: 126,
		Kind:       competition.KindLeague,
		Timezone:   competition.DefaultTimezone,
	}
	firstDivision = competition.Competition{
		Key:        "first_division",
		Name:       "LOI First Division",
		ProviderID: 218,
		Kind:       competition.KindLeague,
		Timezone:   competition.DefaultTimezone,
	}
	faiCup = competition.Competition{
		Key:        "fai_cup",
		Name:       "Sports Direct FAI Cup",
		ProviderID: 219,
		Kind:       competition.KindCup,
		Timezone:   competition.DefaultTimezone,
	}
)

func intPtr(v int) *int {
	return &v
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func leagueFixture(id int64, status fixture.Status, kickoff time.Time, home, away int) fixture.Fixture {
	return fixture.Fixture{
		ID:            id,
		CompetitionID: 126,
		KickoffAt:     kickoff,
		Round:         fixture.Round{Raw: "Regular Season - 33", Display: "33"},
		Venue:         "Tallaght Stadium",
		Status:        status,
		Home:          fixture.Team{ID: 1, RawName: "Shamrock Rovers", Name: "Shamrock Rovers"},
		Away:          fixture.Team{ID: 2, RawName: "Bohemians", Name: "Bohemians"},
		HomeGoals:     intPtr(home),
		AwayGoals:     intPtr(away),
	}
}

// stubRenderer renders a line per fixture so the body changes whenever a
// score or status does.
type stubRenderer struct {
	panicFor string
}

func (r stubRenderer) Render(doc ThreadDocument) (string, error) {
	if r.panicFor != "" && doc.Competition.Key == r.panicFor {
		panic("renderer exploded")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s round=%s\n", doc.Competition.Name, doc.Round.Display)
	for _, item := range doc.Fixtures {
		home, away := "-", "-"
		if item.HomeGoals != nil {
			home = fmt.Sprint(*item.HomeGoals)
		}
		if item.AwayGoals != nil {
			away = fmt.Sprint(*item.AwayGoals)
		}
		fmt.Fprintf(&b, "%d %s %s-%s %s\n", item.ID, item.Status, home, away, item.Venue)
	}
	fmt.Fprintf(&b, "standings=%d\n", len(doc.Standings))
	return b.String(), nil
}
