package normalizer

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
)

// ConvertLegacyFixtures decodes a legacy fixtures payload. Goal events embedded
// in the payload carry the upstream team label and no side flag.
func ConvertLegacyFixtures(raw []byte) ([]fixture.Fixture, error) {
	var envelope legacyEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "decode legacy fixtures")
	}

	out := make([]fixture.Fixture, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		if !item.Fixture.ID.Set {
			continue
		}
		out = append(out, convertLegacyFixture(item))
	}
	return out, nil
}

func convertLegacyFixture(item legacyFixture) fixture.Fixture {
	status := fixture.ParseStatus(item.Fixture.Status.Short)

	var elapsed *int
	if fixture.IsLiveStatus(status) && status != fixture.StatusHalfTime {
		elapsed = item.Fixture.Status.Elapsed.ptr()
	}

	return fixture.Fixture{
		ID:            item.Fixture.ID.Value,
		CompetitionID: item.League.ID.Value,
		KickoffAt:     parseKickoff(item.Fixture.Date),
		Round:         newRound(string(item.League.Round)),
		Venue:         strings.TrimSpace(string(item.Fixture.Venue)),
		Status:        status,
		Elapsed:       elapsed,
		Home:          newTeam(item.Teams.Home.ID.Value, item.Teams.Home.Name),
		Away:          newTeam(item.Teams.Away.ID.Value, item.Teams.Away.Name),
		HomeGoals:     item.Goals.Home.ptr(),
		AwayGoals:     item.Goals.Away.ptr(),
		Events:        convertLegacyEvents(item.Events),
	}
}

func convertLegacyEvents(events []legacyEvent) []fixture.GoalEvent {
	var out []fixture.GoalEvent
	for _, event := range events {
		if event.Type != "Goal" {
			continue
		}
		detail := strings.TrimSpace(event.Detail)
		if strings.EqualFold(detail, "Missed Penalty") {
			continue
		}
		scorer := strings.TrimSpace(event.Player.Name)
		if scorer == "" {
			scorer = "Unknown"
		}
		out = append(out, fixture.GoalEvent{
			Scorer:   scorer,
			Minute:   int(event.Time.Elapsed.Value),
			Penalty:  detail == "Penalty",
			OwnGoal:  detail == "Own Goal",
			TeamName: strings.TrimSpace(event.Team.Name),
		})
	}
	return out
}

// ConvertLegacyStandings decodes the first table group of a legacy standings
// payload.
func ConvertLegacyStandings(raw []byte) ([]leaguestanding.Standing, error) {
	var envelope legacyStandingsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "decode legacy standings")
	}
	if len(envelope.Response) == 0 || len(envelope.Response[0].League.Standings) == 0 {
		return []leaguestanding.Standing{}, nil
	}

	rows := envelope.Response[0].League.Standings[0]
	out := make([]leaguestanding.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaguestanding.Standing{
			Position:       row.Rank,
			TeamID:         row.Team.ID.Value,
			TeamName:       NormalizeTeamName(row.Team.Name),
			Played:         row.All.Played,
			Won:            row.All.Win,
			Draw:           row.All.Draw,
			Lost:           row.All.Lose,
			GoalsFor:       int(row.All.Goals.For.Value),
			GoalsAgainst:   int(row.All.Goals.Against.Value),
			GoalDifference: row.GoalsDiff,
			Points:         row.Points,
			Form:           strings.ToUpper(strings.TrimSpace(row.Form)),
		})
	}
	return out, nil
}

// ConvertLegacyDetails decodes a single-fixture legacy payload into Details.
func ConvertLegacyDetails(raw []byte, matchID int64) (fixture.Details, error) {
	items, err := ConvertLegacyFixtures(raw)
	if err != nil {
		return fixture.Details{}, err
	}
	for _, item := range items {
		if matchID != 0 && item.ID != matchID {
			continue
		}
		return fixture.Details{
			MatchID:   item.ID,
			Venue:     item.Venue,
			HomeName:  item.Home.RawName,
			AwayName:  item.Away.RawName,
			HomeGoals: item.HomeGoals,
			AwayGoals: item.AwayGoals,
			Events:    item.Events,
		}, nil
	}
	return fixture.Details{MatchID: matchID}, nil
}
