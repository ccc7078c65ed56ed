package normalizer

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
)

// ConvertLeagueMatches decodes a league/matches payload. The completed view
// reads the results list, other views the fixtures list; either falls back to
// the other list when its own is absent. The live view keeps only matches that
// have started and not finished.
func ConvertLeagueMatches(raw []byte, competitionID int64, view fixture.View) ([]fixture.Fixture, error) {
	var envelope leagueEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "decode league matches")
	}

	primary, fallback := envelope.Fixtures.AllMatches, envelope.Results.AllMatches
	if view == fixture.ViewCompleted {
		primary, fallback = fallback, primary
	}
	matches := primary
	if len(matches) == 0 {
		matches = fallback
	}

	out := make([]fixture.Fixture, 0, len(matches))
	for _, match := range matches {
		if !match.ID.Set {
			continue
		}
		if view == fixture.ViewLive && !(match.Status.Started && !match.Status.Finished) {
			continue
		}
		out = append(out, convertLeagueMatch(match, competitionID))
	}
	return out, nil
}

func convertLeagueMatch(match leagueMatch, competitionID int64) fixture.Fixture {
	state := MatchState{
		Started:   match.Status.Started,
		Finished:  match.Status.Finished,
		Cancelled: match.Status.Cancelled,
	}
	if match.Status.LiveTime != nil {
		state.LiveShort = match.Status.LiveTime.Short
		state.MaxTime = match.Status.LiveTime.MaxTime.ptr()
	}

	var homeGoals, awayGoals *int
	if match.Status.Score != nil {
		homeGoals = match.Status.Score.Home.ptr()
		awayGoals = match.Status.Score.Away.ptr()
	}
	if homeGoals == nil && awayGoals == nil && match.Status.Started {
		homeGoals, awayGoals = parseScoreLine(match.Status.ScoreStr)
	}

	roundLabel := string(match.Round)
	if strings.TrimSpace(roundLabel) == "" {
		roundLabel = string(match.RoundAlt)
	}

	return fixture.Fixture{
		ID:            match.ID.Value,
		CompetitionID: competitionID,
		KickoffAt:     parseKickoff(match.Status.UTCTime),
		Round:         newRound(roundLabel),
		Venue:         strings.TrimSpace(string(match.Venue)),
		Status:        DetermineStatus(state),
		Elapsed:       ElapsedMinutes(state),
		Home:          newTeam(match.Home.ID.Value, match.Home.Name),
		Away:          newTeam(match.Away.ID.Value, match.Away.Name),
		HomeGoals:     homeGoals,
		AwayGoals:     awayGoals,
	}
}

// ConvertLeagueTable decodes the standings embedded in a league payload.
func ConvertLeagueTable(raw []byte) ([]leaguestanding.Standing, error) {
	var envelope leagueEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "decode league table")
	}
	if len(envelope.Table) == 0 {
		return []leaguestanding.Standing{}, nil
	}

	rows := envelope.Table[0].Data.Table.All
	out := make([]leaguestanding.Standing, 0, len(rows))
	for _, row := range rows {
		goalsFor, goalsAgainst := ParseScoresStr(row.ScoresStr)
		out = append(out, leaguestanding.Standing{
			Position:       row.Idx,
			TeamID:         row.ID.Value,
			TeamName:       NormalizeTeamName(row.Name),
			Played:         row.Played,
			Won:            row.Wins,
			Draw:           row.Draws,
			Lost:           row.Losses,
			GoalsFor:       goalsFor,
			GoalsAgainst:   goalsAgainst,
			GoalDifference: row.GoalConDiff,
			Points:         row.Pts,
			Form:           strings.ToUpper(strings.TrimSpace(row.Form)),
		})
	}
	return out, nil
}

// ConvertMatchDetails decodes a match details payload into venue, score and
// goal events. Events without an isHome flag keep an empty side.
func ConvertMatchDetails(raw []byte, matchID int64) (fixture.Details, error) {
	var envelope matchDetailsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fixture.Details{}, errors.Wrap(err, "decode match details")
	}

	details := fixture.Details{MatchID: matchID}
	if envelope.General.MatchID.Set {
		details.MatchID = envelope.General.MatchID.Value
	}
	if stadium := envelope.Content.MatchFacts.InfoBox.Stadium; stadium != nil {
		details.Venue = strings.TrimSpace(stadium.Name)
	}

	teams := envelope.Header.Teams
	if len(teams) >= 2 {
		details.HomeName = strings.TrimSpace(teams[0].Name)
		details.AwayName = strings.TrimSpace(teams[1].Name)
		details.HomeGoals = teams[0].Score.ptr()
		details.AwayGoals = teams[1].Score.ptr()
	}

	for _, event := range envelope.Content.MatchFacts.Events.Events {
		if event.Type != "Goal" {
			continue
		}
		goal := fixture.GoalEvent{
			Scorer:  strings.TrimSpace(event.NameStr),
			Minute:  int(event.Time.Value),
			OwnGoal: event.OwnGoal,
		}
		if !goal.OwnGoal {
			goal.Penalty = event.IsPenalty || event.GoalDescriptionKey == "penalty"
		}
		if goal.Scorer == "" {
			goal.Scorer = "Unknown"
		}
		if event.IsHome != nil {
			goal.SideExplicit = true
			goal.Side = fixture.SideAway
			if *event.IsHome {
				goal.Side = fixture.SideHome
			}
		}
		details.Events = append(details.Events, goal)
	}
	return details, nil
}
