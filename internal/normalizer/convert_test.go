package normalizer

import (
	"testing"

	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
)

const leaguePayload = `{
  "fixtures": {"allMatches": [
    {"id": "4501", "round": 30, "home": {"id": 1, "name": "Shelbourne FC"}, "away": {"id": "2", "name": "Dundalk"},
     "status": {"utcTime": "2026-10-16T18:45:00.000Z", "started": true, "finished": false,
                "score": {"home": 1, "away": 0}, "liveTime": {"short": "67'", "maxTime": 90}}},
    {"id": 4502, "round": "30", "home": {"id": 3, "name": "Bohemians"}, "away": {"id": 4, "name": "Derry City"},
     "status": {"utcTime": "2026-10-17T18:45:00.000Z", "started": false, "finished": false}}
  ]},
  "results": {"allMatches": [
    {"id": 4400, "round": "29", "venue": {"name": "Tolka Park"}, "home": {"id": 1, "name": "Shelbourne FC"}, "away": {"id": 3, "name": "Bohemians"},
     "status": {"utcTime": "2026-10-10T18:45:00Z", "started": true, "finished": true, "scoreStr": "2 - 2"}}
  ]},
  "table": [{"data": {"table": {"all": [
    {"idx": 1, "id": 1, "name": "Shelbourne FC", "played": 29, "wins": 16, "draws": 8, "losses": 5, "scoresStr": "40-22", "goalConDiff": 18, "pts": 56, "form": "wwdlw"},
    {"idx": 2, "id": 3, "name": "Bohemians", "played": 29, "wins": 15, "draws": 6, "losses": 8, "scoresStr": "n/a", "goalConDiff": 9, "pts": 51}
  ]}}}]
}`

func TestConvertLeagueMatches_UpcomingView(t *testing.T) {
	t.Parallel()

	got, err := ConvertLeagueMatches([]byte(leaguePayload), 126, fixture.ViewUpcoming)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected fixture count: got=%d want=2", len(got))
	}

	live := got[0]
	if live.ID != 4501 || live.CompetitionID != 126 {
		t.Fatalf("unexpected identity: id=%d competition=%d", live.ID, live.CompetitionID)
	}
	if live.Status != fixture.StatusSecondHalf {
		t.Fatalf("unexpected status: got=%s want=%s", live.Status, fixture.StatusSecondHalf)
	}
	if live.Elapsed == nil || *live.Elapsed != 67 {
		t.Fatalf("unexpected elapsed: %v", live.Elapsed)
	}
	if live.Round.Display != "30" {
		t.Fatalf("unexpected round: got=%q want=30", live.Round.Display)
	}
	if live.Home.Name != "Shelbourne" || live.Away.Name != "Dundalk FC" || live.Away.ID != 2 {
		t.Fatalf("unexpected teams: %+v vs %+v", live.Home, live.Away)
	}
	if !live.HasScore() || *live.HomeGoals != 1 || *live.AwayGoals != 0 {
		t.Fatalf("unexpected score: %v-%v", live.HomeGoals, live.AwayGoals)
	}

	pending := got[1]
	if pending.Status != fixture.StatusNotStarted {
		t.Fatalf("unexpected status: got=%s", pending.Status)
	}
	if pending.HomeGoals != nil || pending.AwayGoals != nil {
		t.Fatalf("expected unknown score to stay nil, got %v-%v", pending.HomeGoals, pending.AwayGoals)
	}
}

func TestConvertLeagueMatches_CompletedViewReadsResults(t *testing.T) {
	t.Parallel()

	got, err := ConvertLeagueMatches([]byte(leaguePayload), 126, fixture.ViewCompleted)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(got) != 1 || got[0].ID != 4400 {
		t.Fatalf("unexpected completed fixtures: %+v", got)
	}
	if got[0].Status != fixture.StatusFullTime || got[0].Venue != "Tolka Park" {
		t.Fatalf("unexpected completed fixture: %+v", got[0])
	}
	if got[0].HomeGoals == nil || *got[0].HomeGoals != 2 || *got[0].AwayGoals != 2 {
		t.Fatalf("expected score from score string, got %v-%v", got[0].HomeGoals, got[0].AwayGoals)
	}
}

func TestConvertLeagueMatches_LiveViewKeepsInProgressOnly(t *testing.T) {
	t.Parallel()

	got, err := ConvertLeagueMatches([]byte(leaguePayload), 126, fixture.ViewLive)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(got) != 1 || got[0].ID != 4501 {
		t.Fatalf("unexpected live fixtures: %+v", got)
	}
}

func TestConvertLeagueMatches_InvalidPayload(t *testing.T) {
	t.Parallel()

	if _, err := ConvertLeagueMatches([]byte(`[`), 126, fixture.ViewUpcoming); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestConvertLeagueTable(t *testing.T) {
	t.Parallel()

	rows, err := ConvertLeagueTable([]byte(leaguePayload))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("unexpected row count: got=%d want=2", len(rows))
	}
	if rows[0].TeamName != "Shelbourne" || rows[0].GoalsFor != 40 || rows[0].GoalsAgainst != 22 || rows[0].Form != "WWDLW" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].GoalsFor != 0 || rows[1].GoalsAgainst != 0 {
		t.Fatalf("expected malformed scores string to yield 0-0, got %d-%d", rows[1].GoalsFor, rows[1].GoalsAgainst)
	}
	if rows[1].Points != 51 {
		t.Fatalf("unexpected points: got=%d want=51", rows[1].Points)
	}
}

func TestConvertMatchDetails(t *testing.T) {
	t.Parallel()

	raw := `{
	  "header": {"teams": [{"name": "Shelbourne FC", "score": 2}, {"name": "Dundalk", "score": 1}]},
	  "content": {"matchFacts": {
	    "infoBox": {"Stadium": {"name": "Tolka Park"}},
	    "events": {"events": [
	      {"type": "Goal", "isHome": true, "nameStr": "Sean Boyd", "time": 12},
	      {"type": "Card", "isHome": false, "nameStr": "Someone", "time": 20},
	      {"type": "Goal", "isHome": false, "nameStr": "Pat Hoban", "time": 45, "goalDescriptionKey": "penalty"},
	      {"type": "Goal", "isHome": true, "ownGoal": true, "nameStr": "Andy Boyle", "time": "80"},
	      {"type": "Goal", "nameStr": "Flagless", "time": 88}
	    ]}
	  }}
	}`

	details, err := ConvertMatchDetails([]byte(raw), 4501)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if details.MatchID != 4501 || details.Venue != "Tolka Park" {
		t.Fatalf("unexpected details: %+v", details)
	}
	if details.HomeGoals == nil || *details.HomeGoals != 2 || details.AwayGoals == nil || *details.AwayGoals != 1 {
		t.Fatalf("unexpected score: %v-%v", details.HomeGoals, details.AwayGoals)
	}
	if len(details.Events) != 4 {
		t.Fatalf("unexpected event count: got=%d want=4", len(details.Events))
	}

	first := details.Events[0]
	if first.Side != fixture.SideHome || !first.SideExplicit || first.Minute != 12 {
		t.Fatalf("unexpected first goal: %+v", first)
	}
	if !details.Events[1].Penalty || details.Events[1].Side != fixture.SideAway {
		t.Fatalf("expected away penalty: %+v", details.Events[1])
	}
	if !details.Events[2].OwnGoal || details.Events[2].Penalty || details.Events[2].Minute != 80 {
		t.Fatalf("expected own goal at 80: %+v", details.Events[2])
	}
	if details.Events[3].SideExplicit || details.Events[3].Side != "" {
		t.Fatalf("expected flagless goal without side: %+v", details.Events[3])
	}
}

const legacyPayload = `{
  "errors": [],
  "response": [{
    "fixture": {"id": 901, "date": "2026-10-16T19:45:00+00:00", "status": {"short": "2H", "elapsed": 70}, "venue": {"id": 5, "name": "Oriel Park"}},
    "league": {"id": 357, "round": "Regular Season - 30"},
    "teams": {"home": {"id": 10, "name": "Dundalk"}, "away": {"id": 11, "name": "Waterford"}},
    "goals": {"home": 1, "away": null},
    "events": [
      {"type": "Goal", "detail": "Normal Goal", "team": {"id": 10, "name": "Dundalk"}, "player": {"name": "Daryl Horgan"}, "time": {"elapsed": 33}},
      {"type": "Goal", "detail": "Missed Penalty", "team": {"id": 11, "name": "Waterford"}, "player": {"name": "Missed"}, "time": {"elapsed": 50}},
      {"type": "Card", "detail": "Yellow Card", "team": {"id": 11, "name": "Waterford"}, "player": {"name": "Booked"}, "time": {"elapsed": 55}}
    ]
  }, {
    "fixture": {"id": 902, "date": "2026-10-17T14:00:00+00:00", "status": {"short": "PST", "elapsed": null}, "venue": {"name": null}},
    "league": {"id": 357, "round": "Regular Season - 30"},
    "teams": {"home": {"id": 12, "name": "Kerry"}, "away": {"id": 13, "name": "Wexford"}},
    "goals": {"home": null, "away": null}
  }]
}`

func TestConvertLegacyFixtures(t *testing.T) {
	t.Parallel()

	got, err := ConvertLegacyFixtures([]byte(legacyPayload))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected fixture count: got=%d want=2", len(got))
	}

	live := got[0]
	if live.Status != fixture.StatusSecondHalf || live.Elapsed == nil || *live.Elapsed != 70 {
		t.Fatalf("unexpected live state: status=%s elapsed=%v", live.Status, live.Elapsed)
	}
	if live.Venue != "Oriel Park" || live.Round.Display != "30" || live.CompetitionID != 357 {
		t.Fatalf("unexpected fixture: %+v", live)
	}
	if live.HomeGoals == nil || *live.HomeGoals != 1 {
		t.Fatalf("unexpected home goals: %v", live.HomeGoals)
	}
	if live.AwayGoals != nil {
		t.Fatalf("expected null away goals to stay nil, got %d", *live.AwayGoals)
	}
	if len(live.Events) != 1 || live.Events[0].TeamName != "Dundalk" || live.Events[0].SideExplicit {
		t.Fatalf("unexpected events: %+v", live.Events)
	}
	if live.Home.Name != "Dundalk FC" || live.Away.Name != "Waterford FC" {
		t.Fatalf("unexpected team names: %q %q", live.Home.Name, live.Away.Name)
	}

	postponed := got[1]
	if postponed.Status != fixture.StatusPostponed || postponed.Elapsed != nil {
		t.Fatalf("unexpected postponed fixture: %+v", postponed)
	}
	if postponed.HasVenue() {
		t.Fatalf("expected missing venue, got %q", postponed.Venue)
	}
}

func TestConvertLegacyDetails(t *testing.T) {
	t.Parallel()

	details, err := ConvertLegacyDetails([]byte(legacyPayload), 902)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if details.MatchID != 902 || details.HomeName != "Kerry" {
		t.Fatalf("unexpected details: %+v", details)
	}

	missing, err := ConvertLegacyDetails([]byte(`{"response": []}`), 77)
	if err != nil {
		t.Fatalf("convert empty: %v", err)
	}
	if missing.MatchID != 77 || missing.HomeGoals != nil {
		t.Fatalf("unexpected empty details: %+v", missing)
	}
}

func TestConvertLegacyStandings(t *testing.T) {
	t.Parallel()

	raw := `{"response": [{"league": {"id": 357, "standings": [[
	  {"rank": 1, "team": {"id": 10, "name": "Dundalk"}, "points": 60, "goalsDiff": 25, "form": "WWWDL",
	   "all": {"played": 30, "win": 18, "draw": 6, "lose": 6, "goals": {"for": 50, "against": 25}}}
	]]}}]}`

	rows, err := ConvertLegacyStandings([]byte(raw))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected row count: got=%d want=1", len(rows))
	}
	row := rows[0]
	if row.TeamName != "Dundalk FC" || row.GoalsFor != 50 || row.GoalsAgainst != 25 || row.Points != 60 || row.Won != 18 {
		t.Fatalf("unexpected row: %+v", row)
	}

	empty, err := ConvertLegacyStandings([]byte(`{"response": []}`))
	if err != nil {
		t.Fatalf("convert empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty standings, got %d", len(empty))
	}
}
