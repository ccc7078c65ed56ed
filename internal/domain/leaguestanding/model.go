package leaguestanding

import "strings"

// Standing represents a league table row for one team.
type Standing struct {
	Position       int
	TeamID         int64
	TeamName       string
	Played         int
	Won            int
	Draw           int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	// Form holds W/D/L results, most recent last.
	Form string
}

// RecentForm returns at most the last n form results.
func (s Standing) RecentForm(n int) string {
	form := strings.ToUpper(strings.TrimSpace(s.Form))
	if n <= 0 || len(form) <= n {
		return form
	}
	return form[len(form)-n:]
}
