package fixture

import (
	"strings"
	"time"
)

// Status is the canonical match state.
type Status string

const (
	StatusNotStarted     Status = "NS"
	StatusFirstHalf      Status = "1H"
	StatusHalfTime       Status = "HT"
	StatusSecondHalf     Status = "2H"
	StatusExtraTime      Status = "ET"
	StatusPenalties      Status = "P"
	StatusFullTime       Status = "FT"
	StatusAfterExtraTime Status = "AET"
	StatusAfterPenalties Status = "PEN"
	StatusLive           Status = "LIVE"
	StatusCancelled      Status = "CANC"
	StatusAbandoned      Status = "ABD"
	StatusPostponed      Status = "PST"
	StatusAwarded        Status = "AWD"
	StatusWalkover       Status = "WO"
)

// View selects which upstream listing a fixture set comes from.
type View string

const (
	ViewUpcoming  View = "upcoming"
	ViewCompleted View = "completed"
	ViewLive      View = "live"
)

// Side identifies the team a goal is credited to.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

const UnknownVenue = "TBD"

// Team is a club reference as seen in one payload.
type Team struct {
	ID      int64
	RawName string
	Name    string
}

// GoalEvent is one goal in a fixture.
type GoalEvent struct {
	Scorer  string
	Minute  int
	Penalty bool
	OwnGoal bool
	Side    Side
	// SideExplicit is false when Side was derived from team-name equality.
	SideExplicit bool
	// TeamName is the upstream team label, used only when no side flag exists.
	TeamName string
}

// Round keeps the raw upstream label next to its display suffix.
type Round struct {
	Raw     string
	Display string
}

// Fixture represents one match across polls.
type Fixture struct {
	ID            int64
	CompetitionID int64
	KickoffAt     time.Time
	Round         Round
	Venue         string
	Status        Status
	Elapsed       *int
	Home          Team
	Away          Team
	HomeGoals     *int
	AwayGoals     *int
	Events        []GoalEvent
}

// Details is the enrichment data returned by a per-match lookup.
type Details struct {
	MatchID   int64
	Venue     string
	HomeName  string
	AwayName  string
	HomeGoals *int
	AwayGoals *int
	Events    []GoalEvent
}

func (f Fixture) HasScore() bool {
	return f.HomeGoals != nil && f.AwayGoals != nil
}

func (f Fixture) HasVenue() bool {
	venue := strings.TrimSpace(f.Venue)
	return venue != "" && !strings.EqualFold(venue, UnknownVenue)
}

// LocalDate returns the kickoff calendar date in loc as YYYY-MM-DD.
func (f Fixture) LocalDate(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return f.KickoffAt.In(loc).Format(time.DateOnly)
}

func IsTerminalStatus(status Status) bool {
	switch status {
	case StatusFullTime, StatusAfterExtraTime, StatusAfterPenalties,
		StatusCancelled, StatusAbandoned, StatusPostponed, StatusAwarded, StatusWalkover:
		return true
	default:
		return false
	}
}

func IsLiveStatus(status Status) bool {
	switch status {
	case StatusFirstHalf, StatusHalfTime, StatusSecondHalf, StatusExtraTime, StatusPenalties, StatusLive:
		return true
	default:
		return false
	}
}

// ParseStatus maps a short upstream code onto Status. Unknown codes map to Live
// so an in-progress match is never treated as finished.
func ParseStatus(code string) Status {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "", "NS", "TBD":
		return StatusNotStarted
	case "1H":
		return StatusFirstHalf
	case "HT":
		return StatusHalfTime
	case "2H":
		return StatusSecondHalf
	case "ET", "BT":
		return StatusExtraTime
	case "P":
		return StatusPenalties
	case "FT":
		return StatusFullTime
	case "AET":
		return StatusAfterExtraTime
	case "PEN":
		return StatusAfterPenalties
	case "CANC":
		return StatusCancelled
	case "ABD":
		return StatusAbandoned
	case "PST":
		return StatusPostponed
	case "AWD":
		return StatusAwarded
	case "WO":
		return StatusWalkover
	default:
		return StatusLive
	}
}

// MergeByID overlays fixtures from next onto base keyed by ID. Entries from
// next win; order follows base with new IDs appended.
func MergeByID(base, next []Fixture) []Fixture {
	index := make(map[int64]int, len(base))
	out := make([]Fixture, 0, len(base)+len(next))
	for _, item := range base {
		if pos, ok := index[item.ID]; ok {
			out[pos] = item
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	for _, item := range next {
		if pos, ok := index[item.ID]; ok {
			out[pos] = item
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}
