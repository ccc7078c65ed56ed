// Package normalizer converts upstream payloads into the canonical fixture and
// standings model. Everything here is pure: no I/O and no clock.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
)

const defaultMaxTime = 45

// roundSeparator splits a qualifying prefix from the round name, as in
// "Regular Season - 12".
const roundSeparator = " - "

var (
	liveLabelStatusRegex  = regexp.MustCompile(`[^\dHT+]`)
	liveLabelElapsedRegex = regexp.MustCompile(`[^\d+]`)
)

var teamAliases = map[string]string{
	"St Patrick's Athl.": "St Patrick's Athletic",
	"Dundalk":            "Dundalk FC",
	"Kerry":              "Kerry FC",
	"Waterford":          "Waterford FC",
	"Wexford":            "Wexford FC",
}

var cupRoundNames = map[string]string{
	"1/4":   "Quarter-finals",
	"1/2":   "Semi-finals",
	"final": "Final",
}

// MatchState is the flag set a league/matches payload reports for a match.
type MatchState struct {
	Started   bool
	Finished  bool
	Cancelled bool
	LiveShort string
	MaxTime   *int
}

// DetermineStatus derives the canonical status from upstream flags and the
// live-time label.
func DetermineStatus(state MatchState) fixture.Status {
	switch {
	case state.Cancelled:
		return fixture.StatusCancelled
	case state.Finished:
		return fixture.StatusFullTime
	case !state.Started:
		return fixture.StatusNotStarted
	}

	clean := liveLabelStatusRegex.ReplaceAllString(state.LiveShort, "")
	if strings.Contains(clean, "HT") {
		return fixture.StatusHalfTime
	}
	if clean != "" {
		maxTime := defaultMaxTime
		if state.MaxTime != nil {
			maxTime = *state.MaxTime
		}
		if maxTime <= defaultMaxTime {
			return fixture.StatusFirstHalf
		}
		return fixture.StatusSecondHalf
	}
	return fixture.StatusLive
}

// ElapsedMinutes returns the base minute of an in-progress match. Injury time
// folds into the base minute, so "45+2" is 45. Nil means unknown.
func ElapsedMinutes(state MatchState) *int {
	if !state.Started || state.Finished {
		return nil
	}

	label := strings.TrimSpace(state.LiveShort)
	if label == "" || label == "HT" || label == "FT" {
		return nil
	}

	clean := liveLabelElapsedRegex.ReplaceAllString(label, "")
	base, _, _ := strings.Cut(clean, "+")
	if base == "" {
		return nil
	}
	minute, err := strconv.Atoi(base)
	if err != nil {
		return nil
	}
	return &minute
}

// ParseScoresStr splits a standings "GF-GA" string. Malformed or missing
// values yield (0, 0).
func ParseScoresStr(value string) (int, int) {
	left, right, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return 0, 0
	}
	goalsFor, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0
	}
	goalsAgainst, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0
	}
	return goalsFor, goalsAgainst
}

// parseScoreLine reads a fixture score such as "2 - 1". Unlike
// ParseScoresStr it reports absence instead of defaulting to zero.
func parseScoreLine(value string) (*int, *int) {
	left, right, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return nil, nil
	}
	home, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return nil, nil
	}
	away, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return nil, nil
	}
	return &home, &away
}

// NormalizeTeamName applies the alias table, then strips a trailing " FC".
func NormalizeTeamName(raw string) string {
	name := strings.TrimSpace(raw)
	if alias, ok := teamAliases[name]; ok {
		return alias
	}
	if trimmed, ok := strings.CutSuffix(name, " FC"); ok && trimmed != "" {
		return trimmed
	}
	return name
}

func newTeam(id int64, raw string) fixture.Team {
	raw = strings.TrimSpace(raw)
	return fixture.Team{ID: id, RawName: raw, Name: NormalizeTeamName(raw)}
}

// ExtractRound returns the part of a round label after the last separator.
func ExtractRound(label string) string {
	label = strings.TrimSpace(label)
	if idx := strings.LastIndex(label, roundSeparator); idx >= 0 {
		return strings.TrimSpace(label[idx+len(roundSeparator):])
	}
	return label
}

// RoundKey is the comparison key for round filtering.
func RoundKey(label string) string {
	return strings.ToLower(ExtractRound(label))
}

func newRound(raw string) fixture.Round {
	raw = strings.TrimSpace(raw)
	return fixture.Round{Raw: raw, Display: ExtractRound(raw)}
}

// FilterByRound keeps fixtures whose round key equals the key of round.
// Matching is exact: round "1" never matches "10" or "11".
func FilterByRound(items []fixture.Fixture, round string) []fixture.Fixture {
	key := RoundKey(round)
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if RoundKey(item.Round.Raw) == key {
			out = append(out, item)
		}
	}
	return out
}

// RoundDisplayName maps cup round codes to names, e.g. "1/4" to
// "Quarter-finals". Other labels return their extracted suffix.
func RoundDisplayName(label string) string {
	extracted := ExtractRound(label)
	if name, ok := cupRoundNames[strings.ToLower(extracted)]; ok {
		return name
	}
	return extracted
}

// RoundNumber returns the trailing integer of a round label, or 0.
func RoundNumber(label string) int {
	fields := strings.Fields(ExtractRound(label))
	if len(fields) == 0 {
		return 0
	}
	value, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0
	}
	return value
}

var kickoffLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseKickoff returns the zero time when raw matches no known layout.
func parseKickoff(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range kickoffLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
