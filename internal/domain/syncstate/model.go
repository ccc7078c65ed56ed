package syncstate

import (
	"slices"
	"time"
)

// CompetitionState tracks the published thread of one competition.
type CompetitionState struct {
	CompetitionKey    string
	PostID            string
	TrackedDates      []string
	// ThreadDates is every match date the thread covers. Unlike TrackedDates
	// it does not shrink as match-days complete.
	ThreadDates       []string
	RoundLabel        string
	LastPublishedHash string
	LastPublishedAt   *time.Time
}

// Tracks reports whether date (YYYY-MM-DD) is still tracked.
func (s CompetitionState) Tracks(date string) bool {
	return slices.Contains(s.TrackedDates, date)
}

// WithoutDate returns a copy with date removed from the tracked set.
func (s CompetitionState) WithoutDate(date string) CompetitionState {
	out := s
	out.TrackedDates = make([]string, 0, len(s.TrackedDates))
	for _, item := range s.TrackedDates {
		if item != date {
			out.TrackedDates = append(out.TrackedDates, item)
		}
	}
	return out
}

// CoveredDates is the date scope of the thread body.
func (s CompetitionState) CoveredDates() []string {
	if len(s.ThreadDates) > 0 {
		return s.ThreadDates
	}
	return s.TrackedDates
}

// Cleared reports whether every tracked match-day has been completed.
func (s CompetitionState) Cleared() bool {
	return len(s.TrackedDates) == 0
}

// NormalizeDates sorts and de-duplicates a tracked date set.
func NormalizeDates(dates []string) []string {
	out := make([]string, 0, len(dates))
	for _, date := range dates {
		if date == "" {
			continue
		}
		out = append(out, date)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
