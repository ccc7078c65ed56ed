package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

// defaultHomeVenues is the last-resort ground lookup keyed by normalized home
// team name.
var defaultHomeVenues = map[string]string{
	"Athlone Town":          "Athlone Town Stadium",
	"Bohemians":             "Dalymount Park",
	"Bray Wanderers":        "Carlisle Grounds",
	"Cobh Ramblers":         "St. Colman's Park",
	"Cork City":             "Turner's Cross",
	"Derry City":            "The Ryan McBride Brandywell Stadium",
	"Drogheda United":       "Weavers Park",
	"Dundalk FC":            "Oriel Park",
	"Finn Harps":            "Finn Park",
	"Galway United":         "Eamonn Deacy Park",
	"Kerry FC":              "Mounthawk Park",
	"Longford Town":         "Bishopsgate",
	"Shamrock Rovers":       "Tallaght Stadium",
	"Shelbourne":            "Tolka Park",
	"Sligo Rovers":          "The Showgrounds",
	"St Patrick's Athletic": "Richmond Park",
	"Treaty United":         "Markets Field",
	"UCD":                   "UCD Bowl",
	"Waterford FC":          "RSC",
	"Wexford FC":            "Ferrycarrig Park",
}

// HomeVenues returns the built-in venue table with overrides applied in order.
func HomeVenues(overrides ...map[string]string) map[string]string {
	out := make(map[string]string, len(defaultHomeVenues))
	for team, venue := range defaultHomeVenues {
		out[team] = venue
	}
	for _, override := range overrides {
		for team, venue := range override {
			out[team] = venue
		}
	}
	return out
}

// Reconciler merges upstream views into one fixture set and backfills missing
// score, venue and scorer data. One Reconciler serves one run; its caches are
// never shared across runs.
type Reconciler struct {
	provider   MatchProvider
	logger     *logging.Logger
	homeVenues map[string]string

	details map[int64]fixture.Details
	events  map[int64][]fixture.GoalEvent
	// halted stops further detail lookups once the upstream refused a call.
	halted bool
}

func NewReconciler(provider MatchProvider, homeVenues map[string]string, logger *logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Default()
	}
	if homeVenues == nil {
		homeVenues = defaultHomeVenues
	}
	return &Reconciler{
		provider:   provider,
		logger:     logger,
		homeVenues: homeVenues,
		details:    make(map[int64]fixture.Details),
		events:     make(map[int64][]fixture.GoalEvent),
	}
}

// Weekly fetches the upcoming and completed views and merges them by id, the
// completed version winning. The result is not enriched; callers narrow it to
// the thread first and pass that subset to Enrich.
func (r *Reconciler) Weekly(ctx context.Context, competitionID int64) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Reconciler.Weekly")
	defer span.End()

	upcoming, err := r.provider.CompetitionMatches(ctx, competitionID, fixture.ViewUpcoming)
	if err != nil {
		return nil, fmt.Errorf("fetch upcoming fixtures competition=%d: %w", competitionID, err)
	}
	completed, err := r.provider.CompetitionMatches(ctx, competitionID, fixture.ViewCompleted)
	if err != nil {
		return nil, fmt.Errorf("fetch completed fixtures competition=%d: %w", competitionID, err)
	}

	return fixture.MergeByID(upcoming, completed), nil
}

// Live fetches only in-progress fixtures, unenriched.
func (r *Reconciler) Live(ctx context.Context, competitionID int64) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Reconciler.Live")
	defer span.End()

	items, err := r.provider.CompetitionMatches(ctx, competitionID, fixture.ViewLive)
	if err != nil {
		return nil, fmt.Errorf("fetch live fixtures competition=%d: %w", competitionID, err)
	}
	return items, nil
}

// Enrich backfills each fixture and resolves goal attribution. Every fixture
// passed in may cost a detail lookup, so pass only what will be rendered.
// Lookup failures leave the fixture as it was.
func (r *Reconciler) Enrich(ctx context.Context, items []fixture.Fixture) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if needsBackfill(item) {
			if details, ok := r.lookupDetails(ctx, item.ID); ok {
				item = applyDetails(item, details)
				if len(details.Events) > 0 {
					r.events[item.ID] = details.Events
				}
			}
		}
		if !item.HasVenue() {
			if venue, ok := r.homeVenues[item.Home.Name]; ok {
				item.Venue = venue
			}
		}
		if len(item.Events) == 0 {
			item.Events = r.events[item.ID]
		}
		item.Events = r.attribute(ctx, item)
		out = append(out, item)
	}
	return out
}

func needsBackfill(item fixture.Fixture) bool {
	if item.Status == fixture.StatusNotStarted {
		return false
	}
	return !item.HasScore() || !item.HasVenue()
}

func (r *Reconciler) lookupDetails(ctx context.Context, matchID int64) (fixture.Details, bool) {
	if cached, ok := r.details[matchID]; ok {
		return cached, true
	}
	if r.halted {
		return fixture.Details{}, false
	}

	details, err := r.provider.MatchDetails(ctx, matchID)
	if err != nil {
		if resilience.IsSkippable(err) {
			r.halted = true
		}
		r.logger.WarnContext(ctx, "match detail lookup failed", "match_id", matchID, "error", err)
		return fixture.Details{}, false
	}
	r.details[matchID] = details
	return details, true
}

func applyDetails(item fixture.Fixture, details fixture.Details) fixture.Fixture {
	if item.HomeGoals == nil && details.HomeGoals != nil {
		value := *details.HomeGoals
		item.HomeGoals = &value
	}
	if item.AwayGoals == nil && details.AwayGoals != nil {
		value := *details.AwayGoals
		item.AwayGoals = &value
	}
	if !item.HasVenue() && strings.TrimSpace(details.Venue) != "" {
		item.Venue = strings.TrimSpace(details.Venue)
	}
	if len(details.Events) > 0 {
		item.Events = details.Events
	}
	return item
}

// attribute assigns a side to every goal. An explicit upstream flag is always
// trusted; otherwise the event team label is compared to the home team name,
// which misattributes when the two use different name variants.
func (r *Reconciler) attribute(ctx context.Context, item fixture.Fixture) []fixture.GoalEvent {
	if len(item.Events) == 0 {
		return nil
	}

	out := make([]fixture.GoalEvent, 0, len(item.Events))
	for _, event := range item.Events {
		if event.SideExplicit && event.Side != "" {
			out = append(out, event)
			continue
		}

		teamName := strings.TrimSpace(event.TeamName)
		if teamName == "" {
			r.logger.WarnContext(ctx, "drop goal without side or team",
				"match_id", item.ID,
				"scorer", event.Scorer,
			)
			continue
		}

		event.SideExplicit = false
		if teamName == item.Home.RawName || teamName == item.Home.Name {
			event.Side = fixture.SideHome
		} else {
			event.Side = fixture.SideAway
		}
		r.logger.WarnContext(ctx, "goal side inferred from team name",
			"match_id", item.ID,
			"scorer", event.Scorer,
			"team", teamName,
			"home_team", item.Home.RawName,
			"side", event.Side,
		)
		out = append(out, event)
	}
	return out
}
