package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/normalizer"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
	"github.com/sourcegraph/conc/panics"
)

type MatchdaySyncConfig struct {
	Competitions []competition.Competition
	HomeVenues   map[string]string
	Clock        func() time.Time
}

// SyncReport summarizes one run.
type SyncReport struct {
	Active    int
	Published int
	Unchanged int
	Skipped   int
	Failed    int
	// Cleared lists "<competition>:<date>" match-days removed this run.
	Cleared []string
}

// MatchdaySyncService keeps open threads in step with upstream data. It is
// meant to be invoked once per scheduler tick.
type MatchdaySyncService struct {
	provider     MatchProvider
	sink         PostSink
	renderer     Renderer
	states       syncstate.Repository
	standings    *StandingsService
	competitions []competition.Competition
	homeVenues   map[string]string
	now          func() time.Time
	logger       *logging.Logger

	// publishedHashes short-circuits the persisted hash check within one
	// process.
	publishedHashes map[string]string
}

func NewMatchdaySyncService(
	provider MatchProvider,
	sink PostSink,
	renderer Renderer,
	states syncstate.Repository,
	standings *StandingsService,
	cfg MatchdaySyncConfig,
	logger *logging.Logger,
) *MatchdaySyncService {
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	if standings == nil {
		standings = NewStandingsService(provider, DefaultStandingsTTL, logger)
	}

	return &MatchdaySyncService{
		provider:        provider,
		sink:            sink,
		renderer:        renderer,
		states:          states,
		standings:       standings,
		competitions:    cfg.Competitions,
		homeVenues:      cfg.HomeVenues,
		now:             now,
		logger:          logger,
		publishedHashes: make(map[string]string),
	}
}

// Run performs one sync pass over every competition with a match-day today.
// Failures are isolated per competition and reported in the SyncReport; only
// a state load failure aborts the run.
func (s *MatchdaySyncService) Run(ctx context.Context) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchdaySyncService.Run")
	defer span.End()

	states, err := s.states.List(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("list competition sync states: %w", err)
	}
	byKey := make(map[string]syncstate.CompetitionState, len(states))
	for _, state := range states {
		byKey[state.CompetitionKey] = state
	}

	type activeCompetition struct {
		comp  competition.Competition
		state syncstate.CompetitionState
		today string
	}
	active := make([]activeCompetition, 0, len(s.competitions))
	for _, comp := range s.competitions {
		state, ok := byKey[comp.Key]
		if !ok || state.PostID == "" {
			continue
		}
		today := s.now().In(comp.Location()).Format(time.DateOnly)
		if state.Tracks(today) {
			active = append(active, activeCompetition{comp: comp, state: state, today: today})
		}
	}

	report := SyncReport{Active: len(active)}
	if len(active) == 0 {
		s.logger.InfoContext(ctx, "no tracked match-day today, nothing to sync")
		return report, nil
	}

	reconciler := NewReconciler(s.provider, s.homeVenues, s.logger)
	for _, item := range active {
		var outcome syncOutcome
		var syncErr error
		var catcher panics.Catcher
		catcher.Try(func() {
			outcome, syncErr = s.syncCompetition(ctx, reconciler, item.comp, item.state, item.today)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			syncErr = fmt.Errorf("competition %s panicked: %w", item.comp.Key, recovered.AsError())
		}

		switch {
		case syncErr == nil:
		case resilience.IsSkippable(syncErr):
			report.Skipped++
			s.logger.WarnContext(ctx, "skip competition this cycle",
				"competition", item.comp.Key,
				"error", syncErr,
			)
			continue
		default:
			report.Failed++
			s.logger.ErrorContext(ctx, "competition sync failed",
				"competition", item.comp.Key,
				"error", syncErr,
			)
			continue
		}

		if outcome.published {
			report.Published++
		} else {
			report.Unchanged++
		}
		if outcome.clearedDate != "" {
			report.Cleared = append(report.Cleared, item.comp.Key+":"+outcome.clearedDate)
		}
	}

	s.logger.InfoContext(ctx, "sync run finished",
		"active", report.Active,
		"published", report.Published,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"cleared", report.Cleared,
	)
	return report, nil
}

type syncOutcome struct {
	published   bool
	clearedDate string
}

func (s *MatchdaySyncService) syncCompetition(
	ctx context.Context,
	reconciler *Reconciler,
	comp competition.Competition,
	state syncstate.CompetitionState,
	today string,
) (syncOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchdaySyncService.syncCompetition")
	defer span.End()

	live, err := reconciler.Live(ctx, comp.ProviderID)
	if err != nil {
		return syncOutcome{}, err
	}
	weekly, err := reconciler.Weekly(ctx, comp.ProviderID)
	if err != nil {
		return syncOutcome{}, err
	}

	loc := comp.Location()
	fixtures := threadFixtures(fixture.MergeByID(weekly, live), comp, state, loc)
	fixtures = reconciler.Enrich(ctx, fixtures)

	var standings []leaguestanding.Standing
	if !comp.IsCup() {
		standings = s.standings.Table(ctx, comp)
	}
	round, _ := CurrentRound(fixtures)
	if comp.IsCup() && state.RoundLabel != "" {
		round = fixture.Round{Raw: state.RoundLabel, Display: normalizer.ExtractRound(state.RoundLabel)}
	}

	body, err := s.renderer.Render(ThreadDocument{
		Competition: comp,
		Round:       round,
		Fixtures:    fixtures,
		Standings:   standings,
		Location:    loc,
	})
	if err != nil {
		return syncOutcome{}, fmt.Errorf("render thread competition=%s: %w", comp.Key, err)
	}

	outcome := syncOutcome{}
	hash := contentHash(body)
	if s.publishedHashes[comp.Key] == hash || state.LastPublishedHash == hash {
		s.logger.DebugContext(ctx, "thread body unchanged, skip update", "competition", comp.Key)
		s.publishedHashes[comp.Key] = hash
	} else {
		// On failure the date stays tracked so the next run retries the edit.
		ok, err := s.sink.Update(ctx, state.PostID, body)
		if err != nil {
			return syncOutcome{}, fmt.Errorf("%w: update post=%s competition=%s: %w", ErrPublishFailed, state.PostID, comp.Key, err)
		}
		if !ok {
			return syncOutcome{}, fmt.Errorf("%w: post=%s competition=%s edit rejected", ErrPublishFailed, state.PostID, comp.Key)
		}

		publishedAt := s.now().UTC()
		state.LastPublishedHash = hash
		state.LastPublishedAt = &publishedAt
		if err := s.states.Upsert(ctx, state); err != nil {
			return syncOutcome{}, fmt.Errorf("persist published hash competition=%s: %w", comp.Key, err)
		}
		s.publishedHashes[comp.Key] = hash
		outcome.published = true
		s.logger.InfoContext(ctx, "thread updated", "competition", comp.Key, "post_id", state.PostID)
	}

	if matchDayComplete(fixtures, today, loc) {
		state = state.WithoutDate(today)
		if err := s.states.Upsert(ctx, state); err != nil {
			return outcome, fmt.Errorf("persist cleared match-day competition=%s: %w", comp.Key, err)
		}
		outcome.clearedDate = today
		s.logger.InfoContext(ctx, "match-day complete, date cleared",
			"competition", comp.Key,
			"date", today,
			"remaining_dates", state.TrackedDates,
		)
	}
	return outcome, nil
}

// threadFixtures narrows the merged set to what the thread covers: the
// stored round for cups, the thread's match dates otherwise.
func threadFixtures(items []fixture.Fixture, comp competition.Competition, state syncstate.CompetitionState, loc *time.Location) []fixture.Fixture {
	if comp.IsCup() && state.RoundLabel != "" {
		return normalizer.FilterByRound(items, state.RoundLabel)
	}

	dates := state.CoveredDates()
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if slices.Contains(dates, item.LocalDate(loc)) {
			out = append(out, item)
		}
	}
	return out
}

// matchDayComplete reports whether every fixture kicking off on date has a
// terminal status. A date with no fixtures at all counts as complete.
func matchDayComplete(items []fixture.Fixture, date string, loc *time.Location) bool {
	for _, item := range items {
		if item.LocalDate(loc) != date {
			continue
		}
		if !fixture.IsTerminalStatus(item.Status) {
			return false
		}
	}
	return true
}

func contentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
