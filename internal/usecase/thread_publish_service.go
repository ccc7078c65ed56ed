package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/normalizer"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
)

const leagueThreadWindow = 7 * 24 * time.Hour

type ThreadPublishConfig struct {
	HomeVenues map[string]string
	// Window is how far ahead a league thread reaches. Defaults to 7 days.
	Window time.Duration
	Clock  func() time.Time
}

// ThreadPublishService opens a new discussion thread for a competition and
// starts tracking its match-days.
type ThreadPublishService struct {
	provider   MatchProvider
	sink       PostSink
	renderer   Renderer
	states     syncstate.Repository
	standings  *StandingsService
	homeVenues map[string]string
	window     time.Duration
	now        func() time.Time
	logger     *logging.Logger
}

func NewThreadPublishService(
	provider MatchProvider,
	sink PostSink,
	renderer Renderer,
	states syncstate.Repository,
	standings *StandingsService,
	cfg ThreadPublishConfig,
	logger *logging.Logger,
) *ThreadPublishService {
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	window := cfg.Window
	if window <= 0 {
		window = leagueThreadWindow
	}
	if standings == nil {
		standings = NewStandingsService(provider, DefaultStandingsTTL, logger)
	}

	return &ThreadPublishService{
		provider:   provider,
		sink:       sink,
		renderer:   renderer,
		states:     states,
		standings:  standings,
		homeVenues: cfg.HomeVenues,
		window:     window,
		now:        now,
		logger:     logger,
	}
}

// Publish submits a thread for comp and persists its tracking state. Leagues
// cover the next seven days; cups cover the current round.
func (s *ThreadPublishService) Publish(ctx context.Context, comp competition.Competition) (syncstate.CompetitionState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ThreadPublishService.Publish")
	defer span.End()

	loc := comp.Location()
	now := s.now().In(loc)
	today := now.Format(time.DateOnly)

	existing, exists, err := s.states.Get(ctx, comp.Key)
	if err != nil {
		return syncstate.CompetitionState{}, fmt.Errorf("get competition sync state: %w", err)
	}
	if exists && existing.PostID != "" && hasDateOnOrAfter(existing.TrackedDates, today) {
		return existing, fmt.Errorf("%w: competition=%s already has open thread post=%s", ErrInvalidInput, comp.Key, existing.PostID)
	}

	reconciler := NewReconciler(s.provider, s.homeVenues, s.logger)
	all, err := reconciler.Weekly(ctx, comp.ProviderID)
	if err != nil {
		return syncstate.CompetitionState{}, err
	}

	var (
		selected []fixture.Fixture
		round    fixture.Round
	)
	if comp.IsCup() {
		var ok bool
		round, ok = CurrentRound(all)
		if ok {
			selected = normalizer.FilterByRound(all, round.Raw)
		}
	} else {
		selected = fixturesWithin(all, now, now.Add(s.window))
		round, _ = CurrentRound(selected)
	}
	if len(selected) == 0 {
		return syncstate.CompetitionState{}, fmt.Errorf("%w: no fixtures to publish for competition=%s", ErrNotFound, comp.Key)
	}
	selected = reconciler.Enrich(ctx, selected)

	var standings []leaguestanding.Standing
	if !comp.IsCup() {
		standings = s.standings.Table(ctx, comp)
	}

	body, err := s.renderer.Render(ThreadDocument{
		Competition: comp,
		Round:       round,
		Fixtures:    selected,
		Standings:   standings,
		Location:    loc,
	})
	if err != nil {
		return syncstate.CompetitionState{}, fmt.Errorf("render thread competition=%s: %w", comp.Key, err)
	}

	title := ThreadTitle(comp, round, now)
	postID, err := s.sink.Submit(ctx, title, body)
	if err != nil {
		return syncstate.CompetitionState{}, fmt.Errorf("%w: submit competition=%s: %w", ErrPublishFailed, comp.Key, err)
	}

	publishedAt := s.now().UTC()
	dates := syncstate.NormalizeDates(matchDates(selected, loc))
	state := syncstate.CompetitionState{
		CompetitionKey:    comp.Key,
		PostID:            postID,
		TrackedDates:      dates,
		ThreadDates:       dates,
		RoundLabel:        round.Raw,
		LastPublishedHash: contentHash(body),
		LastPublishedAt:   &publishedAt,
	}
	if err := s.states.Upsert(ctx, state); err != nil {
		return state, fmt.Errorf("persist competition sync state post=%s: %w", postID, err)
	}

	s.logger.InfoContext(ctx, "thread published",
		"competition", comp.Key,
		"post_id", postID,
		"title", title,
		"match_dates", dates,
	)
	return state, nil
}

func fixturesWithin(items []fixture.Fixture, from, to time.Time) []fixture.Fixture {
	startOfDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if item.KickoffAt.IsZero() {
			continue
		}
		if !item.KickoffAt.Before(startOfDay) && item.KickoffAt.Before(to) {
			out = append(out, item)
		}
	}
	return out
}

func hasDateOnOrAfter(dates []string, day string) bool {
	for _, date := range dates {
		if date >= day {
			return true
		}
	}
	return false
}
