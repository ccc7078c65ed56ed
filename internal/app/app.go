package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/matchthread-sync/external/apifootball"
	"github.com/riskibarqy/matchthread-sync/external/fotmob"
	"github.com/riskibarqy/matchthread-sync/external/reddit"
	"github.com/riskibarqy/matchthread-sync/external/upstream"
	"github.com/riskibarqy/matchthread-sync/internal/config"
	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/platform/id"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchthread-sync/internal/render"
	"github.com/riskibarqy/matchthread-sync/internal/usecase"
)

// App is one process worth of wiring: providers, sinks, state and services.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	states   stateStores
	limiter  *resilience.RateLimiter
	provider usecase.MatchProvider
	reddit   *reddit.Client
	dryRun   *reddit.DryRunSink

	renderer  usecase.Renderer
	standings *usecase.StandingsService
	sync      *usecase.MatchdaySyncService
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	states, err := openStateStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	policy, limiter, err := newPolicy(ctx, cfg, states.limiter, logger)
	if err != nil {
		_ = states.close()
		return nil, err
	}
	provider := newProvider(cfg, policy, logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		states:    states,
		limiter:   limiter,
		provider:  provider,
		renderer:  render.NewMarkdownRenderer(render.Config{Contact: cfg.BotContact}),
		standings: usecase.NewStandingsService(provider, cfg.StandingsCacheTTL, logger.Named("standings")),
	}
	if cfg.DryRun {
		a.dryRun = reddit.NewDryRunSink(id.NewUUIDGenerator(), logger)
	} else {
		a.reddit = reddit.NewClient(reddit.ClientConfig{
			AuthURL:      cfg.RedditAuthURL,
			BaseURL:      cfg.RedditBaseURL,
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
			Username:     cfg.RedditUsername,
			Password:     cfg.RedditPassword,
			UserAgent:    cfg.RedditUserAgent,
			Subreddit:    cfg.RedditSubreddit,
			ModActions:   cfg.RedditModActions,
			Timeout:      cfg.RedditTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.RedditCircuitEnabled,
				FailureThreshold: cfg.CircuitFailureCount,
				RecoveryWindow:   cfg.CircuitRecovery,
			},
		}, logger)
	}

	a.sync = usecase.NewMatchdaySyncService(
		provider,
		a.sinkFor(competition.Competition{}),
		a.renderer,
		states.syncStates,
		a.standings,
		usecase.MatchdaySyncConfig{
			Competitions: cfg.Competitions,
			HomeVenues:   homeVenues(cfg.Competitions),
		},
		logger.Named("sync"),
	)
	return a, nil
}

// newPolicy picks the upstream call policy. Budget mode restores the limiter
// state of earlier runs before anything is fetched.
func newPolicy(ctx context.Context, cfg config.Config, store resilience.StateStore, logger *logging.Logger) (resilience.Policy, *resilience.RateLimiter, error) {
	if cfg.UpstreamQuotaMode == config.QuotaModeSpacing {
		logger.Info("upstream quota mode", "mode", cfg.UpstreamQuotaMode, "min_interval", cfg.UpstreamMinInterval)
		return resilience.NewSpacingPolicy(resilience.NewSpacer(cfg.UpstreamMinInterval), cfg.MaxRetries), nil, nil
	}

	limiter := resilience.NewRateLimiter(resilience.LimiterConfig{
		DailyLimit:     cfg.DailyCallLimit,
		PerMinuteLimit: cfg.PerMinuteCallLimit,
		MaxRetries:     cfg.MaxRetries,
		Circuit: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CircuitEnabled,
			FailureThreshold: cfg.CircuitFailureCount,
			RecoveryWindow:   cfg.CircuitRecovery,
		},
		Location: limiterLocation(cfg.Competitions),
	}, store, logger.Named("limiter"))
	if err := limiter.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("load limiter state: %w", err)
	}
	return limiter, limiter, nil
}

// limiterLocation is the timezone the daily budget resets in.
func limiterLocation(comps []competition.Competition) *time.Location {
	if len(comps) == 0 {
		return competition.Competition{}.Location()
	}
	return comps[0].Location()
}

// homeVenues layers every competition's home_venues over the built-in table.
func homeVenues(comps []competition.Competition) map[string]string {
	overrides := make([]map[string]string, 0, len(comps))
	for _, comp := range comps {
		overrides = append(overrides, comp.HomeVenues)
	}
	return usecase.HomeVenues(overrides...)
}

func newProvider(cfg config.Config, policy resilience.Policy, logger *logging.Logger) usecase.MatchProvider {
	headers := map[string]string{"User-Agent": cfg.UpstreamUserAgent}
	if cfg.UpstreamAPIKey != "" {
		headers["x-apisports-key"] = cfg.UpstreamAPIKey
	}
	client := upstream.NewClient(upstream.ClientConfig{
		BaseURL: cfg.UpstreamBaseURL,
		Headers: headers,
		Timeout: cfg.UpstreamTimeout,
		Policy:  policy,
		Logger:  logger.Named("upstream"),
	})

	if cfg.UpstreamProvider == config.ProviderAPIFootball {
		return apifootball.NewProvider(client, apifootball.ProviderConfig{Season: cfg.UpstreamSeason})
	}
	return fotmob.NewProvider(client)
}

// sinkFor returns the post sink for comp, tagging new posts with its flair.
func (a *App) sinkFor(comp competition.Competition) usecase.PostSink {
	if a.dryRun != nil {
		return a.dryRun
	}
	if comp.FlairID != "" {
		return a.reddit.WithFlair(comp.FlairID)
	}
	return a.reddit
}

// Sync runs one match-day sync pass.
func (a *App) Sync(ctx context.Context) (usecase.SyncReport, error) {
	report, err := a.sync.Run(ctx)
	if a.limiter != nil {
		stats := a.limiter.Stats()
		a.logger.InfoContext(ctx, "upstream limiter stats",
			"daily_calls", stats.DailyCalls,
			"daily_limit", stats.DailyLimit,
			"remaining_daily", stats.RemainingDaily,
			"minute_calls", stats.MinuteCalls,
			"per_minute_limit", stats.PerMinuteLimit,
			"circuit_open", stats.CircuitOpen,
			"consecutive_failures", stats.ConsecutiveFailures,
			"polling_interval", stats.PollingInterval,
		)
	}
	return report, err
}

// Publish opens a new thread for the competition with the given key.
func (a *App) Publish(ctx context.Context, key string) (syncstate.CompetitionState, error) {
	comp, ok := a.cfg.CompetitionByKey(key)
	if !ok {
		return syncstate.CompetitionState{}, fmt.Errorf("%w: unknown competition %q", usecase.ErrInvalidInput, key)
	}

	svc := usecase.NewThreadPublishService(
		a.provider,
		a.sinkFor(comp),
		a.renderer,
		a.states.syncStates,
		a.standings,
		usecase.ThreadPublishConfig{
			Window:     a.cfg.WeeklyWindow,
			HomeVenues: homeVenues(a.cfg.Competitions),
		},
		a.logger.Named("publish"),
	)
	return svc.Publish(ctx, comp)
}

// PollingInterval is the advised delay before the next run. Spacing mode has
// no daily budget, so it advises the interval for an unused one.
func (a *App) PollingInterval() time.Duration {
	if a.limiter == nil {
		return resilience.PollingIntervalFor(a.cfg.DailyCallLimit)
	}
	return a.limiter.PollingInterval()
}

func (a *App) Close() error {
	if a == nil || a.states.close == nil {
		return nil
	}
	return a.states.close()
}

// IsUsageError reports errors caused by bad command input rather than a
// failing dependency.
func IsUsageError(err error) bool {
	return errors.Is(err, usecase.ErrInvalidInput)
}
