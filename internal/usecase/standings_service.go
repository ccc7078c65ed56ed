package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchthread-sync/internal/platform/cache"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
)

const DefaultStandingsTTL = 30 * time.Minute

// StandingsService serves league tables from a TTL cache and falls back to the
// last good table when the upstream fails.
type StandingsService struct {
	provider MatchProvider
	cache    *cache.Store[[]leaguestanding.Standing]
	logger   *logging.Logger
}

func NewStandingsService(provider MatchProvider, ttl time.Duration, logger *logging.Logger) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = DefaultStandingsTTL
	}
	return &StandingsService{
		provider: provider,
		cache:    cache.NewStore[[]leaguestanding.Standing](ttl),
		logger:   logger,
	}
}

// Table never fails: without a fresh or stale table it returns an empty one.
func (s *StandingsService) Table(ctx context.Context, comp competition.Competition) []leaguestanding.Standing {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.Table")
	defer span.End()

	key := strconv.FormatInt(comp.ProviderID, 10)
	result, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]leaguestanding.Standing, error) {
		return s.provider.Standings(ctx, comp.ProviderID)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "league table unavailable, rendering without it",
			"competition", comp.Key,
			"error", err,
		)
		return []leaguestanding.Standing{}
	}
	if result.Stale {
		s.logger.WarnContext(ctx, "serving stale league table",
			"competition", comp.Key,
			"stored_at", result.StoredAt,
			"error", result.LoadErr,
		)
	}
	return result.Value
}
