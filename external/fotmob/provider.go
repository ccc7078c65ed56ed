package fotmob

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchthread-sync/internal/normalizer"
	"github.com/riskibarqy/matchthread-sync/internal/platform/cache"
)

const DefaultBaseURL = "https://www.fotmob.com/api"

const (
	leaguesEndpoint      = "leagues"
	matchDetailsEndpoint = "matchDetails"
)

// tabReuseWindow bounds how long a fetched tab payload answers further views
// of the same tab. The live and upcoming views both read the fixtures tab, so
// one run pays for it once.
const tabReuseWindow = time.Minute

// Fetcher returns raw JSON for an endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

// Provider reads the league/matches payload shape.
type Provider struct {
	fetcher Fetcher
	tabs    *cache.Store[[]byte]
}

func NewProvider(fetcher Fetcher) *Provider {
	return &Provider{
		fetcher: fetcher,
		tabs:    cache.NewStore[[]byte](tabReuseWindow),
	}
}

func (p *Provider) CompetitionMatches(ctx context.Context, competitionID int64, view fixture.View) ([]fixture.Fixture, error) {
	if competitionID <= 0 {
		return nil, errors.New("competition id must be greater than zero")
	}

	tab := "fixtures"
	if view == fixture.ViewCompleted {
		tab = "results"
	}

	raw, err := p.leagueTab(ctx, competitionID, tab)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch league matches competition=%d view=%s", competitionID, view)
	}

	items, err := normalizer.ConvertLeagueMatches(raw, competitionID, view)
	if err != nil {
		return nil, errors.Wrapf(err, "competition=%d view=%s", competitionID, view)
	}
	return items, nil
}

// leagueTab serves a recently fetched tab payload when there is one. Failures
// are never cached, so a refused call is not masked by an older payload.
func (p *Provider) leagueTab(ctx context.Context, competitionID int64, tab string) ([]byte, error) {
	key := strconv.FormatInt(competitionID, 10) + ":" + tab
	if raw, ok := p.tabs.Get(ctx, key); ok {
		return raw, nil
	}

	raw, err := p.fetcher.Fetch(ctx, leaguesEndpoint, url.Values{
		"id":  {strconv.FormatInt(competitionID, 10)},
		"tab": {tab},
	})
	if err != nil {
		return nil, err
	}
	p.tabs.Set(ctx, key, raw)
	return raw, nil
}

func (p *Provider) MatchDetails(ctx context.Context, matchID int64) (fixture.Details, error) {
	if matchID <= 0 {
		return fixture.Details{}, errors.New("match id must be greater than zero")
	}

	raw, err := p.fetcher.Fetch(ctx, matchDetailsEndpoint, url.Values{
		"matchId": {strconv.FormatInt(matchID, 10)},
	})
	if err != nil {
		return fixture.Details{}, errors.Wrapf(err, "fetch match details match=%d", matchID)
	}

	details, err := normalizer.ConvertMatchDetails(raw, matchID)
	if err != nil {
		return fixture.Details{}, errors.Wrapf(err, "match=%d", matchID)
	}
	return details, nil
}

func (p *Provider) Standings(ctx context.Context, competitionID int64) ([]leaguestanding.Standing, error) {
	if competitionID <= 0 {
		return nil, errors.New("competition id must be greater than zero")
	}

	raw, err := p.fetcher.Fetch(ctx, leaguesEndpoint, url.Values{
		"id": {strconv.FormatInt(competitionID, 10)},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch league table competition=%d", competitionID)
	}

	rows, err := normalizer.ConvertLeagueTable(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "competition=%d", competitionID)
	}
	return rows, nil
}
