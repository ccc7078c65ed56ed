package apifootball

import (
	"context"
	"net/url"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchthread-sync/internal/normalizer"
)

const (
	DefaultBaseURL = "https://v3.football.api-sports.io"
	// KeyHeader carries the account key on every request.
	KeyHeader = "x-apisports-key"

	defaultWindow = 20
)

type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

type ProviderConfig struct {
	Season int
	// Window is the number of fixtures requested for the upcoming and
	// completed views.
	Window int
}

// Provider reads the legacy fixtures payload shape.
type Provider struct {
	fetcher Fetcher
	season  int
	window  int
}

func NewProvider(fetcher Fetcher, cfg ProviderConfig) *Provider {
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	return &Provider{fetcher: fetcher, season: cfg.Season, window: window}
}

func (p *Provider) CompetitionMatches(ctx context.Context, competitionID int64, view fixture.View) ([]fixture.Fixture, error) {
	if competitionID <= 0 {
		return nil, errors.New("competition id must be greater than zero")
	}

	league := strconv.FormatInt(competitionID, 10)
	params := url.Values{}
	switch view {
	case fixture.ViewLive:
		params.Set("live", league)
	case fixture.ViewCompleted:
		params.Set("league", league)
		params.Set("season", strconv.Itoa(p.season))
		params.Set("last", strconv.Itoa(p.window))
	default:
		params.Set("league", league)
		params.Set("season", strconv.Itoa(p.season))
		params.Set("next", strconv.Itoa(p.window))
	}

	raw, err := p.fetcher.Fetch(ctx, "fixtures", params)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch fixtures competition=%d view=%s", competitionID, view)
	}

	items, err := normalizer.ConvertLegacyFixtures(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "competition=%d view=%s", competitionID, view)
	}
	for i := range items {
		if items[i].CompetitionID == 0 {
			items[i].CompetitionID = competitionID
		}
	}
	return items, nil
}

func (p *Provider) MatchDetails(ctx context.Context, matchID int64) (fixture.Details, error) {
	if matchID <= 0 {
		return fixture.Details{}, errors.New("match id must be greater than zero")
	}

	raw, err := p.fetcher.Fetch(ctx, "fixtures", url.Values{"id": {strconv.FormatInt(matchID, 10)}})
	if err != nil {
		return fixture.Details{}, errors.Wrapf(err, "fetch fixture details match=%d", matchID)
	}

	details, err := normalizer.ConvertLegacyDetails(raw, matchID)
	if err != nil {
		return fixture.Details{}, errors.Wrapf(err, "match=%d", matchID)
	}
	return details, nil
}

func (p *Provider) Standings(ctx context.Context, competitionID int64) ([]leaguestanding.Standing, error) {
	if competitionID <= 0 {
		return nil, errors.New("competition id must be greater than zero")
	}

	raw, err := p.fetcher.Fetch(ctx, "standings", url.Values{
		"league": {strconv.FormatInt(competitionID, 10)},
		"season": {strconv.Itoa(p.season)},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch standings competition=%d", competitionID)
	}

	rows, err := normalizer.ConvertLegacyStandings(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "competition=%d", competitionID)
	}
	return rows, nil
}
