package fotmob

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

type fetchCall struct {
	endpoint string
	params   url.Values
}

type stubFetcher struct {
	body  string
	err   error
	calls []fetchCall
}

func (s *stubFetcher) Fetch(_ context.Context, endpoint string, params url.Values) ([]byte, error) {
	s.calls = append(s.calls, fetchCall{endpoint: endpoint, params: params})
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

const resultsPayload = `{"results": {"allMatches": [
  {"id": 77, "round": "12", "home": {"id": 1, "name": "Derry City FC"}, "away": {"id": 2, "name": "Kerry"},
   "status": {"utcTime": "2026-10-10T18:45:00Z", "started": true, "finished": true, "score": {"home": 3, "away": 0}}}
]}}`

func TestProvider_CompetitionMatches_CompletedUsesResultsTab(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{body: resultsPayload}
	provider := NewProvider(fetcher)

	items, err := provider.CompetitionMatches(context.Background(), 126, fixture.ViewCompleted)
	if err != nil {
		t.Fatalf("competition matches: %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("unexpected call count: got=%d want=1", len(fetcher.calls))
	}
	call := fetcher.calls[0]
	if call.endpoint != "leagues" || call.params.Get("id") != "126" || call.params.Get("tab") != "results" {
		t.Fatalf("unexpected request: %s %v", call.endpoint, call.params)
	}
	if len(items) != 1 || items[0].Status != fixture.StatusFullTime || items[0].Away.Name != "Kerry FC" {
		t.Fatalf("unexpected fixtures: %+v", items)
	}
}

func TestProvider_CompetitionMatches_LiveUsesFixturesTab(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{body: `{"fixtures": {"allMatches": []}}`}
	provider := NewProvider(fetcher)

	items, err := provider.CompetitionMatches(context.Background(), 218, fixture.ViewLive)
	if err != nil {
		t.Fatalf("competition matches: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no live fixtures, got %d", len(items))
	}
	if got := fetcher.calls[0].params.Get("tab"); got != "fixtures" {
		t.Fatalf("unexpected tab: got=%s want=fixtures", got)
	}
}

func TestProvider_KeepsFetchErrorClassification(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&stubFetcher{err: resilience.ErrCircuitOpen})

	_, err := provider.Standings(context.Background(), 126)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected circuit open to survive wrapping, got %v", err)
	}
	if !resilience.IsSkippable(err) {
		t.Fatalf("expected skippable error")
	}
}

func TestProvider_MatchDetails(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{body: `{"header": {"teams": [{"name": "A", "score": 1}, {"name": "B", "score": 1}]},
	  "content": {"matchFacts": {"infoBox": {"Stadium": {"name": "Brandywell"}}}}}`}
	provider := NewProvider(fetcher)

	details, err := provider.MatchDetails(context.Background(), 77)
	if err != nil {
		t.Fatalf("match details: %v", err)
	}
	if got := fetcher.calls[0].params.Get("matchId"); got != "77" {
		t.Fatalf("unexpected match id param: got=%s want=77", got)
	}
	if details.Venue != "Brandywell" || details.HomeGoals == nil || *details.HomeGoals != 1 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestProvider_RejectsInvalidIDs(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	provider := NewProvider(fetcher)

	if _, err := provider.CompetitionMatches(context.Background(), 0, fixture.ViewUpcoming); err == nil {
		t.Fatalf("expected error for zero competition id")
	}
	if _, err := provider.MatchDetails(context.Background(), -1); err == nil {
		t.Fatalf("expected error for negative match id")
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("expected no fetches, got %d", len(fetcher.calls))
	}
}

const fixturesPayload = `{"fixtures": {"allMatches": [
  {"id": 81, "round": "33", "home": {"id": 1, "name": "Shelbourne"}, "away": {"id": 2, "name": "Bohemian FC"},
   "status": {"utcTime": "2026-10-16T18:45:00Z", "started": true, "finished": false, "score": {"home": 1, "away": 0}}},
  {"id": 82, "round": "33", "home": {"id": 3, "name": "Galway United"}, "away": {"id": 4, "name": "Sligo Rovers"},
   "status": {"utcTime": "2026-10-17T19:45:00Z", "started": false, "finished": false}}
]}}`

func TestProvider_CompetitionMatches_LiveAndUpcomingShareOneFetch(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{body: fixturesPayload}
	provider := NewProvider(fetcher)

	live, err := provider.CompetitionMatches(context.Background(), 126, fixture.ViewLive)
	if err != nil {
		t.Fatalf("live view: %v", err)
	}
	upcoming, err := provider.CompetitionMatches(context.Background(), 126, fixture.ViewUpcoming)
	if err != nil {
		t.Fatalf("upcoming view: %v", err)
	}

	if len(fetcher.calls) != 1 {
		t.Fatalf("unexpected fetch count: got=%d want=1", len(fetcher.calls))
	}
	if len(live) != 1 || live[0].ID != 81 {
		t.Fatalf("unexpected live fixtures: %+v", live)
	}
	if len(upcoming) != 2 {
		t.Fatalf("unexpected upcoming count: got=%d want=2", len(upcoming))
	}

	if _, err := provider.CompetitionMatches(context.Background(), 126, fixture.ViewCompleted); err != nil {
		t.Fatalf("completed view: %v", err)
	}
	if len(fetcher.calls) != 2 || fetcher.calls[1].params.Get("tab") != "results" {
		t.Fatalf("expected results tab fetched separately, got calls=%v", fetcher.calls)
	}
}

func TestProvider_CompetitionMatches_FailedFetchIsNotReused(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{err: resilience.ErrBudgetExceeded}
	provider := NewProvider(fetcher)

	if _, err := provider.CompetitionMatches(context.Background(), 126, fixture.ViewLive); !errors.Is(err, resilience.ErrBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}

	fetcher.err = nil
	fetcher.body = fixturesPayload
	items, err := provider.CompetitionMatches(context.Background(), 126, fixture.ViewUpcoming)
	if err != nil {
		t.Fatalf("upcoming view: %v", err)
	}
	if len(fetcher.calls) != 2 || len(items) != 2 {
		t.Fatalf("unexpected result: calls=%d fixtures=%d", len(fetcher.calls), len(items))
	}
}
