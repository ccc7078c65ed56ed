package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newLimitedClient(t *testing.T, serverURL string, cfg resilience.LimiterConfig, sleeper *recordingSleeper) *Client {
	t.Helper()

	return NewClient(ClientConfig{
		HTTPClient: &http.Client{Timeout: time.Second},
		BaseURL:    serverURL,
		Headers:    map[string]string{"x-apisports-key": "secret-key"},
		Policy:     resilience.NewRateLimiter(cfg, nil, nil),
		Sleep:      sleeper.sleep,
	})
}

func TestClientFetch_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leagues" || r.URL.Query().Get("id") != "126" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	client := newLimitedClient(t, server.URL, resilience.DefaultLimiterConfig(), sleeper)

	body, err := client.Fetch(context.Background(), "/leagues", url.Values{"id": {"126"}})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if hits.Load() != 3 {
		t.Fatalf("unexpected hits: got=%d want=3", hits.Load())
	}
	if len(sleeper.waits) != 2 || sleeper.waits[0] != time.Second || sleeper.waits[1] != 2*time.Second {
		t.Fatalf("unexpected backoff sequence: %v", sleeper.waits)
	}
}

func TestClientFetch_NonRetryableFailsImmediately(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "bad key secret-key", http.StatusForbidden)
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	client := newLimitedClient(t, server.URL, resilience.DefaultLimiterConfig(), sleeper)

	_, err := client.Fetch(context.Background(), "matchDetails", url.Values{"matchId": {"1"}})
	if !errors.Is(err, resilience.ErrNonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
	if errors.Is(err, resilience.ErrTransient) {
		t.Fatalf("expected error not to be transient")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("expected api key redacted from error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("unexpected hits: got=%d want=1", hits.Load())
	}
	if len(sleeper.waits) != 0 {
		t.Fatalf("expected no backoff, got %v", sleeper.waits)
	}
}

func TestClientFetch_CircuitOpensAfterConsecutiveTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if healthy.Load() {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	now := time.Date(2026, 10, 16, 19, 45, 0, 0, time.UTC)
	cfg := resilience.DefaultLimiterConfig()
	cfg.Clock = func() time.Time { return now }
	client := newLimitedClient(t, server.URL, cfg, &recordingSleeper{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := client.Fetch(ctx, "leagues", nil); !errors.Is(err, resilience.ErrTransient) {
			t.Fatalf("call %d: expected transient error, got %v", i+1, err)
		}
	}
	hitsBeforeOpen := hits.Load()
	if hitsBeforeOpen != 15 {
		t.Fatalf("unexpected hits before open: got=%d want=15", hitsBeforeOpen)
	}

	if _, err := client.Fetch(ctx, "leagues", nil); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected circuit open, got %v", err)
	}
	if hits.Load() != hitsBeforeOpen {
		t.Fatalf("expected no network attempt while circuit open, hits=%d", hits.Load())
	}

	now = now.Add(301 * time.Second)
	healthy.Store(true)
	if _, err := client.Fetch(ctx, "leagues", nil); err != nil {
		t.Fatalf("expected call after recovery window to succeed, got %v", err)
	}
	if hits.Load() != hitsBeforeOpen+1 {
		t.Fatalf("expected exactly one network attempt after recovery, hits=%d", hits.Load())
	}
}

func TestClientFetch_BudgetExceededSkipsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cfg := resilience.DefaultLimiterConfig()
	cfg.DailyLimit = 1
	client := newLimitedClient(t, server.URL, cfg, &recordingSleeper{})

	if _, err := client.Fetch(context.Background(), "leagues", nil); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := client.Fetch(context.Background(), "leagues", nil); !errors.Is(err, resilience.ErrBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("unexpected hits: got=%d want=1", hits.Load())
	}
}

func TestClientFetch_InvalidJSONIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	client := newLimitedClient(t, server.URL, resilience.DefaultLimiterConfig(), &recordingSleeper{})
	if _, err := client.Fetch(context.Background(), "leagues", nil); !errors.Is(err, resilience.ErrTransient) {
		t.Fatalf("expected transient error for html body, got %v", err)
	}
}
