package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxResponseBytes = 6 << 20

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	// Headers are sent on every request. Values of headers whose name
	// contains "key" or "token" are redacted from errors.
	Headers map[string]string
	Timeout time.Duration
	Policy  resilience.Policy
	Sleep   resilience.Sleeper
	Logger  *logging.Logger
}

// Client issues GET requests under a resilience.Policy with bounded retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	secrets    []string
	policy     resilience.Policy
	sleep      resilience.Sleeper
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	policy := cfg.Policy
	if policy == nil {
		policy = resilience.NewSpacingPolicy(nil, 0)
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = resilience.SleepContext
	}

	headers := make(map[string]string, len(cfg.Headers))
	secrets := make([]string, 0, 1)
	for name, value := range cfg.Headers {
		headers[name] = value
		lower := strings.ToLower(name)
		if value != "" && (strings.Contains(lower, "key") || strings.Contains(lower, "token")) {
			secrets = append(secrets, value)
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		headers:    headers,
		secrets:    secrets,
		policy:     policy,
		sleep:      sleep,
		logger:     logger.Named("upstream"),
	}
}

type attemptKind int

const (
	attemptSuccess attemptKind = iota
	attemptTransient
	attemptNonRetryable
)

type attemptResult struct {
	kind   attemptKind
	status int
	body   []byte
	err    error
}

// Fetch returns the JSON body of GET endpoint?params. Errors are marked with
// resilience.ErrTransient, ErrNonRetryable, ErrCircuitOpen or ErrBudgetExceeded.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	ctx, span := otel.Tracer("upstream").Start(ctx, "upstream.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("upstream.endpoint", endpoint))

	if err := c.policy.Admit(ctx); err != nil {
		span.SetStatus(codes.Error, "rejected")
		c.logger.WarnContext(ctx, "upstream request rejected", "endpoint", endpoint, "error", err)
		return nil, err
	}

	fullURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	maxAttempts := max(c.policy.MaxRetries(), 1)
	var last attemptResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		last = c.attempt(ctx, fullURL)
		span.SetAttributes(attribute.Int("upstream.attempts", attempt))

		switch last.kind {
		case attemptSuccess:
			if err := c.policy.RecordSuccess(ctx); err != nil {
				c.logger.WarnContext(ctx, "record upstream success failed", "error", err)
			}
			return last.body, nil
		case attemptNonRetryable:
			c.recordFailure(ctx)
			span.SetStatus(codes.Error, "non-retryable")
			c.logger.WarnContext(ctx, "upstream request failed", "endpoint", endpoint, "status", last.status, "error", last.err)
			return nil, crerr.Mark(last.err, resilience.ErrNonRetryable)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, crerr.Wrap(ctxErr, "upstream request canceled")
		}
		if attempt == maxAttempts {
			break
		}

		backoff := resilience.Backoff(attempt)
		c.logger.InfoContext(ctx, "retrying upstream request",
			"endpoint", endpoint,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", backoff,
			"error", last.err,
		)
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, crerr.Wrap(err, "upstream backoff interrupted")
		}
	}

	c.recordFailure(ctx)
	span.SetStatus(codes.Error, "retries exhausted")
	c.logger.WarnContext(ctx, "upstream request failed after retries",
		"endpoint", endpoint,
		"attempts", maxAttempts,
		"error", last.err,
	)
	return nil, crerr.Mark(last.err, resilience.ErrTransient)
}

func (c *Client) attempt(ctx context.Context, fullURL string) attemptResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return attemptResult{kind: attemptNonRetryable, err: crerr.Wrap(err, "build request")}
	}
	req.Header.Set("Accept", "application/json")
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptResult{kind: attemptTransient, err: crerr.Newf("send request: %s", c.sanitize(err.Error()))}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return attemptResult{kind: attemptTransient, status: resp.StatusCode, err: crerr.Wrap(err, "read response body")}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if !sonic.Valid(body) {
			return attemptResult{
				kind:   attemptTransient,
				status: resp.StatusCode,
				err:    crerr.Newf("invalid json from %s: %s", redactURL(fullURL), abbreviateBody(body)),
			}
		}
		return attemptResult{kind: attemptSuccess, status: resp.StatusCode, body: body}
	case isRetryableStatus(resp.StatusCode):
		return attemptResult{
			kind:   attemptTransient,
			status: resp.StatusCode,
			err:    crerr.Newf("upstream status=%d body=%s", resp.StatusCode, c.sanitize(abbreviateBody(body))),
		}
	default:
		return attemptResult{
			kind:   attemptNonRetryable,
			status: resp.StatusCode,
			err:    crerr.Newf("upstream status=%d body=%s", resp.StatusCode, c.sanitize(abbreviateBody(body))),
		}
	}
}

func (c *Client) recordFailure(ctx context.Context) {
	if err := c.policy.RecordFailure(ctx); err != nil {
		c.logger.WarnContext(ctx, "record upstream failure failed", "error", err)
	}
}

func (c *Client) sanitize(value string) string {
	for _, secret := range c.secrets {
		value = strings.ReplaceAll(value, secret, "REDACTED")
	}
	return value
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	for _, key := range []string{"api_token", "apikey", "key"} {
		if query.Has(key) {
			query.Set(key, "REDACTED")
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return fmt.Sprintf("%s...", text[:240])
}
