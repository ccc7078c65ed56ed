package reddit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultAuthURL = "https://www.reddit.com"
	DefaultBaseURL = "https://oauth.reddit.com"

	tokenExpiryMargin = time.Minute
	maxResponseBytes  = 1 << 20
)

var errRedditTransient = crerr.New("reddit transient failure")

type ClientConfig struct {
	HTTPClient   *http.Client
	AuthURL      string
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	Subreddit    string
	FlairID      string
	// ModActions stickies new threads and suggests sorting by new.
	ModActions     bool
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          func() time.Time
}

type accessToken struct {
	value     string
	expiresAt time.Time
}

// Client submits and edits self posts with a script-app account.
type Client struct {
	httpClient   *http.Client
	authURL      string
	baseURL      string
	clientID     string
	clientSecret string
	username     string
	password     string
	userAgent    string
	subreddit    string
	flairID      string
	modActions   bool
	now          func() time.Time
	logger       *logging.Logger

	breaker        *resilience.CircuitBreaker
	circuitEnabled bool

	tokens *tokenCache
}

type tokenCache struct {
	mu    sync.Mutex
	token *accessToken
}

func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	authURL := strings.TrimRight(strings.TrimSpace(cfg.AuthURL), "/")
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		authURL:        authURL,
		baseURL:        baseURL,
		clientID:       strings.TrimSpace(cfg.ClientID),
		clientSecret:   cfg.ClientSecret,
		username:       strings.TrimSpace(cfg.Username),
		password:       cfg.Password,
		userAgent:      strings.TrimSpace(cfg.UserAgent),
		subreddit:      strings.TrimSpace(cfg.Subreddit),
		flairID:        strings.TrimSpace(cfg.FlairID),
		modActions:     cfg.ModActions,
		now:            now,
		logger:         logger.Named("reddit"),
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.RecoveryWindow),
		circuitEnabled: breakerCfg.Enabled,
		tokens:         &tokenCache{},
	}
}

// WithFlair returns a client that tags new posts with flairID. The token
// cache and circuit breaker are shared with c.
func (c *Client) WithFlair(flairID string) *Client {
	out := *c
	if flairID = strings.TrimSpace(flairID); flairID != "" {
		out.flairID = flairID
	}
	return &out
}

type apiError [][]any

type submitResponse struct {
	JSON struct {
		Errors apiError `json:"errors"`
		Data   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

type editResponse struct {
	JSON struct {
		Errors apiError `json:"errors"`
	} `json:"json"`
}

// Submit creates a self post and returns its id without the t3_ prefix.
func (c *Client) Submit(ctx context.Context, title, body string) (string, error) {
	ctx, span := otel.Tracer("reddit").Start(ctx, "reddit.Submit")
	defer span.End()

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("kind", "self")
	form.Set("sr", c.subreddit)
	form.Set("title", title)
	form.Set("text", body)
	form.Set("resubmit", "true")
	if c.flairID != "" {
		form.Set("flair_id", c.flairID)
	}

	raw, err := c.call(ctx, "/api/submit", form)
	if err != nil {
		return "", crerr.Wrap(err, "submit post")
	}

	var resp submitResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return "", crerr.Wrap(err, "decode submit response")
	}
	if len(resp.JSON.Errors) > 0 {
		return "", crerr.Newf("submit post rejected: %s", resp.JSON.Errors.String())
	}
	postID := strings.TrimPrefix(strings.TrimSpace(resp.JSON.Data.ID), "t3_")
	if postID == "" {
		postID = strings.TrimPrefix(strings.TrimSpace(resp.JSON.Data.Name), "t3_")
	}
	if postID == "" {
		return "", crerr.New("submit post response has no id")
	}
	span.SetAttributes(attribute.String("reddit.post_id", postID))
	c.logger.InfoContext(ctx, "reddit post submitted", "post_id", postID, "subreddit", c.subreddit, "url", resp.JSON.Data.URL)

	if c.modActions {
		c.moderate(ctx, postID)
	}
	return postID, nil
}

// Update replaces the body of postID. It reports false when reddit refused
// the edit; transport and status failures are returned as errors.
func (c *Client) Update(ctx context.Context, postID, body string) (bool, error) {
	ctx, span := otel.Tracer("reddit").Start(ctx, "reddit.Update")
	defer span.End()
	span.SetAttributes(attribute.String("reddit.post_id", postID))

	postID = strings.TrimPrefix(strings.TrimSpace(postID), "t3_")
	if postID == "" {
		return false, crerr.New("post id is required")
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", "t3_"+postID)
	form.Set("text", body)

	raw, err := c.call(ctx, "/api/editusertext", form)
	if err != nil {
		return false, crerr.Wrapf(err, "edit post %s", postID)
	}

	var resp editResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return false, crerr.Wrap(err, "decode edit response")
	}
	if len(resp.JSON.Errors) > 0 {
		c.logger.WarnContext(ctx, "reddit edit rejected", "post_id", postID, "errors", resp.JSON.Errors.String())
		return false, nil
	}

	c.logger.InfoContext(ctx, "reddit post updated", "post_id", postID)
	return true, nil
}

func (c *Client) moderate(ctx context.Context, postID string) {
	sort := url.Values{}
	sort.Set("api_type", "json")
	sort.Set("id", "t3_"+postID)
	sort.Set("sort", "new")
	if _, err := c.call(ctx, "/api/set_suggested_sort", sort); err != nil {
		c.logger.WarnContext(ctx, "set suggested sort failed", "post_id", postID, "error", err)
	}

	sticky := url.Values{}
	sticky.Set("api_type", "json")
	sticky.Set("id", "t3_"+postID)
	sticky.Set("state", "true")
	if _, err := c.call(ctx, "/api/set_subreddit_sticky", sticky); err != nil {
		c.logger.WarnContext(ctx, "sticky post failed", "post_id", postID, "error", err)
	}
}

// call POSTs form to an oauth endpoint. A 401 drops the cached token and the
// request is retried once with a fresh one.
func (c *Client) call(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "reddit circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("reddit is temporarily unavailable: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			c.recordCircuitResult(err)
			return nil, err
		}

		status, raw, err := c.post(ctx, c.baseURL+path, form, func(req *http.Request) {
			req.Header.Set("Authorization", "bearer "+token)
		})
		if err != nil {
			c.recordCircuitResult(err)
			return nil, err
		}
		if status == http.StatusUnauthorized && attempt == 1 {
			c.invalidateToken()
			continue
		}
		if status/100 != 2 {
			callErr := statusError(status, path, raw)
			c.recordCircuitResult(callErr)
			return nil, callErr
		}

		c.recordCircuitResult(nil)
		return raw, nil
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	now := c.now()
	if cached := c.tokens.token; cached != nil && now.Before(cached.expiresAt) {
		return cached.value, nil
	}
	if c.clientID == "" || c.username == "" {
		return "", crerr.New("reddit credentials are not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.username)
	form.Set("password", c.password)

	status, raw, err := c.post(ctx, c.authURL+"/api/v1/access_token", form, func(req *http.Request) {
		req.SetBasicAuth(c.clientID, c.clientSecret)
	})
	if err != nil {
		return "", crerr.Wrap(err, "request access token")
	}
	if status/100 != 2 {
		return "", crerr.Wrap(statusError(status, "/api/v1/access_token", nil), "request access token")
	}

	var resp tokenResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return "", crerr.Wrap(err, "decode access token")
	}
	if resp.Error != "" || resp.AccessToken == "" {
		return "", crerr.Newf("access token refused: %s", resp.Error)
	}

	lifetime := time.Duration(resp.ExpiresIn) * time.Second
	if lifetime <= tokenExpiryMargin {
		lifetime = 2 * tokenExpiryMargin
	}
	c.tokens.token = &accessToken{value: resp.AccessToken, expiresAt: now.Add(lifetime - tokenExpiryMargin)}
	return resp.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()
	c.tokens.token = nil
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values, authorize func(*http.Request)) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, crerr.Wrap(err, "create reddit request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	authorize(req)

	c.logger.DebugContext(ctx, "reddit request", "curl_preview", requestPreview(endpoint, form))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: post %s: %v", errRedditTransient, endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s: %v", errRedditTransient, endpoint, err)
	}
	return resp.StatusCode, raw, nil
}

func statusError(status int, path string, raw []byte) error {
	body := strings.TrimSpace(string(raw))
	if len(body) > 512 {
		body = body[:512] + "...(truncated)"
	}
	if isRetryableStatus(status) {
		return fmt.Errorf("%w: %s status=%d body=%s", errRedditTransient, path, status, body)
	}
	return crerr.Newf("%s status=%d body=%s", path, status, body)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if crerr.Is(err, errRedditTransient) {
		if c.breaker.RecordFailure() {
			c.logger.Warn("reddit circuit opened", "consecutive_failures", c.breaker.ConsecutiveFailures())
		}
		return
	}
	c.breaker.RecordSuccess()
}

// requestPreview renders a curl line for debug logs with secrets and post
// bodies masked.
func requestPreview(endpoint string, form url.Values) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X POST '" + endpoint + "'")
	masked := url.Values{}
	for key, values := range form {
		for _, value := range values {
			switch key {
			case "password":
				value = "***"
			case "text":
				value = fmt.Sprintf("<%d bytes>", len(value))
			}
			masked.Add(key, value)
		}
	}
	if encoded := masked.Encode(); encoded != "" {
		_, _ = buf.WriteString(" -d '" + encoded + "'")
	}
	return buf.String()
}

func (e apiError) String() string {
	parts := make([]string, 0, len(e))
	for _, item := range e {
		fields := make([]string, 0, len(item))
		for _, field := range item {
			fields = append(fields, fmt.Sprint(field))
		}
		parts = append(parts, strings.Join(fields, ": "))
	}
	return strings.Join(parts, "; ")
}
