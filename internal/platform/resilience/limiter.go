package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
)

const minuteWindow = time.Minute

// Policy gates and accounts for upstream calls.
type Policy interface {
	Admit(ctx context.Context) error
	RecordSuccess(ctx context.Context) error
	RecordFailure(ctx context.Context) error
	MaxRetries() int
}

// LimiterState is the durable form of a RateLimiter.
type LimiterState struct {
	DailyCalls          int         `json:"daily_calls"`
	DailyResetAt        time.Time   `json:"daily_reset_at"`
	MinuteCalls         []time.Time `json:"minute_calls"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	CircuitOpenAt       *time.Time  `json:"circuit_open_at"`
}

// StateStore persists LimiterState between runs.
type StateStore interface {
	LoadLimiterState(ctx context.Context) (LimiterState, bool, error)
	SaveLimiterState(ctx context.Context, state LimiterState) error
}

type LimiterStats struct {
	DailyCalls          int
	DailyLimit          int
	RemainingDaily      int
	MinuteCalls         int
	PerMinuteLimit      int
	CircuitOpen         bool
	ConsecutiveFailures int
	PollingInterval     time.Duration
}

// RateLimiter combines a daily budget, a per-minute sliding window and a
// circuit breaker. Counters are persisted after every recorded outcome.
type RateLimiter struct {
	mu sync.Mutex

	cfg     LimiterConfig
	store   StateStore
	breaker *CircuitBreaker
	logger  *logging.Logger
	now     func() time.Time

	dailyCalls   int
	dailyResetAt time.Time
	minuteCalls  []time.Time
}

func NewRateLimiter(cfg LimiterConfig, store StateStore, logger *logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = NormalizeLimiterConfig(cfg)

	l := &RateLimiter{
		cfg:     cfg,
		store:   store,
		breaker: NewCircuitBreaker(cfg.Circuit.FailureThreshold, cfg.Circuit.RecoveryWindow),
		logger:  logger,
		now:     cfg.Clock,
	}
	l.breaker.now = l.clock
	l.dailyResetAt = l.clock()
	return l
}

func (l *RateLimiter) clock() time.Time {
	return l.now()
}

// Load restores persisted counters. Daily counters from an earlier day are
// ignored; circuit state is restored regardless of day.
func (l *RateLimiter) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	state, ok, err := l.store.LoadLimiterState(ctx)
	if err != nil {
		return errors.Wrap(err, "load limiter state")
	}
	if !ok {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.sameDay(state.DailyResetAt, now) {
		l.dailyCalls = max(state.DailyCalls, 0)
		l.dailyResetAt = state.DailyResetAt
		l.minuteCalls = l.pruneWindow(state.MinuteCalls, now)
	} else {
		l.logger.Debug("ignore stale limiter counters", "stored_reset_at", state.DailyResetAt)
	}
	l.breaker.Restore(CircuitSnapshot{
		ConsecutiveFailures: state.ConsecutiveFailures,
		OpenedAt:            state.CircuitOpenAt,
	})
	return nil
}

// Admit fails with ErrCircuitOpen or ErrBudgetExceeded when no call may be made.
func (l *RateLimiter) Admit(ctx context.Context) error {
	if err := l.allowCircuit(); err != nil {
		snapshot := l.breaker.Snapshot()
		return errors.Wrapf(err, "%d consecutive failures, retry after %s",
			snapshot.ConsecutiveFailures, l.cfg.Circuit.RecoveryWindow)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.resetDailyIfNeeded(now) {
		l.persistLocked(ctx)
	}
	if l.dailyCalls >= l.cfg.DailyLimit {
		return errors.Wrapf(ErrBudgetExceeded, "daily limit reached: %d/%d", l.dailyCalls, l.cfg.DailyLimit)
	}

	l.minuteCalls = l.pruneWindow(l.minuteCalls, now)
	if len(l.minuteCalls) >= l.cfg.PerMinuteLimit {
		return errors.Wrapf(ErrBudgetExceeded, "per-minute limit reached: %d/%d", len(l.minuteCalls), l.cfg.PerMinuteLimit)
	}
	return nil
}

// allowCircuit is a no-op when the circuit is disabled; budgets still apply.
func (l *RateLimiter) allowCircuit() error {
	if !l.cfg.Circuit.Enabled {
		return nil
	}
	return l.breaker.Allow()
}

func (l *RateLimiter) RecordSuccess(ctx context.Context) error {
	l.breaker.RecordSuccess()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyCalls++
	l.minuteCalls = append(l.minuteCalls, l.now())
	return l.persistLocked(ctx)
}

func (l *RateLimiter) RecordFailure(ctx context.Context) error {
	if l.cfg.Circuit.Enabled && l.breaker.RecordFailure() {
		l.logger.WarnContext(ctx, "upstream circuit opened",
			"consecutive_failures", l.breaker.ConsecutiveFailures(),
			"recovery_window", l.cfg.Circuit.RecoveryWindow,
		)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.persistLocked(ctx)
}

func (l *RateLimiter) MaxRetries() int {
	return l.cfg.MaxRetries
}

// Remaining returns the calls left in today's budget.
func (l *RateLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetDailyIfNeeded(l.now())
	return max(l.cfg.DailyLimit-l.dailyCalls, 0)
}

// PollingInterval recommends how long an external scheduler should wait before
// the next run. Six calls an hour over six live hours needs 36 calls.
func (l *RateLimiter) PollingInterval() time.Duration {
	return PollingIntervalFor(l.Remaining())
}

func PollingIntervalFor(remaining int) time.Duration {
	switch {
	case remaining > 36:
		return 300 * time.Second
	case remaining > 18:
		return 600 * time.Second
	default:
		return 900 * time.Second
	}
}

func (l *RateLimiter) Stats() LimiterStats {
	remaining := l.Remaining()
	circuitOpen := l.cfg.Circuit.Enabled && l.breaker.State() == CircuitStateOpen

	l.mu.Lock()
	defer l.mu.Unlock()

	return LimiterStats{
		DailyCalls:          l.dailyCalls,
		DailyLimit:          l.cfg.DailyLimit,
		RemainingDaily:      remaining,
		MinuteCalls:         len(l.pruneWindow(l.minuteCalls, l.now())),
		PerMinuteLimit:      l.cfg.PerMinuteLimit,
		CircuitOpen:         circuitOpen,
		ConsecutiveFailures: l.breaker.ConsecutiveFailures(),
		PollingInterval:     PollingIntervalFor(remaining),
	}
}

func (l *RateLimiter) resetDailyIfNeeded(now time.Time) bool {
	if l.sameDay(l.dailyResetAt, now) {
		return false
	}
	l.dailyCalls = 0
	l.dailyResetAt = now
	return true
}

func (l *RateLimiter) sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.In(l.cfg.Location).Date()
	by, bm, bd := b.In(l.cfg.Location).Date()
	return ay == by && am == bm && ad == bd
}

func (l *RateLimiter) pruneWindow(calls []time.Time, now time.Time) []time.Time {
	out := make([]time.Time, 0, len(calls))
	for _, at := range calls {
		if now.Sub(at) < minuteWindow {
			out = append(out, at)
		}
	}
	return out
}

func (l *RateLimiter) persistLocked(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	snapshot := l.breaker.Snapshot()
	state := LimiterState{
		DailyCalls:          l.dailyCalls,
		DailyResetAt:        l.dailyResetAt,
		MinuteCalls:         append([]time.Time(nil), l.minuteCalls...),
		ConsecutiveFailures: snapshot.ConsecutiveFailures,
		CircuitOpenAt:       snapshot.OpenedAt,
	}
	if err := l.store.SaveLimiterState(ctx, state); err != nil {
		l.logger.WarnContext(ctx, "persist limiter state failed", "error", err)
		return errors.Wrap(err, "save limiter state")
	}
	return nil
}

// SpacingPolicy is the degraded Policy: fixed spacing only, no budget or
// circuit accounting.
type SpacingPolicy struct {
	spacer     *Spacer
	maxRetries int
}

func NewSpacingPolicy(spacer *Spacer, maxRetries int) *SpacingPolicy {
	if spacer == nil {
		spacer = NewSpacer(DefaultMinRequestInterval)
	}
	if maxRetries < 1 {
		maxRetries = DefaultLimiterConfig().MaxRetries
	}
	return &SpacingPolicy{spacer: spacer, maxRetries: maxRetries}
}

func (p *SpacingPolicy) Admit(ctx context.Context) error {
	return p.spacer.Wait(ctx)
}

func (p *SpacingPolicy) RecordSuccess(context.Context) error { return nil }

func (p *SpacingPolicy) RecordFailure(context.Context) error { return nil }

func (p *SpacingPolicy) MaxRetries() int {
	return p.maxRetries
}
