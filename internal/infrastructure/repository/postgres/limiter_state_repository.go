package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

// DefaultLimiterStateID names the single limiter row shared by every run of
// one deployment.
const DefaultLimiterStateID = "default"

type LimiterStateRepository struct {
	db *sqlx.DB
	id string
}

func NewLimiterStateRepository(db *sqlx.DB, id string) *LimiterStateRepository {
	if id == "" {
		id = DefaultLimiterStateID
	}
	return &LimiterStateRepository{db: db, id: id}
}

func (r *LimiterStateRepository) LoadLimiterState(ctx context.Context) (resilience.LimiterState, bool, error) {
	query := `SELECT id, daily_calls, daily_reset_at, minute_calls, consecutive_failures, circuit_open_at, updated_at
FROM rate_limiter_states
WHERE id = $1`

	var row rateLimiterStateTableModel
	if err := r.db.GetContext(ctx, &row, query, r.id); err != nil {
		if isNotFound(err) {
			return resilience.LimiterState{}, false, nil
		}
		return resilience.LimiterState{}, false, fmt.Errorf("get rate limiter state: %w", err)
	}

	state, err := limiterStateFromRow(row)
	if err != nil {
		return resilience.LimiterState{}, false, err
	}
	return state, true, nil
}

func (r *LimiterStateRepository) SaveLimiterState(ctx context.Context, state resilience.LimiterState) error {
	model, err := limiterStateUpsertModel(r.id, state)
	if err != nil {
		return err
	}

	query := `INSERT INTO rate_limiter_states (
	id, daily_calls, daily_reset_at, minute_calls, consecutive_failures, circuit_open_at
) VALUES (
	:id, :daily_calls, :daily_reset_at, CAST(:minute_calls AS JSONB), :consecutive_failures, :circuit_open_at
)
ON CONFLICT (id) DO UPDATE SET
	daily_calls = EXCLUDED.daily_calls,
	daily_reset_at = EXCLUDED.daily_reset_at,
	minute_calls = EXCLUDED.minute_calls,
	consecutive_failures = EXCLUDED.consecutive_failures,
	circuit_open_at = EXCLUDED.circuit_open_at,
	updated_at = NOW()`

	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("upsert rate limiter state: %w", err)
	}
	return nil
}

func limiterStateFromRow(row rateLimiterStateTableModel) (resilience.LimiterState, error) {
	var minuteCalls []time.Time
	if len(row.MinuteCalls) > 0 {
		if err := sonic.Unmarshal(row.MinuteCalls, &minuteCalls); err != nil {
			return resilience.LimiterState{}, fmt.Errorf("decode rate limiter minute calls: %w", err)
		}
	}

	state := resilience.LimiterState{
		DailyCalls:          row.DailyCalls,
		MinuteCalls:         minuteCalls,
		ConsecutiveFailures: row.ConsecutiveFailures,
		CircuitOpenAt:       nullTimeToTimePtr(row.CircuitOpenAt),
	}
	if resetAt := nullTimeToTimePtr(row.DailyResetAt); resetAt != nil {
		state.DailyResetAt = *resetAt
	}
	return state, nil
}

func limiterStateUpsertModel(id string, state resilience.LimiterState) (rateLimiterStateUpsertModel, error) {
	minuteCalls := state.MinuteCalls
	if minuteCalls == nil {
		minuteCalls = []time.Time{}
	}
	raw, err := sonic.Marshal(minuteCalls)
	if err != nil {
		return rateLimiterStateUpsertModel{}, fmt.Errorf("encode rate limiter minute calls: %w", err)
	}

	var resetAt *time.Time
	if !state.DailyResetAt.IsZero() {
		resetAt = &state.DailyResetAt
	}
	return rateLimiterStateUpsertModel{
		ID:                  id,
		DailyCalls:          state.DailyCalls,
		DailyResetAt:        timePtrToNullTime(resetAt),
		MinuteCalls:         string(raw),
		ConsecutiveFailures: state.ConsecutiveFailures,
		CircuitOpenAt:       timePtrToNullTime(state.CircuitOpenAt),
	}, nil
}
