package postgres

import (
	"database/sql"
	"time"
)

type rateLimiterStateTableModel struct {
	ID                  string       `db:"id"`
	DailyCalls          int          `db:"daily_calls"`
	DailyResetAt        sql.NullTime `db:"daily_reset_at"`
	MinuteCalls         []byte       `db:"minute_calls"`
	ConsecutiveFailures int          `db:"consecutive_failures"`
	CircuitOpenAt       sql.NullTime `db:"circuit_open_at"`
	UpdatedAt           time.Time    `db:"updated_at"`
}

type rateLimiterStateUpsertModel struct {
	ID                  string       `db:"id"`
	DailyCalls          int          `db:"daily_calls"`
	DailyResetAt        sql.NullTime `db:"daily_reset_at"`
	MinuteCalls         string       `db:"minute_calls"`
	ConsecutiveFailures int          `db:"consecutive_failures"`
	CircuitOpenAt       sql.NullTime `db:"circuit_open_at"`
}
