package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type competitionSyncStateTableModel struct {
	CompetitionKey    string         `db:"competition_key"`
	PostID            string         `db:"post_id"`
	TrackedDates      pq.StringArray `db:"tracked_dates"`
	ThreadDates       pq.StringArray `db:"thread_dates"`
	RoundLabel        string         `db:"round_label"`
	LastPublishedHash string         `db:"last_published_hash"`
	LastPublishedAt   sql.NullTime   `db:"last_published_at"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type competitionSyncStateUpsertModel struct {
	CompetitionKey    string         `db:"competition_key"`
	PostID            string         `db:"post_id"`
	TrackedDates      pq.StringArray `db:"tracked_dates"`
	ThreadDates       pq.StringArray `db:"thread_dates"`
	RoundLabel        string         `db:"round_label"`
	LastPublishedHash string         `db:"last_published_hash"`
	LastPublishedAt   sql.NullTime   `db:"last_published_at"`
}
