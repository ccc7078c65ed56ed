package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
)

const competitionSyncStateColumns = `competition_key, post_id, tracked_dates, thread_dates, round_label,
	last_published_hash, last_published_at, created_at, updated_at`

type SyncStateRepository struct {
	db *sqlx.DB
}

func NewSyncStateRepository(db *sqlx.DB) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

func (r *SyncStateRepository) List(ctx context.Context) ([]syncstate.CompetitionState, error) {
	query := `SELECT ` + competitionSyncStateColumns + `
FROM competition_sync_states
ORDER BY competition_key`

	var rows []competitionSyncStateTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list competition sync states: %w", err)
	}

	out := make([]syncstate.CompetitionState, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncStateFromRow(row))
	}
	return out, nil
}

func (r *SyncStateRepository) Get(ctx context.Context, competitionKey string) (syncstate.CompetitionState, bool, error) {
	query := `SELECT ` + competitionSyncStateColumns + `
FROM competition_sync_states
WHERE competition_key = $1`

	var row competitionSyncStateTableModel
	if err := r.db.GetContext(ctx, &row, query, competitionKey); err != nil {
		if isNotFound(err) {
			return syncstate.CompetitionState{}, false, nil
		}
		return syncstate.CompetitionState{}, false, fmt.Errorf("get competition sync state: %w", err)
	}
	return syncStateFromRow(row), true, nil
}

func (r *SyncStateRepository) Upsert(ctx context.Context, state syncstate.CompetitionState) error {
	if strings.TrimSpace(state.CompetitionKey) == "" {
		return fmt.Errorf("upsert competition sync state: competition key is required")
	}

	model := syncStateUpsertModel(state)
	query := `INSERT INTO competition_sync_states (
	competition_key, post_id, tracked_dates, thread_dates, round_label,
	last_published_hash, last_published_at
) VALUES (
	:competition_key, :post_id, :tracked_dates, :thread_dates, :round_label,
	:last_published_hash, :last_published_at
)
ON CONFLICT (competition_key) DO UPDATE SET
	post_id = EXCLUDED.post_id,
	tracked_dates = EXCLUDED.tracked_dates,
	thread_dates = EXCLUDED.thread_dates,
	round_label = EXCLUDED.round_label,
	last_published_hash = EXCLUDED.last_published_hash,
	last_published_at = EXCLUDED.last_published_at,
	updated_at = NOW()`

	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("upsert competition sync state: %w", err)
	}
	return nil
}

func syncStateFromRow(row competitionSyncStateTableModel) syncstate.CompetitionState {
	return syncstate.CompetitionState{
		CompetitionKey:    row.CompetitionKey,
		PostID:            strings.TrimSpace(row.PostID),
		TrackedDates:      syncstate.NormalizeDates(row.TrackedDates),
		ThreadDates:       syncstate.NormalizeDates(row.ThreadDates),
		RoundLabel:        row.RoundLabel,
		LastPublishedHash: row.LastPublishedHash,
		LastPublishedAt:   nullTimeToTimePtr(row.LastPublishedAt),
	}
}

func syncStateUpsertModel(state syncstate.CompetitionState) competitionSyncStateUpsertModel {
	tracked := syncstate.NormalizeDates(state.TrackedDates)
	thread := syncstate.NormalizeDates(state.ThreadDates)
	return competitionSyncStateUpsertModel{
		CompetitionKey:    state.CompetitionKey,
		PostID:            state.PostID,
		TrackedDates:      pq.StringArray(tracked),
		ThreadDates:       pq.StringArray(thread),
		RoundLabel:        state.RoundLabel,
		LastPublishedHash: state.LastPublishedHash,
		LastPublishedAt:   timePtrToNullTime(state.LastPublishedAt),
	}
}
