package syncstate

import "context"

// Repository persists one CompetitionState per competition key.
type Repository interface {
	List(ctx context.Context) ([]CompetitionState, error)
	Get(ctx context.Context, competitionKey string) (CompetitionState, bool, error)
	Upsert(ctx context.Context, state CompetitionState) error
}
