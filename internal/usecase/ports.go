package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
)

// MatchProvider is the upstream football data source, already normalized.
type MatchProvider interface {
	CompetitionMatches(ctx context.Context, competitionID int64, view fixture.View) ([]fixture.Fixture, error)
	MatchDetails(ctx context.Context, matchID int64) (fixture.Details, error)
	Standings(ctx context.Context, competitionID int64) ([]leaguestanding.Standing, error)
}

// PostSink publishes and edits threads. Update reports false when the edit
// was not applied.
type PostSink interface {
	Submit(ctx context.Context, title, body string) (string, error)
	Update(ctx context.Context, postID, body string) (bool, error)
}

// ThreadDocument is everything a renderer needs for one thread body.
type ThreadDocument struct {
	Competition competition.Competition
	Round       fixture.Round
	Fixtures    []fixture.Fixture
	Standings   []leaguestanding.Standing
	Location    *time.Location
}

type Renderer interface {
	Render(doc ThreadDocument) (string, error)
}
