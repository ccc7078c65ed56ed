package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	usecasemock "github.com/riskibarqy/matchthread-sync/internal/mocks/usecase"
	"github.com/stretchr/testify/mock"
)

func TestStandingsService_Table_CachesWithinTTL(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	provider.
		On("Standings", mock.Anything, int64(126)).
		Return([]leaguestanding.Standing{{Position: 1, TeamName: "Shelbourne", Points: 60}}, nil).
		Once()

	service := NewStandingsService(provider, time.Hour, nil)
	for i := 0; i < 3; i++ {
		got := service.Table(context.Background(), premierDivision)
		if len(got) != 1 || got[0].TeamName != "Shelbourne" {
			t.Fatalf("unexpected table on call %d: %+v", i, got)
		}
	}
}

func TestStandingsService_Table_ServesStaleOnFailure(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	provider.
		On("Standings", mock.Anything, int64(126)).
		Return([]leaguestanding.Standing{{Position: 1, TeamName: "Shelbourne"}}, nil).
		Once()
	provider.
		On("Standings", mock.Anything, int64(126)).
		Return(nil, errors.New("upstream down")).
		Once()

	service := NewStandingsService(provider, time.Nanosecond, nil)
	_ = service.Table(context.Background(), premierDivision)
	time.Sleep(time.Millisecond)

	got := service.Table(context.Background(), premierDivision)
	if len(got) != 1 || got[0].TeamName != "Shelbourne" {
		t.Fatalf("expected stale table, got=%+v", got)
	}
}

func TestStandingsService_Table_EmptyWithoutHistory(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	provider.
		On("Standings", mock.Anything, int64(218)).
		Return(nil, errors.New("upstream down")).
		Once()

	got := NewStandingsService(provider, time.Hour, nil).Table(context.Background(), firstDivision)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil table, got=%#v", got)
	}
}
