package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/matchthread-sync/internal/mocks/usecase"
	"github.com/stretchr/testify/mock"
)

var publishNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func TestThreadPublishService_Publish_LeagueCoversNextSevenDays(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	sink := usecasemock.NewPostSink(t)
	states := memory.NewSyncStateRepository()

	upcoming := []fixture.Fixture{
		leagueFixture(1, fixture.StatusNotStarted, time.Date(2026, 10, 17, 18, 45, 0, 0, time.UTC), 0, 0),
		leagueFixture(2, fixture.StatusNotStarted, time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC), 0, 0),
		leagueFixture(3, fixture.StatusNotStarted, time.Date(2026, 10, 30, 19, 45, 0, 0, time.UTC), 0, 0),
	}
	upcoming[2].Round = fixture.Round{Raw: "Regular Season - 35", Display: "35"}

	provider.
		On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewUpcoming).
		Return(upcoming, nil).
		Once()
	provider.
		On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewCompleted).
		Return([]fixture.Fixture{}, nil).
		Once()
	provider.
		On("Standings", mock.Anything, int64(126)).
		Return([]leaguestanding.Standing{{Position: 1, TeamName: "Shelbourne"}}, nil).
		Once()

	var body string
	sink.
		On("Submit", mock.Anything, "LOI Premier Division - Round 33 Discussion Thread / 16-10-2026", mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(2) }).
		Return("1q2w3e", nil).
		Once()

	service := NewThreadPublishService(provider, sink, stubRenderer{}, states, nil, ThreadPublishConfig{
		Clock: fixedClock(publishNow),
	}, nil)

	state, err := service.Publish(context.Background(), premierDivision)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if state.PostID != "1q2w3e" {
		t.Fatalf("unexpected post id: got=%s want=1q2w3e", state.PostID)
	}
	if len(state.TrackedDates) != 2 || state.TrackedDates[0] != "2026-10-17" || state.TrackedDates[1] != "2026-10-18" {
		t.Fatalf("unexpected tracked dates: got=%v", state.TrackedDates)
	}
	if len(state.ThreadDates) != 2 {
		t.Fatalf("unexpected thread dates: got=%v", state.ThreadDates)
	}
	if state.LastPublishedHash != contentHash(body) {
		t.Fatalf("expected hash of the submitted body to be stored")
	}

	stored, ok, _ := states.Get(context.Background(), premierDivision.Key)
	if !ok || stored.PostID != "1q2w3e" {
		t.Fatalf("expected state persisted, got=%+v ok=%v", stored, ok)
	}
	if containsLine(body, "3 NS 0-0 Tallaght Stadium") {
		t.Fatalf("expected fixture outside the window to be left out:\n%s", body)
	}
}

func TestThreadPublishService_Publish_CupUsesCurrentRound(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	sink := usecasemock.NewPostSink(t)
	states := memory.NewSyncStateRepository()

	quarter := fixture.Round{Raw: "FAI Cup - 1/4", Display: "1/4"}
	semi := fixture.Round{Raw: "FAI Cup - 1/2", Display: "1/2"}
	items := []fixture.Fixture{
		leagueFixture(11, fixture.StatusNotStarted, time.Date(2026, 10, 17, 18, 45, 0, 0, time.UTC), 0, 0),
		leagueFixture(12, fixture.StatusNotStarted, time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC), 0, 0),
		leagueFixture(13, fixture.StatusNotStarted, time.Date(2026, 11, 1, 14, 0, 0, 0, time.UTC), 0, 0),
	}
	items[0].Round, items[1].Round, items[2].Round = quarter, quarter, semi

	provider.On("CompetitionMatches", mock.Anything, int64(219), fixture.ViewUpcoming).Return(items, nil).Once()
	provider.On("CompetitionMatches", mock.Anything, int64(219), fixture.ViewCompleted).Return([]fixture.Fixture{}, nil).Once()
	sink.
		On("Submit", mock.Anything, "Sports Direct FAI Cup - Quarter-finals Discussion Thread / 16-10-2026", mock.Anything).
		Return("cup123", nil).
		Once()

	service := NewThreadPublishService(provider, sink, stubRenderer{}, states, nil, ThreadPublishConfig{
		Clock: fixedClock(publishNow),
	}, nil)

	state, err := service.Publish(context.Background(), faiCup)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if state.RoundLabel != "FAI Cup - 1/4" {
		t.Fatalf("unexpected round label: got=%q", state.RoundLabel)
	}
	if len(state.TrackedDates) != 2 {
		t.Fatalf("unexpected tracked dates: got=%v", state.TrackedDates)
	}
	provider.AssertNotCalled(t, "Standings", mock.Anything, mock.Anything)
}

func TestThreadPublishService_Publish_NoFixtures(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	sink := usecasemock.NewPostSink(t)
	states := memory.NewSyncStateRepository()

	provider.On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewUpcoming).Return([]fixture.Fixture{}, nil).Once()
	provider.On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewCompleted).Return([]fixture.Fixture{}, nil).Once()

	service := NewThreadPublishService(provider, sink, stubRenderer{}, states, nil, ThreadPublishConfig{
		Clock: fixedClock(publishNow),
	}, nil)

	_, err := service.Publish(context.Background(), premierDivision)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestThreadPublishService_Publish_RefusesOpenThread(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	sink := usecasemock.NewPostSink(t)
	states := memory.NewSyncStateRepository(syncstate.CompetitionState{
		CompetitionKey: premierDivision.Key,
		PostID:         "open-post",
		TrackedDates:   []string{"2026-10-17"},
	})

	service := NewThreadPublishService(provider, sink, stubRenderer{}, states, nil, ThreadPublishConfig{
		Clock: fixedClock(publishNow),
	}, nil)

	_, err := service.Publish(context.Background(), premierDivision)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	provider.AssertNotCalled(t, "CompetitionMatches", mock.Anything, mock.Anything, mock.Anything)
}

func TestThreadPublishService_Publish_SubmitFailure(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	sink := usecasemock.NewPostSink(t)
	states := memory.NewSyncStateRepository()

	provider.
		On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewUpcoming).
		Return([]fixture.Fixture{leagueFixture(1, fixture.StatusNotStarted, time.Date(2026, 10, 17, 18, 45, 0, 0, time.UTC), 0, 0)}, nil).
		Once()
	provider.On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewCompleted).Return([]fixture.Fixture{}, nil).Once()
	provider.On("Standings", mock.Anything, int64(126)).Return([]leaguestanding.Standing{}, nil).Once()
	sink.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("403 forbidden")).Once()

	service := NewThreadPublishService(provider, sink, stubRenderer{}, states, nil, ThreadPublishConfig{
		Clock: fixedClock(publishNow),
	}, nil)

	_, err := service.Publish(context.Background(), premierDivision)
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
	if _, ok, _ := states.Get(context.Background(), premierDivision.Key); ok {
		t.Fatalf("expected no state persisted after failed submit")
	}
}

func TestThreadPublishService_Publish_SkipsBackfillOutsideWindow(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewMatchProvider(t)
	sink := usecasemock.NewPostSink(t)
	states := memory.NewSyncStateRepository()

	played := make([]fixture.Fixture, 0, 20)
	for i := 0; i < 20; i++ {
		item := leagueFixture(int64(200+i), fixture.StatusFullTime, time.Date(2026, 9, 1+i, 18, 45, 0, 0, time.UTC), 2, 0)
		item.Venue = ""
		played = append(played, item)
	}

	provider.
		On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewUpcoming).
		Return([]fixture.Fixture{leagueFixture(1, fixture.StatusNotStarted, time.Date(2026, 10, 17, 18, 45, 0, 0, time.UTC), 0, 0)}, nil).
		Once()
	provider.
		On("CompetitionMatches", mock.Anything, int64(126), fixture.ViewCompleted).
		Return(played, nil).
		Once()
	provider.On("Standings", mock.Anything, int64(126)).Return([]leaguestanding.Standing{}, nil).Once()
	sink.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return("9z8y7x", nil).Once()

	service := NewThreadPublishService(provider, sink, stubRenderer{}, states, nil, ThreadPublishConfig{
		Clock: fixedClock(publishNow),
	}, nil)

	if _, err := service.Publish(context.Background(), premierDivision); err != nil {
		t.Fatalf("publish: %v", err)
	}
	provider.AssertNotCalled(t, "MatchDetails", mock.Anything, mock.Anything)
}
