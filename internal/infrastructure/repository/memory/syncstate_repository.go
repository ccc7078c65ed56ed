package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
)

type SyncStateRepository struct {
	mu     sync.RWMutex
	states map[string]syncstate.CompetitionState
}

func NewSyncStateRepository(states ...syncstate.CompetitionState) *SyncStateRepository {
	byKey := make(map[string]syncstate.CompetitionState, len(states))
	for _, state := range states {
		byKey[state.CompetitionKey] = cloneState(state)
	}
	return &SyncStateRepository{states: byKey}
}

func (r *SyncStateRepository) List(_ context.Context) ([]syncstate.CompetitionState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]syncstate.CompetitionState, 0, len(r.states))
	for _, state := range r.states {
		out = append(out, cloneState(state))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompetitionKey < out[j].CompetitionKey
	})
	return out, nil
}

func (r *SyncStateRepository) Get(_ context.Context, competitionKey string) (syncstate.CompetitionState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[competitionKey]
	if !ok {
		return syncstate.CompetitionState{}, false, nil
	}
	return cloneState(state), true, nil
}

func (r *SyncStateRepository) Upsert(_ context.Context, state syncstate.CompetitionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state.CompetitionKey] = cloneState(state)
	return nil
}

func cloneState(state syncstate.CompetitionState) syncstate.CompetitionState {
	out := state
	out.TrackedDates = slices.Clone(state.TrackedDates)
	out.ThreadDates = slices.Clone(state.ThreadDates)
	if state.LastPublishedAt != nil {
		at := *state.LastPublishedAt
		out.LastPublishedAt = &at
	}
	return out
}
