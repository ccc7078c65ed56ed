package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

// LimiterStateStore keeps the limiter snapshot for the life of the process.
type LimiterStateStore struct {
	mu    sync.Mutex
	state *resilience.LimiterState
}

func NewLimiterStateStore() *LimiterStateStore {
	return &LimiterStateStore{}
}

func (s *LimiterStateStore) LoadLimiterState(_ context.Context) (resilience.LimiterState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return resilience.LimiterState{}, false, nil
	}
	out := *s.state
	out.MinuteCalls = slices.Clone(s.state.MinuteCalls)
	return out, true, nil
}

func (s *LimiterStateStore) SaveLimiterState(_ context.Context, state resilience.LimiterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.MinuteCalls = slices.Clone(state.MinuteCalls)
	s.state = &state
	return nil
}
