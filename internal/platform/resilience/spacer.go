package resilience

import (
	"context"
	"sync"
	"time"
)

const DefaultMinRequestInterval = 200 * time.Millisecond

// Spacer enforces a fixed minimum interval between requests. It is the
// degraded policy for upstreams without a published quota.
type Spacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    Sleeper
}

func NewSpacer(interval time.Duration) *Spacer {
	if interval <= 0 {
		interval = DefaultMinRequestInterval
	}
	return &Spacer{
		interval: interval,
		now:      time.Now,
		sleep:    SleepContext,
	}
}

func (s *Spacer) Wait(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.last.IsZero() {
		if wait := s.interval - s.now().Sub(s.last); wait > 0 {
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	s.last = s.now()
	return nil
}
