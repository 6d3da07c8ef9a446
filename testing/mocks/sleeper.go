package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gaborage/resilient-http/http"
)

// RecordingSleeper is an http.Sleeper that returns immediately and records
// every requested delay.
type RecordingSleeper struct {
	// OnSleep, when set, runs before the sleeper returns. Tests use it to
	// cancel the context in the middle of a wait.
	OnSleep func(d time.Duration)

	mu     sync.Mutex
	delays []time.Duration
}

var _ http.Sleeper = (*RecordingSleeper)(nil)

// Sleep implements http.Sleeper
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	hook := s.OnSleep
	s.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

// Delays returns the recorded delays in call order.
func (s *RecordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.delays)
}
