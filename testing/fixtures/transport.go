package fixtures

import (
	"context"
	"sync"

	"github.com/gaborage/resilient-http/http"
)

// Common status codes used by scripted upstreams
const (
	StatusOK                 = 200
	StatusBadGateway         = 502
	StatusServiceUnavailable = 503
	StatusGatewayTimeout     = 504
)

// ScriptedTransport answers with a fixed sequence of status codes and keeps
// repeating the last one once the script runs out. It is safe for concurrent use.
type ScriptedTransport struct {
	mu       sync.Mutex
	statuses []int
	calls    int
	methods  []string
}

var _ http.Transport = (*ScriptedTransport)(nil)

// NewScriptedTransport creates a transport replaying statuses in order.
func NewScriptedTransport(statuses ...int) *ScriptedTransport {
	return &ScriptedTransport{statuses: statuses}
}

// NewFlakyTransport fails with 503 the given number of times, then answers 200.
func NewFlakyTransport(failures int) *ScriptedTransport {
	statuses := make([]int, 0, failures+1)
	for range failures {
		statuses = append(statuses, StatusServiceUnavailable)
	}
	return NewScriptedTransport(append(statuses, StatusOK)...)
}

// NewUnavailableTransport always answers 503.
func NewUnavailableTransport() *ScriptedTransport {
	return NewScriptedTransport(StatusServiceUnavailable)
}

// Send implements http.Transport
func (s *ScriptedTransport) Send(_ context.Context, method, _ string, _ *http.Options) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	s.calls++
	s.methods = append(s.methods, method)

	status := StatusOK
	if idx >= 0 {
		status = s.statuses[idx]
	}
	return &http.Response{StatusCode: status}, nil
}

// Calls returns how many exchanges were performed.
func (s *ScriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Methods returns the method of each exchange in order.
func (s *ScriptedTransport) Methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.methods...)
}

// NewFailingTransport fails every exchange with err.
func NewFailingTransport(err error) http.Transport {
	return http.TransportFunc(func(context.Context, string, string, *http.Options) (*http.Response, error) {
		return nil, err
	})
}
