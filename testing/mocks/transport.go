package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/resilient-http/http"
)

// MockTransport provides a testify-based mock implementation of the http.Transport interface.
//
// Example usage:
//
//	mockTransport := &mocks.MockTransport{}
//	mockTransport.ExpectStatuses(503, 503, 200)
//	exec, _ := http.NewBuilder(log).WithTransport(mockTransport).Build()
type MockTransport struct {
	mock.Mock

	mu   sync.Mutex
	sent []*http.Options
}

var _ http.Transport = (*MockTransport)(nil)

// Send implements http.Transport
func (m *MockTransport) Send(ctx context.Context, method, url string, opts *http.Options) (*http.Response, error) {
	m.mu.Lock()
	m.sent = append(m.sent, opts)
	m.mu.Unlock()

	arguments := m.Called(ctx, method, url, opts)

	var resp *http.Response
	if r := arguments.Get(0); r != nil {
		resp = r.(*http.Response)
	}
	return resp, arguments.Error(1)
}

// ExpectStatuses queues one response per status code, in order.
func (m *MockTransport) ExpectStatuses(codes ...int) *MockTransport {
	for _, code := range codes {
		m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&http.Response{StatusCode: code}, nil).
			Once()
	}
	return m
}

// ExpectError makes the next Send fail with err.
func (m *MockTransport) ExpectError(err error) *MockTransport {
	m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, err).
		Once()
	return m
}

// SentOptions returns the options passed to each Send call, in order.
// It is safe to call while Send is still being invoked.
func (m *MockTransport) SentOptions() []*http.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}
