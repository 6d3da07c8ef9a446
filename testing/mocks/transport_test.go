package mocks

import (
	"context"
	nethttp "net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/resilient-http/http"
)

func TestMockTransportSentOptionsInOrder(t *testing.T) {
	transport := &MockTransport{}
	transport.ExpectStatuses(nethttp.StatusServiceUnavailable, nethttp.StatusOK)

	first := &http.Options{Headers: map[string]string{"X-Attempt": "1"}}
	second := &http.Options{Headers: map[string]string{"X-Attempt": "2"}}

	resp, err := transport.Send(context.Background(), nethttp.MethodGet, "https://api.example.com", first)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
	_, err = transport.Send(context.Background(), nethttp.MethodGet, "https://api.example.com", second)
	require.NoError(t, err)

	assert.Equal(t, []*http.Options{first, second}, transport.SentOptions())
	transport.AssertExpectations(t)
}

func TestMockTransportSentOptionsDuringConcurrentSends(t *testing.T) {
	transport := &MockTransport{}
	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&http.Response{StatusCode: nethttp.StatusOK}, nil)

	const senders = 8
	var wg sync.WaitGroup
	for range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = transport.Send(context.Background(), nethttp.MethodGet, "https://api.example.com", &http.Options{})
		}()
	}
	for range senders {
		assert.LessOrEqual(t, len(transport.SentOptions()), senders)
	}
	wg.Wait()

	assert.Len(t, transport.SentOptions(), senders)
}
