package config

import (
	"bytes"
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/resilient-http/http"
	"github.com/gaborage/resilient-http/logger"
	"github.com/gaborage/resilient-http/testing/mocks"
)

func TestExecutorConfigDefaults(t *testing.T) {
	cfg := validConfig(t)

	execCfg := cfg.Client.ExecutorConfig()
	require.NotNil(t, execCfg.MaxRetries)
	assert.Equal(t, 5, *execCfg.MaxRetries)
	assert.Nil(t, execCfg.Timeout)
	assert.Equal(t, []int{502, 503, 504}, execCfg.RetryableStatusCodes)
	assert.Equal(t, http.ReturnLastResponse, execCfg.OnExhaustion)
	require.NotNil(t, execCfg.Backoff)
	assert.Equal(t, 10*time.Second, execCfg.Backoff(1))
	assert.Equal(t, 30*time.Second, execCfg.Backoff(3))
	assert.NoError(t, execCfg.Validate())
}

func TestExecutorConfigMapping(t *testing.T) {
	client := ClientConfig{
		Timeout: TimeoutConfig{Connect: time.Second, Read: 5 * time.Second},
		Retry:   RetryConfig{Max: 3, StatusCodes: []int{429}, OnExhaustion: OnExhaustionFail},
		Backoff: BackoffConfig{Strategy: "fixed", Base: 250 * time.Millisecond},
	}

	execCfg := client.ExecutorConfig()
	require.NotNil(t, execCfg.Timeout)
	assert.Equal(t, time.Second, execCfg.Timeout.Connect)
	assert.Equal(t, 5*time.Second, execCfg.Timeout.Read)
	assert.Equal(t, 3, *execCfg.MaxRetries)
	assert.Equal(t, http.FailOnExhaustion, execCfg.OnExhaustion)
	assert.Equal(t, 250*time.Millisecond, execCfg.Backoff(4))

	execCfg.RetryableStatusCodes[0] = 500
	assert.Equal(t, []int{429}, client.Retry.StatusCodes)
}

func TestBuilderRetriesWithConfiguredSettings(t *testing.T) {
	var hits atomic.Int32
	var requestIDs []string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		requestIDs = append(requestIDs, r.Header.Get("X-Correlation-ID"))
		if hits.Add(1) == 1 {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	cfg := validConfig(t)
	cfg.Client.Retry.Max = 3
	cfg.Client.RequestIDHeader = "X-Correlation-ID"

	sleeper := &mocks.RecordingSleeper{}
	exec, err := cfg.Client.Builder(logger.Nop()).WithSleeper(sleeper).Build()
	require.NoError(t, err)

	resp, err := exec.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, resp.Stats.Attempts)
	assert.Equal(t, []time.Duration{10 * time.Second}, sleeper.Delays())

	require.Len(t, requestIDs, 2)
	assert.NotEmpty(t, requestIDs[0])
	assert.Equal(t, requestIDs[0], requestIDs[1])
}

func TestBuilderForeverDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", false)

	cfg := validConfig(t)
	cfg.Client.Retry.Forever = true

	exec, err := cfg.Client.Builder(log).WithTransport(&mocks.MockTransport{}).Build()
	require.NoError(t, err)
	assert.True(t, exec.Config().Unlimited())
	assert.NotContains(t, buf.String(), "without a retry cap")
}

func TestBuilderAppliesRateLimit(t *testing.T) {
	cfg := validConfig(t)
	cfg.Client.Rate.Limit = 1000
	cfg.Client.Rate.Burst = 2

	transport := &mocks.MockTransport{}
	transport.ExpectStatuses(nethttp.StatusOK)

	exec, err := cfg.Client.Builder(logger.Nop()).WithTransport(transport).Build()
	require.NoError(t, err)

	resp, err := exec.Get(context.Background(), "https://api.example.com/orders", nil)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	transport.AssertExpectations(t)
}
