package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Nil(t, cfg.Timeout)
	assert.Nil(t, cfg.MaxRetries)
	assert.True(t, cfg.Unlimited())
	assert.Equal(t, []int{502, 503, 504}, cfg.RetryableStatusCodes)
	assert.Equal(t, ReturnLastResponse, cfg.OnExhaustion)
	require.NotNil(t, cfg.Backoff)
	assert.Equal(t, 20*time.Second, cfg.Backoff(2))
	assert.NoError(t, cfg.Validate())
}

func TestDefaultRetryableStatusCodesIsACopy(t *testing.T) {
	codes := DefaultRetryableStatusCodes()
	codes[0] = 418
	assert.Equal(t, []int{502, 503, 504}, DefaultRetryableStatusCodes())
}

func TestConfigCloneIsDeep(t *testing.T) {
	cfg := Config{
		Timeout:              SingleTimeout(time.Second),
		MaxRetries:           IntPtr(3),
		RetryableStatusCodes: []int{503},
	}

	clone := cfg.clone()
	clone.Timeout.Read = time.Minute
	*clone.MaxRetries = 9
	clone.RetryableStatusCodes[0] = 500

	assert.Equal(t, time.Second, cfg.Timeout.Read)
	assert.Equal(t, 3, *cfg.MaxRetries)
	assert.Equal(t, []int{503}, cfg.RetryableStatusCodes)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultRetryableStatusCodes(), cfg.RetryableStatusCodes)
	assert.NotNil(t, cfg.Backoff)

	empty := Config{RetryableStatusCodes: []int{}}.withDefaults()
	assert.Empty(t, empty.RetryableStatusCodes)
	assert.NotNil(t, empty.RetryableStatusCodes)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{name: "negative retries", cfg: Config{MaxRetries: IntPtr(-1)}, field: "max_retries"},
		{name: "negative timeout", cfg: Config{Timeout: PairTimeout(-time.Second, time.Second)}, field: "timeout"},
		{name: "status out of range", cfg: Config{RetryableStatusCodes: []int{503, 600}}, field: "retryable_status_codes"},
		{name: "unknown exhaustion policy", cfg: Config{OnExhaustion: ExhaustionPolicy(7)}, field: "on_exhaustion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsErrorType(err, ValidationError))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	assert.NoError(t, Config{MaxRetries: IntPtr(0)}.Validate())
}

func TestExhaustionPolicyString(t *testing.T) {
	assert.Equal(t, "return", ReturnLastResponse.String())
	assert.Equal(t, "fail", FailOnExhaustion.String())
	assert.Equal(t, "ExhaustionPolicy(9)", ExhaustionPolicy(9).String())
}

func TestTimeoutHelpers(t *testing.T) {
	assert.Equal(t, &Timeout{Connect: time.Second, Read: time.Second}, SingleTimeout(time.Second))
	assert.Equal(t, &Timeout{Connect: time.Second, Read: 3 * time.Second}, PairTimeout(time.Second, 3*time.Second))

	var unset *Timeout
	assert.True(t, unset.IsZero())
	assert.True(t, (&Timeout{}).IsZero())
	assert.False(t, SingleTimeout(time.Second).IsZero())
}

func TestOptionsClone(t *testing.T) {
	var nilOpts *Options
	assert.NotNil(t, nilOpts.clone())

	opts := &Options{
		Headers: map[string]string{"A": "1"},
		Query:   map[string]string{"q": "x"},
		Timeout: SingleTimeout(time.Second),
	}
	clone := opts.clone()
	clone.Headers["A"] = "2"
	clone.Query["q"] = "y"
	clone.Timeout.Read = time.Hour

	assert.Equal(t, "1", opts.Headers["A"])
	assert.Equal(t, "x", opts.Query["q"])
	assert.Equal(t, time.Second, opts.Timeout.Read)
}
