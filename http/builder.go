package http

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/resilient-http/logger"
)

// Builder provides a fluent interface for configuring the executor
type Builder struct {
	config    Config
	logger    logger.Logger
	transport Transport
	sleeper   Sleeper
	limiter   *rate.Limiter
	forever   bool
}

// NewBuilder creates a new executor builder starting from DefaultConfig()
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: log,
	}
}

// WithConfig replaces the whole configuration. Unset fields take their defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg.clone()
	return b
}

// WithTimeout applies d to both connect and read for every call
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	b.config.Timeout = SingleTimeout(d)
	return b
}

// WithTimeouts sets separate connect and read limits for every call
func (b *Builder) WithTimeouts(connect, read time.Duration) *Builder {
	b.config.Timeout = PairTimeout(connect, read)
	return b
}

// WithMaxRetries caps the number of attempts per logical request
func (b *Builder) WithMaxRetries(n int) *Builder {
	b.config.MaxRetries = IntPtr(n)
	b.forever = false
	return b
}

// WithRetryForever removes the retry cap. Requests answered with a retryable
// status are retried until the server recovers or the context is cancelled.
func (b *Builder) WithRetryForever() *Builder {
	b.config.MaxRetries = nil
	b.forever = true
	return b
}

// WithRetryableStatusCodes replaces the retryable status set. Passing no codes disables retries.
func (b *Builder) WithRetryableStatusCodes(codes ...int) *Builder {
	b.config.RetryableStatusCodes = append([]int{}, codes...)
	return b
}

// WithBackoff sets the wait policy between attempts
func (b *Builder) WithBackoff(policy BackoffPolicy) *Builder {
	b.config.Backoff = policy
	return b
}

// WithExhaustionPolicy selects what Execute returns once the retry cap is hit
func (b *Builder) WithExhaustionPolicy(policy ExhaustionPolicy) *Builder {
	b.config.OnExhaustion = policy
	return b
}

// WithSleeper replaces the timer-based wait, mainly for tests
func (b *Builder) WithSleeper(s Sleeper) *Builder {
	b.sleeper = s
	return b
}

// WithAttemptLimiter throttles every attempt, retries included, through limiter
func (b *Builder) WithAttemptLimiter(limiter *rate.Limiter) *Builder {
	b.limiter = limiter
	return b
}

// WithTransport sets the collaborator that performs the actual exchange
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// Build validates the configuration and creates the executor
func (b *Builder) Build() (Executor, error) {
	cfg := b.config.clone().withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = logger.Nop()
	}
	transport := b.transport
	if transport == nil {
		transport = NewNetTransport()
	}
	sleeper := b.sleeper
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}

	if cfg.Unlimited() && !b.forever {
		log.Warn().Msg("executor built without a retry cap: retryable responses are retried until the server recovers or the context ends")
	}

	return newExecutor(log, transport, cfg, sleeper, b.limiter), nil
}
