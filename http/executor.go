package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/resilient-http/http/internal/tracking"
	"github.com/gaborage/resilient-http/logger"
	"github.com/gaborage/resilient-http/trace"
)

// executor implements the Executor interface
type executor struct {
	transport Transport
	logger    logger.Logger
	config    Config
	retryable map[int]struct{}
	sleeper   Sleeper
	limiter   *rate.Limiter
}

// NewExecutor creates an executor sending through transport with the given
// configuration. A nil transport uses NewNetTransport() and a nil logger
// discards output. Unset config fields take their defaults.
func NewExecutor(log logger.Logger, transport Transport, cfg Config) (Executor, error) {
	return NewBuilder(log).WithConfig(cfg).WithTransport(transport).Build()
}

func newExecutor(log logger.Logger, transport Transport, cfg Config, sleeper Sleeper, limiter *rate.Limiter) *executor {
	retryable := make(map[int]struct{}, len(cfg.RetryableStatusCodes))
	for _, code := range cfg.RetryableStatusCodes {
		retryable[code] = struct{}{}
	}
	return &executor{
		transport: transport,
		logger:    log,
		config:    cfg,
		retryable: retryable,
		sleeper:   sleeper,
		limiter:   limiter,
	}
}

// call holds the per-invocation state of one logical request.
type call struct {
	method      string
	url         string
	redactedURL string
	opts        *Options
	log         logger.Logger
	track       *tracking.Request
}

// Config returns a copy of the executor configuration
func (e *executor) Config() Config {
	return e.config.clone()
}

// Get performs a GET request
func (e *executor) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	return e.Execute(ctx, nethttp.MethodGet, url, opts)
}

// Head performs a HEAD request
func (e *executor) Head(ctx context.Context, url string, opts *Options) (*Response, error) {
	return e.Execute(ctx, nethttp.MethodHead, url, opts)
}

// Post performs a POST request
func (e *executor) Post(ctx context.Context, url string, opts *Options) (*Response, error) {
	return e.Execute(ctx, nethttp.MethodPost, url, opts)
}

// Put performs a PUT request
func (e *executor) Put(ctx context.Context, url string, opts *Options) (*Response, error) {
	return e.Execute(ctx, nethttp.MethodPut, url, opts)
}

// Patch performs a PATCH request
func (e *executor) Patch(ctx context.Context, url string, opts *Options) (*Response, error) {
	return e.Execute(ctx, nethttp.MethodPatch, url, opts)
}

// Delete performs a DELETE request
func (e *executor) Delete(ctx context.Context, url string, opts *Options) (*Response, error) {
	return e.Execute(ctx, nethttp.MethodDelete, url, opts)
}

// Execute sends the request, retrying while the server answers with a
// retryable status. Transport failures are returned at once and never retried.
func (e *executor) Execute(ctx context.Context, method, url string, opts *Options) (*Response, error) {
	if err := validateRequest(method, url); err != nil {
		return nil, err
	}

	ctx, requestID := trace.EnsureRequestID(ctx)
	c := &call{
		method:      method,
		url:         url,
		redactedURL: logger.RedactURL(url),
		opts:        e.resolveOptions(opts),
		log:         e.logger.WithFields(map[string]any{"request_id": requestID}),
	}
	ctx, c.track = tracking.Start(ctx, method, c.redactedURL)

	resp, attempts, err := e.run(ctx, c)
	c.track.End(ctx, attempts, err)
	return resp, err
}

func (e *executor) run(ctx context.Context, c *call) (*Response, int, error) {
	for attempt := 1; ; attempt++ {
		if err := e.waitForLimiter(ctx); err != nil {
			return nil, attempt - 1, fmt.Errorf("attempt limiter wait interrupted before attempt %d: %w", attempt, err)
		}

		c.log.Debug().
			Str("method", c.method).
			Str("url", c.redactedURL).
			Int("attempt", attempt).
			Msg("sending request")

		resp, err := e.send(ctx, c)
		if err != nil {
			c.track.Attempt(ctx, 0, errorTypeOf(err))
			c.log.Debug().
				Err(err).
				Str("method", c.method).
				Str("url", c.redactedURL).
				Int("attempt", attempt).
				Msg("transport failed")
			return nil, attempt, err
		}

		elapsed := c.track.Attempt(ctx, resp.StatusCode, "")
		resp.Stats = Stats{
			ElapsedTime: elapsed,
			Attempts:    attempt,
		}

		if !e.isRetryableStatus(resp.StatusCode) {
			return resp, attempt, nil
		}

		if e.config.MaxRetries != nil && attempt >= *e.config.MaxRetries {
			return e.giveUp(ctx, c, resp, attempt)
		}

		delay := e.config.Backoff(attempt)
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("method", c.method).
			Str("url", c.redactedURL).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying")
		c.track.Retry(ctx, attempt, resp.StatusCode, delay)

		if err := e.sleeper.Sleep(ctx, delay); err != nil {
			return nil, attempt, fmt.Errorf("retry wait interrupted after attempt %d: %w", attempt, err)
		}
	}
}

// send performs one exchange and classifies its failure.
func (e *executor) send(ctx context.Context, c *call) (*Response, error) {
	resp, err := e.transport.Send(ctx, c.method, c.url, c.opts)
	if err != nil {
		return nil, asTransportError(err, effectiveTimeout(c.opts.Timeout))
	}
	if resp == nil {
		return nil, NewNetworkError("transport returned no response", nil)
	}
	return resp, nil
}

func (e *executor) giveUp(ctx context.Context, c *call, resp *Response, attempts int) (*Response, int, error) {
	c.log.Error().
		Int("status", resp.StatusCode).
		Str("method", c.method).
		Str("url", c.redactedURL).
		Int("attempts", attempts).
		Msg("giving up")
	c.track.Exhausted(ctx, resp.StatusCode)

	if e.config.OnExhaustion == FailOnExhaustion {
		return resp, attempts, NewExhaustedError(resp.StatusCode, attempts)
	}
	return resp, attempts, nil
}

func (e *executor) waitForLimiter(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// resolveOptions copies the caller's options and fills in the default
// timeout when the call does not override it.
func (e *executor) resolveOptions(opts *Options) *Options {
	resolved := opts.clone()
	if resolved.Timeout == nil && e.config.Timeout != nil {
		t := *e.config.Timeout
		resolved.Timeout = &t
	}
	return resolved
}

func (e *executor) isRetryableStatus(code int) bool {
	_, ok := e.retryable[code]
	return ok
}

// validateRequest validates the request before sending
func validateRequest(method, url string) error {
	if method == "" {
		return NewValidationError("method cannot be empty", "method")
	}
	if url == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

// effectiveTimeout is the bound reported in timeout errors.
func effectiveTimeout(t *Timeout) time.Duration {
	if t == nil {
		return 0
	}
	if t.Read > 0 {
		return t.Read
	}
	return t.Connect
}

func errorTypeOf(err error) string {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "_OTHER"
}
