package http

import (
	"context"
	"maps"
	nethttp "net/http"
	"time"
)

// Transport sends a single request and returns whatever the server answered.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, method, url string, opts *Options) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, method, url string, opts *Options) (*Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, method, url string, opts *Options) (*Response, error) {
	return f(ctx, method, url, opts)
}

// Executor runs logical requests, retrying transient server errors.
type Executor interface {
	Execute(ctx context.Context, method, url string, opts *Options) (*Response, error)
	Get(ctx context.Context, url string, opts *Options) (*Response, error)
	Head(ctx context.Context, url string, opts *Options) (*Response, error)
	Post(ctx context.Context, url string, opts *Options) (*Response, error)
	Put(ctx context.Context, url string, opts *Options) (*Response, error)
	Patch(ctx context.Context, url string, opts *Options) (*Response, error)
	Delete(ctx context.Context, url string, opts *Options) (*Response, error)
	Config() Config
}

// Options holds per-request settings passed through to the transport.
type Options struct {
	Headers map[string]string
	Query   map[string]string
	Body    []byte
	// Timeout overrides the executor default for this call only.
	Timeout *Timeout
}

// clone returns a shallow copy with its own maps so the caller's value is never mutated.
func (o *Options) clone() *Options {
	if o == nil {
		return &Options{}
	}
	out := &Options{
		Headers: maps.Clone(o.Headers),
		Query:   maps.Clone(o.Query),
		Body:    o.Body,
	}
	if o.Timeout != nil {
		t := *o.Timeout
		out.Timeout = &t
	}
	return out
}

// Timeout bounds connection establishment and the response read.
// A zero component means no limit for that phase.
type Timeout struct {
	Connect time.Duration
	Read    time.Duration
}

// SingleTimeout applies d to both the connect and the read phase.
func SingleTimeout(d time.Duration) *Timeout {
	return &Timeout{Connect: d, Read: d}
}

// PairTimeout sets separate connect and read limits.
func PairTimeout(connect, read time.Duration) *Timeout {
	return &Timeout{Connect: connect, Read: read}
}

// IsZero reports whether neither phase is limited.
func (t *Timeout) IsZero() bool {
	return t == nil || (t.Connect <= 0 && t.Read <= 0)
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
}
