package http

import (
	"bytes"
	"context"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gaborage/resilient-http/trace"
)

const (
	// DefaultDialTimeout bounds dialing when a call sets no connect timeout
	DefaultDialTimeout = 30 * time.Second

	defaultKeepAlive = 30 * time.Second
)

// dialTimeoutKey carries the per-call connect timeout down to DialContext.
type dialTimeoutKey struct{}

// NetTransport sends requests through a net/http client. It is safe for concurrent use.
type NetTransport struct {
	client          *nethttp.Client
	requestIDHeader string
}

// TransportOption configures a NetTransport
type TransportOption func(*NetTransport)

// WithHTTPClient sends through client. Per-call connect timeouts only apply
// when the client's transport dials with the context it is given.
func WithHTTPClient(client *nethttp.Client) TransportOption {
	return func(t *NetTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithRoundTripper swaps the round tripper of the underlying client
func WithRoundTripper(rt nethttp.RoundTripper) TransportOption {
	return func(t *NetTransport) {
		if rt != nil {
			t.client = &nethttp.Client{Transport: rt}
		}
	}
}

// WithRequestIDHeader sets the header used to propagate the request ID.
// An empty name disables propagation.
func WithRequestIDHeader(name string) TransportOption {
	return func(t *NetTransport) {
		t.requestIDHeader = name
	}
}

// NewNetTransport creates a transport over a dedicated net/http client
// whose dialer honours per-call connect timeouts.
func NewNetTransport(opts ...TransportOption) *NetTransport {
	t := &NetTransport{
		client:          &nethttp.Client{Transport: newRoundTripper()},
		requestIDHeader: trace.HeaderXRequestID,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func newRoundTripper() *nethttp.Transport {
	dialer := &net.Dialer{
		Timeout:   DefaultDialTimeout,
		KeepAlive: defaultKeepAlive,
	}
	rt := nethttp.DefaultTransport.(*nethttp.Transport).Clone()
	rt.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if d, ok := ctx.Value(dialTimeoutKey{}).(time.Duration); ok && d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return dialer.DialContext(ctx, network, addr)
	}
	return rt
}

// Send implements Transport. Read bounds the whole exchange including the
// body, Connect bounds dialing.
func (t *NetTransport) Send(ctx context.Context, method, rawURL string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}

	if timeout := opts.Timeout; timeout != nil {
		if timeout.Connect > 0 {
			ctx = context.WithValue(ctx, dialTimeoutKey{}, timeout.Connect)
		}
		if timeout.Read > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout.Read)
			defer cancel()
		}
	}

	httpReq, err := t.buildRequest(ctx, method, rawURL, opts)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, asTransportError(err, effectiveTimeout(opts.Timeout))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, NewTimeoutError("response body read timed out", effectiveTimeout(opts.Timeout), err)
		}
		return nil, NewNetworkError("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}, nil
}

// CloseIdleConnections closes keep-alive connections held by the underlying client.
func (t *NetTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// buildRequest constructs an *http.Request with query, headers and body applied.
func (t *NetTransport) buildRequest(ctx context.Context, method, rawURL string, opts *Options) (*nethttp.Request, error) {
	target, err := applyQuery(rawURL, opts.Query)
	if err != nil {
		return nil, NewNetworkError("failed to create HTTP request", err)
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewNetworkError("failed to create HTTP request", err)
	}

	t.applyHeaders(ctx, httpReq, opts)
	return httpReq, nil
}

// applyHeaders applies caller headers, the request ID and trace context.
func (t *NetTransport) applyHeaders(ctx context.Context, httpReq *nethttp.Request, opts *Options) {
	for key, value := range opts.Headers {
		httpReq.Header.Set(key, value)
	}

	// Set Content-Type if not already set and body is present
	if httpReq.Header.Get("Content-Type") == "" && opts.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if t.requestIDHeader != "" && httpReq.Header.Get(t.requestIDHeader) == "" {
		requestID, ok := trace.RequestIDFromContext(ctx)
		if !ok {
			requestID = trace.NewRequestID()
		}
		httpReq.Header.Set(t.requestIDHeader, requestID)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
}

func applyQuery(rawURL string, query map[string]string) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	values := u.Query()
	for key, value := range query {
		values.Set(key, value)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}
