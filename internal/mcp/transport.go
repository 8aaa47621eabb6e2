package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/teemow/mcpmail/internal/logging"
)

const (
	// DefaultTimeout bounds a whole exchange, from dial to the last body byte.
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 10 << 20

	acceptHeader = contentTypeJSON + ", " + contentTypeEventStream
)

// Reply is the raw outcome of one HTTP exchange.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Exchanger performs one request/response exchange with the server.
// Implementations must not interpret the reply.
type Exchanger interface {
	Exchange(ctx context.Context, target string, body []byte, header http.Header) (*Reply, error)
}

// HTTPConfig configures an HTTPTransport.
type HTTPConfig struct {
	// Timeout is the overall deadline for one exchange (default: 60s).
	Timeout time.Duration

	// Token, when set, is sent as an OAuth2 bearer token on every request.
	Token string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Logger is the structured logger for transport diagnostics.
	Logger *slog.Logger
}

// HTTPTransport posts JSON-RPC bodies over a single pooled http.Client.
type HTTPTransport struct {
	httpClient *http.Client
	base       *http.Transport
	userAgent  string
	logger     *slog.Logger
}

// NewHTTPTransport creates an HTTP transport for the given config.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
	}

	var rt http.RoundTripper = base
	if cfg.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   base,
		}
	}
	// Client spans and trace context propagation.
	rt = otelhttp.NewTransport(rt)

	return &HTTPTransport{
		httpClient: &http.Client{Transport: rt, Timeout: timeout},
		base:       base,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// Exchange POSTs body to target with the JSON-RPC content negotiation
// headers plus any extra headers supplied by the caller.
func (t *HTTPTransport) Exchange(ctx context.Context, target string, body []byte, header http.Header) (*Reply, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", acceptHeader)
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: target, Timeout: isTimeout(err), Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 1<<20))
		if err := httpResp.Body.Close(); err != nil {
			t.logger.Debug("failed to close response body", logging.Err(err))
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &TransportError{URL: target, Timeout: isTimeout(err), Err: fmt.Errorf("read response body: %w", err)}
	}
	if len(respBody) > maxResponseBytes {
		return nil, &DecodeError{ContentType: httpResp.Header.Get("Content-Type"), Err: ErrResponseTooLarge}
	}

	return &Reply{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// Close releases idle pooled connections.
func (t *HTTPTransport) Close() error {
	t.base.CloseIdleConnections()
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
