package curlew

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/curlew-dev/curlew/curl"
	"github.com/curlew-dev/curlew/fingerprint"
	"github.com/curlew-dev/curlew/throttle"
)

const defaultMaxRedirects = 10

// Client runs transfers through one shared async coordinator.
// It is safe for concurrent use.
type Client struct {
	multi   *curl.Multi
	jar     http.CookieJar
	logger  *slog.Logger
	tracer  trace.Tracer
	limiter *throttle.Limiter

	profile      string
	timeout      time.Duration
	maxRedirects int
	insecure     bool

	closed atomic.Bool
}

// Build instantiates a Client with the provided options.
func Build(optFns ...ClientOption) (*Client, error) {
	var opts clientOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		logger:       slog.Default(),
		profile:      fingerprint.DefaultProfile,
		maxRedirects: defaultMaxRedirects,
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.profile != "" {
		client.profile = opts.profile
	}
	if opts.timeout != nil {
		client.timeout = *opts.timeout
	}
	if opts.maxRedirects != nil {
		client.maxRedirects = *opts.maxRedirects
	}
	client.insecure = opts.insecure

	if opts.libraryPath != "" {
		if err := curl.Load(opts.libraryPath); err != nil {
			return nil, fmt.Errorf("loading engine: %w", err)
		}
	}

	client.tracer = opts.tracer
	if client.tracer == nil {
		client.tracer = otel.Tracer("github.com/curlew-dev/curlew")
	}

	if !opts.noCookies {
		client.jar = opts.jar
		if client.jar == nil {
			jar, err := cookiejar.New(nil)
			if err != nil {
				return nil, fmt.Errorf("creating cookie jar: %w", err)
			}
			client.jar = jar
		}
	}

	if opts.throttle != nil {
		limiter, err := throttle.New(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		client.limiter = limiter
	}

	multiSettings := []curl.MultiSetting{curl.WithLogger(client.logger)}
	if opts.drainLimit > 0 {
		multiSettings = append(multiSettings, curl.WithDrainLimit(opts.drainLimit))
	}
	if opts.fallbackTick > 0 {
		multiSettings = append(multiSettings, curl.WithFallbackTick(opts.fallbackTick))
	}

	multi, err := curl.NewMulti(multiSettings...)
	if err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}
	client.multi = multi

	return client, nil
}

// Do executes the request, following redirects up to the configured
// cap, and returns the final response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "curlew.do", trace.WithAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", req.URL),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	logger := c.logger.With("request_id", requestID)
	logger.Debug("starting transfer", "method", req.Method, "url", req.URL)

	resp, err := c.follow(ctx, req, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	logger.Debug("transfer complete", "status", resp.StatusCode, "redirects", len(resp.Redirects), "bytes", len(resp.Body))

	return resp, nil
}

// follow runs the hop loop: execute, inspect for a redirect, rinse.
func (c *Client) follow(ctx context.Context, req *Request, logger *slog.Logger) (*Response, error) {
	maxRedirects := c.maxRedirects
	if req.maxRedirects > 0 {
		maxRedirects = req.maxRedirects
	}
	if req.noRedirects {
		maxRedirects = 0
	}

	method := req.Method
	body := req.body
	currentURL, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	var redirects []string

	for {
		hop, err := c.doHop(ctx, req, method, body, currentURL)
		if err != nil {
			return nil, err
		}

		location := hop.header.Get("Location")
		if !isRedirect(hop.code) || location == "" || maxRedirects == 0 {
			proto, status := splitStatusLine(hop.statusLine)
			encoded := hop.body
			decoded, err := decompressBody(hop.header.Get("Content-Encoding"), encoded)
			if err != nil {
				// The engine may have already decoded the body in
				// impersonation mode; fall back to the raw bytes.
				logger.Debug("body decode fallback", "error", err)
				decoded = encoded
			}

			return &Response{
				StatusCode: hop.code,
				Status:     status,
				Proto:      proto,
				Header:     hop.header,
				Body:       decoded,
				FinalURL:   hop.finalURL,
				Redirects:  redirects,
				Timing:     hop.timing,
			}, nil
		}

		if len(redirects) >= maxRedirects {
			return nil, fmt.Errorf("%w: followed %d", ErrTooManyRedirects, len(redirects))
		}

		next, err := currentURL.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("resolving redirect location %q: %w", location, err)
		}

		// Browsers rewrite the method on 303, and on 301/302 for POST.
		if hop.code == http.StatusSeeOther ||
			((hop.code == http.StatusMovedPermanently || hop.code == http.StatusFound) && method == http.MethodPost) {
			method = http.MethodGet
			body = nil
		}

		redirects = append(redirects, currentURL.String())
		currentURL = next
		logger.Debug("following redirect", "status", hop.code, "to", next.String())
	}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.simple(ctx, http.MethodGet, rawURL, opts...)
}

// Post issues a POST request with a JSON-encoded payload.
func (c *Client) Post(ctx context.Context, rawURL string, payload any, opts ...RequestOption) (*Response, error) {
	opts = append([]RequestOption{WithPayload(payload)}, opts...)
	return c.simple(ctx, http.MethodPost, rawURL, opts...)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.simple(ctx, http.MethodHead, rawURL, opts...)
}

func (c *Client) simple(ctx context.Context, method, rawURL string, opts ...RequestOption) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	req, err := NewRequest(method, u, opts...)
	if err != nil {
		return nil, err
	}

	return c.Do(ctx, req)
}

// Close shuts the coordinator down, rejecting in-flight transfers.
// Safe to call more than once.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.multi.Close()
}
