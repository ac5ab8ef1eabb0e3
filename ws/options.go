package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/curlew-dev/curlew/fingerprint"
)

// Option configures a Dial call.
type Option func(*options) error

type options struct {
	profile          string
	ja3              string
	proxyURL         string
	header           http.Header
	handshakeTimeout time.Duration
	pingInterval     time.Duration
	insecure         bool
	logger           *slog.Logger
}

func defaultOptions() options {
	return options{
		profile:          fingerprint.DefaultProfile,
		handshakeTimeout: 30 * time.Second,
		pingInterval:     30 * time.Second,
		logger:           slog.Default(),
	}
}

// WithProfile selects the browser fingerprint profile used for the
// TLS handshake and the User-Agent header.
func WithProfile(name string) Option {
	return func(opts *options) error {
		if _, err := fingerprint.Lookup(name); err != nil {
			return err
		}

		opts.profile = name
		return nil
	}
}

// WithJA3 uses a raw JA3 string for the TLS handshake instead of a
// named profile.
func WithJA3(ja3 string) Option {
	return func(opts *options) error {
		if _, err := fingerprint.ParseJA3(ja3); err != nil {
			return err
		}

		opts.ja3 = ja3
		return nil
	}
}

// WithProxy routes the dial through an HTTP CONNECT or SOCKS5 proxy.
// Accepted schemes: http, https, socks5, socks5h.
func WithProxy(proxyURL string) Option {
	return func(opts *options) error {
		if proxyURL == "" {
			return fmt.Errorf("proxy url must not be empty")
		}

		opts.proxyURL = proxyURL
		return nil
	}
}

// WithHeader adds headers to the upgrade request.
func WithHeader(header http.Header) Option {
	return func(opts *options) error {
		if opts.header == nil {
			opts.header = make(http.Header)
		}
		for k, vs := range header {
			for _, v := range vs {
				opts.header.Add(k, v)
			}
		}
		return nil
	}
}

// WithHandshakeTimeout bounds the dial, TLS handshake, and upgrade.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(opts *options) error {
		if d <= 0 {
			return fmt.Errorf("handshake timeout must be positive, got %v", d)
		}

		opts.handshakeTimeout = d
		return nil
	}
}

// WithPingInterval sets the keepalive ping period. Zero disables the
// ping loop.
func WithPingInterval(d time.Duration) Option {
	return func(opts *options) error {
		if d < 0 {
			return fmt.Errorf("ping interval must not be negative, got %v", d)
		}

		opts.pingInterval = d
		return nil
	}
}

// WithInsecureSkipVerify disables server certificate verification.
func WithInsecureSkipVerify() Option {
	return func(opts *options) error {
		opts.insecure = true
		return nil
	}
}

// WithLogger sets the logger used by the keepalive loop.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}

		opts.logger = logger
		return nil
	}
}
