package curlew

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/curlew-dev/curlew/fingerprint"
)

// ClientOption is a functional option for configuring a [Client] via [Build].
type ClientOption func(*clientOpts) error

type clientOpts struct {
	logger       *slog.Logger
	profile      string
	libraryPath  string
	timeout      *time.Duration
	maxRedirects *int
	throttle     *throttleConfig
	jar          http.CookieJar
	noCookies    bool
	insecure     bool
	tracer       trace.Tracer
	drainLimit   int
	fallbackTick time.Duration
}

// throttleConfig defines the limiter's transfers per second and burst.
type throttleConfig struct {
	RPS   int `json:"rps" validate:"required,gt=0"`
	Burst int `json:"burst" validate:"required,gt=0"`
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientOpts) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithProfile sets the default browser fingerprint profile for all
// transfers. Requests may override it per transfer.
func WithProfile(name string) ClientOption {
	return func(c *clientOpts) error {
		if _, err := fingerprint.Lookup(name); err != nil {
			return err
		}
		c.profile = name
		return nil
	}
}

// WithLibrary overrides the native engine library path, bypassing the
// CURLEW_LIBCURL variable and the built-in search list.
func WithLibrary(path string) ClientOption {
	return func(c *clientOpts) error {
		if path == "" {
			return errors.New("library path must not be empty")
		}
		c.libraryPath = path
		return nil
	}
}

// WithTimeout sets the default per-transfer timeout. Requests may
// override it per transfer.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientOpts) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithMaxRedirects caps redirect chains. Zero means return the first
// response without following anything.
func WithMaxRedirects(n int) ClientOption {
	return func(c *clientOpts) error {
		if n < 0 {
			return errors.New("max redirects must not be negative")
		}
		c.maxRedirects = &n
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given
// transfers per second and burst capacity.
func WithThrottle(rps, burst int) ClientOption {
	return func(c *clientOpts) error {
		cfg := throttleConfig{RPS: rps, Burst: burst}
		if err := Validate(cfg); err != nil {
			return fmt.Errorf("throttle config: %w", err)
		}
		c.throttle = &cfg
		return nil
	}
}

// WithCookieJar replaces the default in-memory cookie jar.
func WithCookieJar(jar http.CookieJar) ClientOption {
	return func(c *clientOpts) error {
		if jar == nil {
			return errors.New("cookie jar must not be nil")
		}
		c.jar = jar
		return nil
	}
}

// WithNoCookies disables the cookie jar entirely.
func WithNoCookies() ClientOption {
	return func(c *clientOpts) error {
		c.noCookies = true
		return nil
	}
}

// WithInsecureSkipVerify disables server certificate verification on
// all transfers.
func WithInsecureSkipVerify() ClientOption {
	return func(c *clientOpts) error {
		c.insecure = true
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer used to span transfers.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *clientOpts) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithDrainLimit bounds completions handled per coordinator drive step.
func WithDrainLimit(n int) ClientOption {
	return func(c *clientOpts) error {
		if n <= 0 {
			return errors.New("drain limit must be positive")
		}
		c.drainLimit = n
		return nil
	}
}

// WithFallbackTick sets the coordinator's fallback polling interval
// used while transfers are pending and the engine has no timer armed.
func WithFallbackTick(d time.Duration) ClientOption {
	return func(c *clientOpts) error {
		if d <= 0 {
			return errors.New("fallback tick must be positive")
		}
		c.fallbackTick = d
		return nil
	}
}
