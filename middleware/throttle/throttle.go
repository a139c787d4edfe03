// Package throttle provides per client request throttling middleware
// backed by a sliding window rate limiter.
package throttle

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goliatone/go-router"
	auth "github.com/ravenlist/go-auth"
)

// Config defines the configuration for the throttle middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	// Limiter tracks request timestamps per key
	Limiter *auth.RateLimiter

	// Action namespaces the limiter keys, e.g. "login"
	Action string

	// MaxRequests allowed per window
	MaxRequests int

	// Window is the sliding window duration
	Window time.Duration

	// KeyFunc builds the limiter key for a request. Defaults to
	// Action plus the client IP.
	KeyFunc func(router.Context) string

	// ErrorHandler defines the error handler
	ErrorHandler router.ErrorHandler

	// SuccessHandler defines the success handler
	SuccessHandler router.HandlerFunc
}

// New creates a new throttle middleware
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)

		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			key := cfg.KeyFunc(ctx)
			if !cfg.Limiter.Allow(key, cfg.MaxRequests, cfg.Window) {
				return cfg.ErrorHandler(ctx, auth.ErrRateLimited)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// configDefault returns a default config
func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Limiter == nil {
		cfg.Limiter = auth.NewRateLimiter()
	}

	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 60
	}

	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	if cfg.KeyFunc == nil {
		action := cfg.Action
		if action == "" {
			action = "throttle"
		}
		cfg.KeyFunc = func(ctx router.Context) string {
			return action + ":" + ctx.IP()
		}
	}

	if cfg.ErrorHandler == nil {
		window := cfg.Window
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			ctx.SetHeader("Retry-After", strconv.Itoa(int(window.Seconds())))
			return ctx.Status(http.StatusTooManyRequests).SendString("Too Many Requests")
		}
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	return cfg
}
