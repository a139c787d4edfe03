// Package csrfguard provides CSRF protection middleware bound to the
// session cookie. Tokens are derived from the session token itself, so
// no server side storage is needed; anonymous visitors get a random
// token pinned in its own cookie.
package csrfguard

import (
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	auth "github.com/ravenlist/go-auth"
)

// DefaultContextKey is the default key for storing CSRF tokens in context
const DefaultContextKey = "csrf_token"

// DefaultTemplateHelpersKey defines the default context key used when merging CSRF template helpers.
const DefaultTemplateHelpersKey = "template_helpers"

// Config defines the configuration for the CSRF middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	// Guard signs and verifies tokens
	Guard *auth.CSRFGuard

	// SessionCookieName is the cookie holding the session token
	SessionCookieName string

	// AnonCookieName is the cookie pinning tokens for anonymous visitors
	AnonCookieName string

	// ContextKey defines the key for storing the token in context
	ContextKey string

	// FormFieldName defines the name of the form field containing the token
	FormFieldName string

	// SafeMethods defines HTTP methods that don't require CSRF validation
	SafeMethods []string

	// ErrorHandler defines the error handler
	ErrorHandler router.ErrorHandler

	// SuccessHandler defines the success handler
	SuccessHandler router.HandlerFunc

	// CookieSecure controls the Secure flag on the anonymous cookie
	CookieSecure bool

	// SameSite controls the SameSite attribute on the anonymous cookie
	SameSite string

	// DisableTemplateHelpers disables automatic template helper injection when true.
	DisableTemplateHelpers bool

	// TemplateHelpersKey defines the context key used when storing helper maps via LocalsMerge.
	TemplateHelpersKey string
}

// New creates a new CSRF middleware
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)

		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			token, err := resolveToken(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(cfg.ContextKey+"_field", cfg.FormFieldName)
			if !cfg.DisableTemplateHelpers {
				ctx.LocalsMerge(cfg.TemplateHelpersKey, map[string]any{
					"csrf_token": token,
					"csrf_field": cfg.FormFieldName,
				})
			}

			// safe methods don't require validation
			method := strings.ToUpper(ctx.Method())
			if slices.Contains(cfg.SafeMethods, method) {
				return cfg.SuccessHandler(ctx)
			}

			submitted := ctx.FormValue(cfg.FormFieldName)
			if err := cfg.Guard.Verify(token, submitted); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// resolveToken derives the expected token for this request. Sessions
// get a deterministic HMAC of their token; anonymous visitors get a
// random token carried in a dedicated cookie.
func resolveToken(ctx router.Context, cfg Config) (string, error) {
	if session := ctx.Cookies(cfg.SessionCookieName); session != "" {
		return cfg.Guard.TokenForSession(session), nil
	}

	if existing := ctx.Cookies(cfg.AnonCookieName); existing != "" {
		return existing, nil
	}

	token, err := cfg.Guard.AnonToken()
	if err != nil {
		return "", err
	}

	ctx.Cookie(&router.Cookie{
		Name:     cfg.AnonCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.SameSite,
	})

	return token, nil
}

// configDefault returns a default config
func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Guard == nil {
		panic("csrfguard: missing Guard")
	}

	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = auth.DefaultSessionCookieName
	}

	if cfg.AnonCookieName == "" {
		cfg.AnonCookieName = auth.AnonCSRFCookieName
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = auth.CSRFFormField
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS", "TRACE"}
	}

	if cfg.SameSite == "" {
		cfg.SameSite = "Lax"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.Status(router.StatusForbidden).SendString("Forbidden")
		}
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.TemplateHelpersKey == "" {
		cfg.TemplateHelpersKey = DefaultTemplateHelpersKey
	}

	return cfg
}
