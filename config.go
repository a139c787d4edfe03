package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// DefaultSessionCookieName is the cookie carrying the session token.
const DefaultSessionCookieName = "user_session"

// Options is a plain Config implementation.
type Options struct {
	SigningSecret        string
	TokenExpiration      int
	SessionCookieName    string
	RootAdminName        string
	CookieSameSite       string
	CookieSecure         bool
	RejectedRouteKey     string
	RejectedRouteDefault string
}

var _ Config = Options{}

// Validate runs validation rules. Failures here are startup-fatal.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.SigningSecret, validation.Required, validation.Length(MinSecretLength, 0)),
		validation.Field(&o.RootAdminName, validation.Required),
		validation.Field(&o.TokenExpiration, validation.Min(0)),
		validation.Field(&o.CookieSameSite, validation.In("", "Lax", "Strict", "None")),
	)
}

func (o Options) GetSigningSecret() string {
	return o.SigningSecret
}

func (o Options) GetTokenExpiration() int {
	return o.TokenExpiration
}

func (o Options) GetSessionCookieName() string {
	if o.SessionCookieName == "" {
		return DefaultSessionCookieName
	}
	return o.SessionCookieName
}

func (o Options) GetRootAdminName() string {
	return o.RootAdminName
}

func (o Options) GetCookieSameSite() string {
	if o.CookieSameSite == "" {
		return "Lax"
	}
	return o.CookieSameSite
}

func (o Options) GetCookieSecure() bool {
	return o.CookieSecure
}

func (o Options) GetRejectedRouteKey() string {
	if o.RejectedRouteKey == "" {
		return "rejected_route"
	}
	return o.RejectedRouteKey
}

func (o Options) GetRejectedRouteDefault() string {
	if o.RejectedRouteDefault == "" {
		return "/"
	}
	return o.RejectedRouteDefault
}
