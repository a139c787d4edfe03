package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"

	goerrors "github.com/goliatone/go-errors"
)

// CSRFFormField is the hidden form field carrying the CSRF value.
const CSRFFormField = "csrf_token"

// AnonCSRFCookieName is the plain cookie backing anonymous flows.
const AnonCSRFCookieName = "csrf_anon"

const anonTokenLength = 32

// CSRFGuard derives a per-session CSRF value from the session token itself.
// Nothing is stored server side: the value rotates or dies together with the
// session token it was derived from.
type CSRFGuard struct {
	secret []byte
}

// NewCSRFGuard returns a guard bound to the given secret.
func NewCSRFGuard(secret []byte) (*CSRFGuard, error) {
	if len(secret) < MinSecretLength {
		return nil, goerrors.New("csrf secret too short", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"min_length": MinSecretLength})
	}
	return &CSRFGuard{secret: secret}, nil
}

// TokenForSession is a pure function of (secret, session token).
func (g *CSRFGuard) TokenForSession(sessionToken string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(sessionToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// AnonToken returns a random fallback value for anonymous flows. The caller
// stores it in a plain cookie, created once and reused; only anonymous,
// low-risk actions take this path.
func (g *CSRFGuard) AnonToken() (string, error) {
	buf := make([]byte, anonTokenLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to generate csrf value")
	}
	return hex.EncodeToString(buf), nil
}

// Verify constant-time compares the expected token against the submitted
// form value. Absence of either side is a failure; every failure collapses
// into ErrForbidden.
func (g *CSRFGuard) Verify(expected, submitted string) error {
	if expected == "" || submitted == "" {
		return ErrForbidden
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) != 1 {
		return ErrForbidden
	}
	return nil
}
