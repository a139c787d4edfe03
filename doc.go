// Package auth is the authorization and session-security core of the
// Ravenlist server directory: stateless signed session tokens, CSRF values
// derived from the session, a two-level admin delegation graph, and a
// sliding-window rate limiter for sensitive routes.
//
// Session tokens:
//   - TokenCodec signs base64url(payload|expiry|hmac) tokens with a shared
//     secret. Verification collapses every failure (bad encoding, forged
//     signature, passed expiry) into the single ErrInvalidToken outcome so
//     callers cannot be used as a forgery or clock-skew oracle.
//   - Auther resolves tokens to identities through the Users repository and
//     enforces locked/deleted revocation at resolution time. There is no
//     server-side token store or blacklist; revocation takes effect on the
//     next resolution.
//
// Admin delegation:
//   - AdminGraph owns the Owner -> Admin edge set. Every mutation recomputes
//     the effective-admin set inside the same transaction, so no reader ever
//     observes an edge change without the matching is_admin update.
//   - CanManage implements the level-based manage predicate rooted at the
//     configured root admin.
//
// CSRFGuard derives its token from the current session token and is never
// stored server side. RateLimiter is process-local by design; see the
// middleware subpackages for the go-router adapters.
package auth
