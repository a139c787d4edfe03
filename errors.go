package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidToken     = "INVALID_SESSION_TOKEN"
	textCodeForbidden        = "FORBIDDEN"
	textCodeUserNotFound     = "USER_NOT_FOUND"
	textCodeRateLimited      = "RATE_LIMITED"
	textCodeReservedIdentity = "RESERVED_IDENTITY"
)

// ErrInvalidToken covers malformed, forged, and expired session tokens. The
// cases are indistinguishable on purpose: a distinguishing error would hand
// attackers an oracle for forgery and clock-skew probing.
var ErrInvalidToken = goerrors.New("invalid session token", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is the single outcome for CSRF mismatches, insufficient
// delegation level, and unauthorized state mutations.
var ErrForbidden = goerrors.New("forbidden", goerrors.CategoryAuthz).
	WithTextCode(textCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrUserNotFound is returned when an operation targets an unknown user.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrRateLimited is returned when a sensitive action is throttled.
var ErrRateLimited = goerrors.New("too many requests", goerrors.CategoryOperation).
	WithTextCode(textCodeRateLimited).
	WithCode(429)

// ErrReservedIdentity rejects mutations of the configured root admin account.
var ErrReservedIdentity = goerrors.New("root admin identity is reserved", goerrors.CategoryConflict).
	WithTextCode(textCodeReservedIdentity).
	WithCode(goerrors.CodeConflict)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrNoEmptyString rejects empty required values
var ErrNoEmptyString = errors.New("value must not be empty")

// ErrMismatchedHashAndPassword is returned when a password check fails
var ErrMismatchedHashAndPassword = errors.New("password does not match")

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsInvalidToken will check for the invalid-token outcome
func IsInvalidToken(err error) bool {
	return hasTextCode(err, textCodeInvalidToken)
}

// IsForbidden will check for the forbidden outcome
func IsForbidden(err error) bool {
	return hasTextCode(err, textCodeForbidden)
}

// IsRateLimited will check for the throttled outcome
func IsRateLimited(err error) bool {
	return hasTextCode(err, textCodeRateLimited)
}

// IsReservedIdentity will check for reserved-identity rejections
func IsReservedIdentity(err error) bool {
	return hasTextCode(err, textCodeReservedIdentity)
}
