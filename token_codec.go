package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const tokenFieldSep = "|"

// MinSecretLength is the smallest signing secret we accept.
const MinSecretLength = 32

// TokenCodec signs and verifies opaque, stateless, expiring tokens. Tokens
// have the wire form base64url(payload|unix-expiry|hex-hmac) and exist only
// in the client cookie; they are destroyed by expiry or by overwriting the
// cookie, never by server-side state.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

type TokenCodecOption func(*TokenCodec)

// WithCodecClock injects a custom clock (useful for tests).
func WithCodecClock(clock func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewTokenCodec returns a codec bound to the given secret.
func NewTokenCodec(secret []byte, opts ...TokenCodecOption) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, goerrors.New("token codec secret too short", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"min_length": MinSecretLength})
	}

	c := &TokenCodec{
		secret: secret,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// Sign produces a token for payload that expires after ttl. It is a pure
// function of secret, payload, and clock.
func (c *TokenCodec) Sign(payload string, ttl time.Duration) (string, error) {
	if payload == "" {
		return "", goerrors.New("token payload must not be empty", goerrors.CategoryBadInput)
	}
	if strings.Contains(payload, tokenFieldSep) {
		return "", goerrors.New("token payload must not contain the field separator", goerrors.CategoryBadInput)
	}
	if ttl <= 0 {
		return "", goerrors.New("token TTL must be positive", goerrors.CategoryBadInput)
	}

	expiry := strconv.FormatInt(c.now().Add(ttl).Unix(), 10)
	msg := payload + tokenFieldSep + expiry
	token := msg + tokenFieldSep + c.signature(msg)

	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

// Verify decodes and checks a token, returning its payload. Every failure
// collapses into ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}

	parts := strings.Split(string(decoded), tokenFieldSep)
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}
	payload, expiry, sigHex := parts[0], parts[1], parts[2]

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", ErrInvalidToken
	}

	if !hmac.Equal(sig, c.rawSignature(payload+tokenFieldSep+expiry)) {
		return "", ErrInvalidToken
	}

	exp, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}

	if !time.Unix(exp, 0).After(c.now()) {
		return "", ErrInvalidToken
	}

	return payload, nil
}

func (c *TokenCodec) rawSignature(msg string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

func (c *TokenCodec) signature(msg string) string {
	return hex.EncodeToString(c.rawSignature(msg))
}
