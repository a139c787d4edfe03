package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a signed session stays valid.
const DefaultSessionTTL = 8 * time.Hour

type Auther struct {
	users      UserStore
	codec      *TokenCodec
	secret     []byte
	rootName   string
	sessionTTL time.Duration
	logger     Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator backed by the given user store.
func NewAuthenticator(users UserStore, cfg Config) (*Auther, error) {
	secret := []byte(cfg.GetSigningSecret())

	codec, err := NewTokenCodec(secret)
	if err != nil {
		return nil, err
	}

	ttl := DefaultSessionTTL
	if cfg.GetTokenExpiration() > 0 {
		ttl = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	return &Auther{
		users:      users,
		codec:      codec,
		secret:     secret,
		rootName:   cfg.GetRootAdminName(),
		sessionTTL: ttl,
		logger:     defLogger{},
	}, nil
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock rebuilds the token codec around a custom clock (useful for tests).
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	codec, err := NewTokenCodec(s.secret, WithCodecClock(clock))
	if err == nil {
		s.codec = codec
	}
	return s
}

// Codec exposes the token codec used by this authenticator.
func (s *Auther) Codec() *TokenCodec {
	return s.codec
}

// SignUserSession issues a session token for the given user id.
func (s *Auther) SignUserSession(id uuid.UUID) (string, error) {
	if id == uuid.Nil {
		return "", goerrors.New("user id is required", goerrors.CategoryBadInput)
	}
	return s.codec.Sign(id.String(), s.sessionTTL)
}

// SignAdminSession issues a bootstrap token carrying the root admin name.
// It exists so the configured root can authenticate before any persisted
// row exists.
func (s *Auther) SignAdminSession(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", goerrors.New("username is required", goerrors.CategoryBadInput)
	}
	return s.codec.Sign(adminSessionPrefix+username, s.sessionTTL)
}

// SessionFromToken verifies a raw token and maps it to a session.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	payload, err := s.codec.Verify(raw)
	if err != nil {
		return nil, err
	}
	return sessionFromPayload(payload)
}

// IdentityFromSession resolves the session to a live principal. Revocation
// happens here: a locked or deleted user makes a syntactically valid token
// resolve to ErrInvalidToken, same shape as a forged one.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	if session == nil {
		return nil, ErrInvalidToken
	}

	if session.IsRoot() {
		if !strings.EqualFold(session.GetUsername(), s.rootName) {
			s.logger.Warn("bootstrap session for non configured root", "username", session.GetUsername())
			return nil, ErrInvalidToken
		}
		return NewRootIdentity(session.GetUsername()), nil
	}

	id, err := session.GetUserUUID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if user.IsLocked || user.Deleted {
		s.logger.Debug("session rejected for inactive user", "user_id", user.ID.String(), "status", user.Status())
		return nil, ErrInvalidToken
	}

	return NewIdentityFromUser(user), nil
}

// IdentityFromToken is the cookie-to-principal path used by the HTTP layer.
func (s *Auther) IdentityFromToken(ctx context.Context, raw string) (Identity, error) {
	session, err := s.SessionFromToken(raw)
	if err != nil {
		return nil, err
	}
	return s.IdentityFromSession(ctx, session)
}

// Login verifies credentials and signs a session. Unknown identifier, bad
// password, and inactive account all collapse into ErrIdentityNotFound so
// the login form cannot be used for account enumeration.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	user, err := s.lookup(ctx, identifier)
	if err != nil {
		s.logger.Debug("login lookup failed", "identifier", identifier)
		return "", ErrIdentityNotFound
	}

	if err := VerifyUserPassword(user, password); err != nil {
		s.logger.Debug("login password mismatch", "user_id", user.ID.String())
		return "", ErrIdentityNotFound
	}

	if user.IsLocked || user.Deleted {
		s.logger.Info("login blocked for inactive user", "user_id", user.ID.String(), "status", user.Status())
		return "", ErrIdentityNotFound
	}

	return s.SignUserSession(user.ID)
}

func (s *Auther) lookup(ctx context.Context, identifier string) (*User, error) {
	if strings.Contains(identifier, "@") {
		return s.users.GetByEmail(ctx, identifier)
	}
	return s.users.GetByUsername(ctx, identifier)
}
