package auth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// adminSessionPrefix marks bootstrap tokens carrying the root admin name
// instead of a persisted user id.
const adminSessionPrefix = "admin:"

var _ Session = &SessionObject{}

// SessionObject holds what a verified session token asserts. Either UserID is
// set (ordinary session) or Username+Root are (bootstrap admin session);
// never both.
type SessionObject struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Root     bool   `json:"root,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetUsername() string {
	return s.Username
}

func (s *SessionObject) IsRoot() bool {
	return s.Root
}

func (s SessionObject) String() string {
	if s.Root {
		return fmt.Sprintf("root=%s", s.Username)
	}
	return fmt.Sprintf("user=%s", s.UserID)
}

// sessionFromPayload maps a verified token payload to a session. Payloads are
// either a user UUID or "admin:<name>"; anything else is treated exactly like
// a forged token.
func sessionFromPayload(payload string) (*SessionObject, error) {
	if strings.HasPrefix(payload, adminSessionPrefix) {
		name := strings.TrimPrefix(payload, adminSessionPrefix)
		if name == "" {
			return nil, ErrInvalidToken
		}
		return &SessionObject{Username: name, Root: true}, nil
	}

	if _, err := uuid.Parse(payload); err != nil {
		return nil, ErrInvalidToken
	}

	return &SessionObject{UserID: payload}, nil
}
