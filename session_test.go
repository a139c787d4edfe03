package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFromPayloadUser(t *testing.T) {
	id := uuid.New()

	session, err := sessionFromPayload(id.String())
	require.NoError(t, err)

	assert.Equal(t, id.String(), session.GetUserID())
	assert.False(t, session.IsRoot())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSessionFromPayloadAdmin(t *testing.T) {
	session, err := sessionFromPayload("admin:root")
	require.NoError(t, err)

	assert.True(t, session.IsRoot())
	assert.Equal(t, "root", session.GetUsername())
	assert.Empty(t, session.GetUserID())
}

func TestSessionFromPayloadRejectsGarbage(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not a uuid", "bob"},
		{"admin with empty name", "admin:"},
		{"numeric id", "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sessionFromPayload(tc.payload)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
