package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	auth "github.com/ravenlist/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, password string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	return &auth.User{
		ID:           uuid.New(),
		Username:     "pepe",
		Email:        "pepe@example.com",
		PasswordHash: hash,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := new(MockUserStore)
	user := newTestUser(t, "password123")

	store.On("GetByEmail", ctx, "pepe@example.com").Return(user, nil)

	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	token, err := authenticator.Login(ctx, "pepe@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.GetUserID())
	assert.False(t, session.IsRoot())

	store.AssertExpectations(t)
}

func TestLoginByUsername(t *testing.T) {
	ctx := context.Background()
	store := new(MockUserStore)
	user := newTestUser(t, "password123")

	store.On("GetByUsername", ctx, "pepe").Return(user, nil)

	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	token, err := authenticator.Login(ctx, "pepe", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	store.AssertExpectations(t)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()

	lockedUser := newTestUser(t, "password123")
	lockedUser.IsLocked = true

	deletedUser := newTestUser(t, "password123")
	deletedUser.Deleted = true

	cases := []struct {
		name     string
		setup    func(store *MockUserStore)
		password string
	}{
		{
			name: "unknown user",
			setup: func(store *MockUserStore) {
				store.On("GetByUsername", ctx, "pepe").Return(nil, auth.ErrUserNotFound)
			},
			password: "password123",
		},
		{
			name: "wrong password",
			setup: func(store *MockUserStore) {
				store.On("GetByUsername", ctx, "pepe").Return(newTestUser(t, "password123"), nil)
			},
			password: "nope",
		},
		{
			name: "locked user",
			setup: func(store *MockUserStore) {
				store.On("GetByUsername", ctx, "pepe").Return(lockedUser, nil)
			},
			password: "password123",
		},
		{
			name: "deleted user",
			setup: func(store *MockUserStore) {
				store.On("GetByUsername", ctx, "pepe").Return(deletedUser, nil)
			},
			password: "password123",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockUserStore)
			tc.setup(store)

			authenticator, err := auth.NewAuthenticator(store, testConfig())
			require.NoError(t, err)

			token, err := authenticator.Login(ctx, "pepe", tc.password)
			assert.ErrorIs(t, err, auth.ErrIdentityNotFound, "every login failure looks the same")
			assert.Empty(t, token)
		})
	}
}

func TestIdentityFromToken(t *testing.T) {
	ctx := context.Background()
	store := new(MockUserStore)
	user := newTestUser(t, "password123")

	store.On("GetUserByID", ctx, user.ID).Return(user, nil)

	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	token, err := authenticator.SignUserSession(user.ID)
	require.NoError(t, err)

	identity, err := authenticator.IdentityFromToken(ctx, token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, "pepe", identity.Username())
	assert.False(t, identity.IsAdmin())

	store.AssertExpectations(t)
}

func TestIdentityFromTokenRevoked(t *testing.T) {
	ctx := context.Background()

	lockedUser := newTestUser(t, "password123")
	lockedUser.IsLocked = true

	deletedUser := newTestUser(t, "password123")
	deletedUser.Deleted = true

	cases := []struct {
		name string
		user *auth.User
	}{
		{"locked", lockedUser},
		{"deleted", deletedUser},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockUserStore)
			store.On("GetUserByID", ctx, tc.user.ID).Return(tc.user, nil)

			authenticator, err := auth.NewAuthenticator(store, testConfig())
			require.NoError(t, err)

			// token was signed while the account was in good standing
			token, err := authenticator.SignUserSession(tc.user.ID)
			require.NoError(t, err)

			_, err = authenticator.IdentityFromToken(ctx, token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken, "revocation happens at resolution")
		})
	}
}

func TestIdentityFromTokenUnknownUser(t *testing.T) {
	ctx := context.Background()
	store := new(MockUserStore)
	id := uuid.New()

	store.On("GetUserByID", ctx, id).Return(nil, auth.ErrUserNotFound)

	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	token, err := authenticator.SignUserSession(id)
	require.NoError(t, err)

	_, err = authenticator.IdentityFromToken(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAdminSessionResolvesToRoot(t *testing.T) {
	ctx := context.Background()
	store := new(MockUserStore)

	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	token, err := authenticator.SignAdminSession("admin")
	require.NoError(t, err)

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)
	require.True(t, session.IsRoot())

	identity, err := authenticator.IdentityFromSession(ctx, session)
	require.NoError(t, err)

	assert.Empty(t, identity.ID(), "virtual principal has no row")
	assert.Equal(t, "admin", identity.Username())
	assert.True(t, identity.IsAdmin())

	// no user store lookup for the bootstrap principal
	store.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
}

func TestAdminSessionNameMismatch(t *testing.T) {
	ctx := context.Background()
	store := new(MockUserStore)

	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	token, err := authenticator.SignAdminSession("intruder")
	require.NoError(t, err)

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)

	_, err = authenticator.IdentityFromSession(ctx, session)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSignUserSessionRejectsNilID(t *testing.T) {
	store := new(MockUserStore)

	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	_, err = authenticator.SignUserSession(uuid.Nil)
	assert.Error(t, err)
}

func TestSessionExpiresWithClock(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now

	store := new(MockUserStore)
	authenticator, err := auth.NewAuthenticator(store, testConfig())
	require.NoError(t, err)

	authenticator = authenticator.WithClock(func() time.Time {
		return current
	})

	token, err := authenticator.SignUserSession(uuid.New())
	require.NoError(t, err)

	_, err = authenticator.SessionFromToken(token)
	require.NoError(t, err)

	current = now.Add(9 * time.Hour)
	_, err = authenticator.SessionFromToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
