package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/hashid/pkg/hashid"
	auth "github.com/ravenlist/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserCommand(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	handler := auth.NewRegisterUserHandler(repo, auth.NewAdminGraph(repo, testConfig()))

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	user, err := repo.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyUserPassword(user, "password123"))
	assert.False(t, user.IsAdmin)
}

func TestRegisterUserCommandUsernameFromEmail(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	handler := auth.NewRegisterUserHandler(repo, auth.NewAdminGraph(repo, testConfig()))

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "bob@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = repo.Users().GetByUsername(ctx, "bob")
	require.NoError(t, err)
}

func TestRegisterUserCommandDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	handler := auth.NewRegisterUserHandler(repo, auth.NewAdminGraph(repo, testConfig()))

	msg := auth.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	}

	require.NoError(t, handler.Execute(ctx, msg))
	require.Error(t, handler.Execute(ctx, msg))
}

func TestRegisterUserCommandValidation(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	handler := auth.NewRegisterUserHandler(repo, auth.NewAdminGraph(repo, testConfig()))

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Username: "alice",
		Email:    "not-an-email",
		Password: "password123",
	})
	require.Error(t, err)
}

func TestRegisterUserCommandEmptyPassword(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	handler := auth.NewRegisterUserHandler(repo, auth.NewAdminGraph(repo, testConfig()))

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Username: "ghost",
		Email:    "ghost@example.com",
	})
	require.NoError(t, err)

	user, err := repo.Users().GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	require.NotEmpty(t, user.PasswordHash, "placeholder hash so the row is never loginable")
	assert.Error(t, auth.VerifyUserPassword(user, ""))
}

// Deterministic hashid IDs let a delegation edge exist before its user row.
// Registration has to rebuild the effective-admin set in its own transaction
// so the new user comes out with the flag already materialized.
func TestRegisterUserCommandMaterializesPendingDelegation(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	graph := auth.NewAdminGraph(repo, testConfig())
	handler := auth.NewRegisterUserHandler(repo, graph)

	root := mustRegister(t, repo, "admin")
	eveID, err := hashid.NewUUID("eve@example.com")
	require.NoError(t, err)

	require.NoError(t, graph.AddDelegation(ctx, identityOf(t, repo, root.ID), root.ID, eveID, false))

	require.NoError(t, handler.Execute(ctx, auth.RegisterUserMessage{
		Username:  "eve",
		Email:     "eve@example.com",
		Password:  "password123",
		UseHashid: true,
	}))

	eve, err := repo.Users().GetByUsername(ctx, "eve")
	require.NoError(t, err)
	require.Equal(t, eveID, eve.ID)
	assert.True(t, eve.IsAdmin, "pending edge takes effect at registration")
}

func TestRegisterUserCommandCancelledContext(t *testing.T) {
	repo := setupTestRepo(t)
	handler := auth.NewRegisterUserHandler(repo, auth.NewAdminGraph(repo, testConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Error(t, err)
}
