package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence/memory"
)

func seedUser(t *testing.T, p *memory.Persistence, username, password string) *models.User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		ID:           "user-" + username,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, p.UserRepository().Save(t.Context(), user))

	return user
}

func TestInternalAuthenticator(t *testing.T) {
	p := memory.NewPersistence()
	seeded := seedUser(t, p, "alice", "s3cret")

	authenticator := NewInternalAuthenticator(p.UserRepository())

	user, err := authenticator.Authenticate(t.Context(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	_, err = authenticator.Authenticate(t.Context(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authenticator.Authenticate(t.Context(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

// staticAuthenticator recognizes exactly one user with one password.
type staticAuthenticator struct {
	name     string
	username string
	password string
}

func (a *staticAuthenticator) Name() string { return a.name }

func (a *staticAuthenticator) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	if username != a.username {
		return nil, ErrUnknownUser
	}

	if password != a.password {
		return nil, ErrInvalidCredentials
	}

	return &models.User{ID: "user-" + username, Username: username}, nil
}

func TestRegistry_OrderedFallthrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := NewRegistry(logger)
	registry.Register(&staticAuthenticator{name: "first", username: "alice", password: "pw-a"})
	registry.Register(&staticAuthenticator{name: "second", username: "bob", password: "pw-b"})

	// Unknown to the first handler, resolved by the second.
	user, err := registry.Authenticate(t.Context(), "bob", "pw-b")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	// The handler that knows the user decides; no fallthrough on a wrong
	// password.
	_, err = registry.Authenticate(t.Context(), "alice", "pw-b")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Nobody knows the user.
	_, err = registry.Authenticate(t.Context(), "carol", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
