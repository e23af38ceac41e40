// Package auth provides an explicit ordered registry of authentication
// handlers. Priority is list order: the first handler that recognizes
// the username decides the outcome.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator verifies one username/password pair against one backing
// directory. Returning ErrUnknownUser passes the attempt to the next
// handler in the registry.
type Authenticator interface {
	Name() string
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// ErrUnknownUser signals that the handler has no record of the user and
// the next handler should be consulted.
var ErrUnknownUser = errors.New("unknown user")

// Registry tries its handlers in registration order.
type Registry struct {
	handlers []Authenticator
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger.With("module", "auth")}
}

func (r *Registry) Register(handler Authenticator) {
	r.handlers = append(r.handlers, handler)
}

// Authenticate walks the ordered handlers. A handler that knows the user
// decides; one that does not passes the attempt on.
func (r *Registry) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	for _, handler := range r.handlers {
		user, err := handler.Authenticate(ctx, username, password)
		if errors.Is(err, ErrUnknownUser) {
			continue
		}

		if err != nil {
			r.logger.InfoContext(ctx, "Authentication rejected",
				"handler", handler.Name(), "username", username)

			return nil, err
		}

		return user, nil
	}

	return nil, fmt.Errorf("no handler recognizes %q: %w", username, ErrInvalidCredentials)
}

// InternalAuthenticator checks bcrypt password hashes stored with the
// platform's own users.
type InternalAuthenticator struct {
	users persistence.UserRepository
}

func NewInternalAuthenticator(users persistence.UserRepository) *InternalAuthenticator {
	return &InternalAuthenticator{users: users}
}

func (a *InternalAuthenticator) Name() string { return "internal" }

func (a *InternalAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}

		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// HashPassword produces the bcrypt hash stored on a user record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
