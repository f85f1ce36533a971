// Package auth turns bearer credentials into application users.
//
// Two interchangeable resolvers exist: LocalPassword issues and verifies its
// own HS256 tokens for users stored with a bcrypt password hash, and
// ExternalJWKS verifies RS256 tokens from an external identity provider and
// mirrors their subjects into the users table. One of them is chosen at
// startup.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/crime-analysis/backend/internal/models"
	"github.com/crime-analysis/backend/internal/services"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrTokenInvalid       = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrMissingSubject     = fmt.Errorf("%w: token has no subject", ErrUnauthenticated)

	// ErrKeysUnavailable means the issuer's signing keys could not be
	// loaded. It says nothing about the token itself.
	ErrKeysUnavailable = errors.New("signing keys unavailable")
)

// AuthenticatedUser is the identity attached to a request.
type AuthenticatedUser struct {
	ID    uint        `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func fromUser(u *models.User) *AuthenticatedUser {
	return &AuthenticatedUser{ID: u.ID, Email: u.Email, Role: models.ParseRole(string(u.Role))}
}

// IdentityResolver resolves a bearer token to a user.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*AuthenticatedUser, error)
}

// PasswordAuthenticator is implemented by resolvers that can log users in
// with an email and password.
type PasswordAuthenticator interface {
	Login(ctx context.Context, email, password string) (string, *AuthenticatedUser, error)
}

// UserStore is the slice of services.UserService the resolvers need.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	UpsertExternal(ctx context.Context, id services.ExternalIdentity) (*models.User, error)
}

// storeFailure keeps store errors distinguishable from auth failures.
func storeFailure(op string, err error) error {
	if errors.Is(err, services.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", services.ErrStoreUnavailable, op, err)
}
