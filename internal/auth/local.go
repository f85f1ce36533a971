package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crime-analysis/backend/internal/services"
)

// DefaultTokenTTL is how long a locally issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// LocalPassword authenticates users against password hashes in the users
// table and issues HS256 tokens whose subject is the user id.
type LocalPassword struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewLocalPassword(users UserStore, secret string, ttl time.Duration) *LocalPassword {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &LocalPassword{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (l *LocalPassword) Login(ctx context.Context, email, password string) (string, *AuthenticatedUser, error) {
	user, err := l.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, storeFailure("login", err)
	}
	if user.PasswordHash == nil || !CheckPassword(*user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := l.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, fromUser(user), nil
}

// Issue signs a token for userID.
func (l *LocalPassword) Issue(userID uint) (string, error) {
	now := l.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiry and returns the user id.
func (l *LocalPassword) Decode(token string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return l.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return 0, ErrMissingSubject
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject is not a user id", ErrTokenInvalid)
	}
	return uint(id), nil
}

func (l *LocalPassword) Resolve(ctx context.Context, token string) (*AuthenticatedUser, error) {
	id, err := l.Decode(token)
	if err != nil {
		return nil, err
	}
	user, err := l.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d no longer exists", ErrUnauthenticated, id)
		}
		return nil, storeFailure("resolve user", err)
	}
	return fromUser(user), nil
}
