package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/crime-analysis/backend/internal/models"
	"github.com/crime-analysis/backend/internal/services"
)

type fakeStore struct {
	mu      sync.Mutex
	users   []*models.User
	upserts int
	failErr error
}

func (f *fakeStore) add(email, password string, role models.Role) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: uint(len(f.users) + 1), Email: email, Role: role}
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			panic(err)
		}
		u.PasswordHash = &hash
	}
	f.users = append(f.users, u)
	return u
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeStore) FindByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeStore) UpsertExternal(_ context.Context, ident services.ExternalIdentity) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.upserts++
	for _, u := range f.users {
		if u.ExternalSubject != nil && *u.ExternalSubject == ident.Subject {
			u.Email, u.Role = ident.Email, ident.Role
			return u, nil
		}
	}
	subject := ident.Subject
	u := &models.User{ID: uint(len(f.users) + 1), Email: ident.Email, ExternalSubject: &subject, Role: ident.Role}
	f.users = append(f.users, u)
	return u, nil
}

var errDown = errors.New("connection refused")
