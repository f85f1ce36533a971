package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/crime-analysis/backend/internal/models"
)

// ExternalIdentity is what an external token says about its bearer.
type ExternalIdentity struct {
	Subject string
	Email   string
	Role    models.Role
}

// UserService manages local user rows.
type UserService interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// UpsertExternal inserts the user on first sight of a subject and
	// otherwise rewrites email and role only when they changed.
	UpsertExternal(ctx context.Context, id ExternalIdentity) (*models.User, error)
	// CreateLocalUser stores a password-login user; passwordHash is already hashed.
	CreateLocalUser(ctx context.Context, email, passwordHash string, role models.Role) (*models.User, error)
	SetPassword(ctx context.Context, email, passwordHash string) error
	SetRole(ctx context.Context, email string, role models.Role) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type userService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) UserService {
	return &userService{db: db, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, s.lookupErr("find user by email", err)
	}
	return &user, nil
}

func (s *userService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, s.lookupErr("find user by id", err)
	}
	return &user, nil
}

func (s *userService) UpsertExternal(ctx context.Context, ident ExternalIdentity) (*models.User, error) {
	user, err := s.upsertExternal(ctx, ident)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent request inserted the same subject between our lookup
		// and insert. The row exists now, so one more pass takes the
		// update-or-nothing branch.
		s.log.Debug("external user inserted concurrently, retrying", zap.String("subject", ident.Subject))
		user, err = s.upsertExternal(ctx, ident)
	}
	if err != nil {
		s.log.Error("external user upsert failed", zap.String("subject", ident.Subject), zap.Error(err))
		return nil, storeErr("upsert external user", err)
	}
	return user, nil
}

func (s *userService) upsertExternal(ctx context.Context, ident ExternalIdentity) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_subject = ?", ident.Subject).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			subject := ident.Subject
			user = models.User{
				Email:           normalizeEmail(ident.Email),
				ExternalSubject: &subject,
				Role:            ident.Role,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if email := normalizeEmail(ident.Email); email != user.Email {
			changes["email"] = email
		}
		if ident.Role != user.Role {
			changes["role"] = ident.Role
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) CreateLocalUser(ctx context.Context, email, passwordHash string, role models.Role) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	user := models.User{Email: email, PasswordHash: &passwordHash, Role: models.ParseRole(string(role))}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.log.Error("create user failed", zap.String("email", email), zap.Error(err))
		return nil, storeErr("create user", err)
	}
	return &user, nil
}

func (s *userService) SetPassword(ctx context.Context, email, passwordHash string) error {
	return s.updateByEmail(ctx, email, "password_hash", passwordHash)
}

func (s *userService) SetRole(ctx context.Context, email string, role models.Role) error {
	return s.updateByEmail(ctx, email, "role", models.ParseRole(string(role)))
}

func (s *userService) updateByEmail(ctx context.Context, email, column string, value any) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", normalizeEmail(email)).
		Update(column, value)
	if res.Error != nil {
		s.log.Error("update user failed", zap.String("column", column), zap.Error(res.Error))
		return storeErr("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		s.log.Error("list users failed", zap.Error(err))
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func (s *userService) lookupErr(op string, err error) error {
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("user lookup failed", zap.String("op", op), zap.Error(err))
	}
	return storeErr(op, err)
}
