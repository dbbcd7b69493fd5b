package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/healing-guide-backend/internal/data/db"
	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

const (
	defaultUserPageSize = 50
	maxUserPageSize     = 200
)

type CreateUserInput struct {
	Email string
	Name  string
	Age   *int
}

// UpdateUserInput changes only the fields that are set.
type UpdateUserInput struct {
	Email *string
	Name  *string
	Age   *int
}

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*types.User, error)
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	List(ctx context.Context, limit, offset int) ([]*types.User, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*types.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func validateAge(age *int) error {
	if age != nil && (*age < 0 || *age > 150) {
		return apierr.BadRequest("validation_error", "Age must be between 0 and 150")
	}
	return nil
}

func duplicateEmail() error {
	return apierr.BadRequest("duplicate_email", "Email already registered")
}

func (us *userService) Create(ctx context.Context, in CreateUserInput) (*types.User, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validateAge(in.Age); err != nil {
		return nil, err
	}

	var created *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := us.userRepo.EmailExists(inner, email)
		if err != nil {
			return err
		}
		if exists {
			return duplicateEmail()
		}
		created, err = us.userRepo.Create(inner, &types.User{
			Email: email,
			Name:  strings.TrimSpace(in.Name),
			Age:   in.Age,
		})
		return err
	})
	if db.IsUniqueViolation(err) {
		return nil, duplicateEmail()
	}
	if err != nil {
		var ae *apierr.Error
		if !errors.As(err, &ae) {
			us.log.Error("create user failed", "error", err)
			err = fmt.Errorf("create user: %w", err)
		}
		return nil, err
	}
	return created, nil
}

func (us *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("not_found", "User not found")
	}
	return u, nil
}

func (us *userService) List(ctx context.Context, limit, offset int) ([]*types.User, error) {
	if limit <= 0 {
		limit = defaultUserPageSize
	}
	limit = min(limit, maxUserPageSize)
	offset = max(offset, 0)
	users, err := us.userRepo.List(dbctx.Context{Ctx: ctx}, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (us *userService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*types.User, error) {
	updates := map[string]any{}
	if in.Email != nil {
		email, err := validateEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Age != nil {
		if err := validateAge(in.Age); err != nil {
			return nil, err
		}
		updates["age"] = *in.Age
	}

	var updated *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := us.userRepo.GetByID(inner, id)
		if err != nil {
			return err
		}
		if current == nil {
			return apierr.NotFound("not_found", "User not found")
		}
		if email, ok := updates["email"].(string); ok && email != current.Email {
			other, err := us.userRepo.GetByEmail(inner, email)
			if err != nil {
				return err
			}
			if other != nil {
				return duplicateEmail()
			}
		}
		if len(updates) > 0 {
			if err := us.userRepo.UpdateFields(inner, id, updates); err != nil {
				return err
			}
		}
		updated, err = us.userRepo.GetByID(inner, id)
		return err
	})
	if db.IsUniqueViolation(err) {
		return nil, duplicateEmail()
	}
	if err != nil {
		var ae *apierr.Error
		if !errors.As(err, &ae) {
			us.log.Error("update user failed", "user_id", id, "error", err)
			err = fmt.Errorf("update user: %w", err)
		}
		return nil, err
	}
	return updated, nil
}

func (us *userService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := us.userRepo.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return apierr.NotFound("not_found", "User not found")
	}
	return nil
}
