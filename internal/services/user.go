package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/peoplesquare/backend/internal/models"
	"github.com/peoplesquare/backend/internal/repository"
	"github.com/peoplesquare/backend/internal/utils"
	"github.com/peoplesquare/backend/pkg/response"
	"gorm.io/gorm"
)

var ErrNotOwnProfile = response.NewForbidden("Forbidden: You can only update your own profile")

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{users: repository.NewUserRepository(db)}
}

type UpdateUserRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Update edits a profile. Only the account holder may edit it, and password
// rules are checked only when a new password is supplied.
func (s *UserService) Update(ctx context.Context, id, callerID string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID != callerID {
		return nil, ErrNotOwnProfile
	}

	in := utils.SanitizeUser(utils.UserFields{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if errs := utils.ValidateUser(in, in.Password != ""); len(errs) > 0 {
		return nil, response.NewValidation(errs)
	}

	if in.Email != user.Email {
		taken, err := s.users.EmailTaken(ctx, in.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailExists
		}
	}

	var hash string
	if in.Password != "" {
		if hash, err = utils.HashPassword(in.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	user.FullName = in.FullName
	user.Email = in.Email
	user.Role = in.Role
	if err := s.users.UpdateProfile(ctx, user, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}
