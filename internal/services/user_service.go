package services

import (
	"context"
	"errors"

	"github.com/glucolog/glucolog/internal/apperrors"
	"github.com/glucolog/glucolog/internal/domain"
	"github.com/glucolog/glucolog/internal/repository"
	"gorm.io/gorm"
)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{users: repository.NewUserRepository(db)}
}

// GetOrCreateUser resolves an authenticated subject to an internal user,
// creating the account on first access. When the auth provider asserts
// the caregiver role for an existing standard account, the account is
// promoted; roles are never demoted automatically.
func (s *UserService) GetOrCreateUser(ctx context.Context, authID, email string, role domain.Role) (*domain.User, error) {
	if role != domain.RoleCaregiver {
		role = domain.RoleStandard
	}
	user, err := s.users.GetOrCreateUser(ctx, authID, email, role)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	if role == domain.RoleCaregiver && user.Role != string(domain.RoleCaregiver) {
		if err := s.users.UpdateRole(ctx, user.ID, domain.RoleCaregiver); err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}
		user.Role = string(domain.RoleCaregiver)
	}
	return toDomainUser(user), nil
}

// GetUserByAuthID resolves an authenticated subject to an internal user.
func (s *UserService) GetUserByAuthID(ctx context.Context, authID string) (*domain.User, error) {
	user, err := s.users.GetUserByAuthID(ctx, authID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainUser(user), nil
}

// GetUserByID fetches a user by internal id.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainUser(user), nil
}
