package repository

import (
	"context"
	"errors"

	"github.com/glucolog/glucolog/internal/database"
	"github.com/glucolog/glucolog/internal/domain"
	"gorm.io/gorm"
)

// UserRepository handles user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreateUser gets the user for an external auth subject, creating
// the record on first authenticated access with the given role.
func (r *UserRepository) GetOrCreateUser(ctx context.Context, authID, email string, role domain.Role) (*database.User, error) {
	var user database.User
	result := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&user)
	if result.Error == nil {
		return &user, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	user = database.User{
		AuthID: authID,
		Email:  email,
		Role:   string(role),
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByAuthID gets a user by their external auth subject
func (r *UserRepository) GetUserByAuthID(ctx context.Context, authID string) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID gets a user by internal id
func (r *UserRepository) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, userID uint, role domain.Role) error {
	return r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", userID).
		Update("role", string(role)).Error
}
