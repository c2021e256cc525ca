package services

import (
	"context"
	"errors"

	"github.com/glucolog/glucolog/internal/apperrors"
	"github.com/glucolog/glucolog/internal/database"
	"github.com/glucolog/glucolog/internal/domain"
	"gorm.io/gorm"
)

type CaregiverService struct {
	db *gorm.DB
}

func NewCaregiverService(db *gorm.DB) *CaregiverService {
	return &CaregiverService{db: db}
}

// Connect grants a caregiver read access to a user's data. Only users
// with the caregiver role can hold connections. Connecting twice is a
// no-op.
func (s *CaregiverService) Connect(ctx context.Context, caregiver *domain.User, userID uint) error {
	if caregiver.Role != domain.RoleCaregiver {
		return apperrors.NewAuthorizationError("only caregivers can be connected to a patient")
	}
	if caregiver.ID == userID {
		return apperrors.NewValidationError("userID", "cannot connect a caregiver to themselves")
	}

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("user", userID)
		}
		return apperrors.NewDatabaseError(err)
	}

	record := database.CaregiverConnection{
		CaregiverID: caregiver.ID,
		UserID:      userID,
	}
	result := s.db.WithContext(ctx).
		Where(database.CaregiverConnection{CaregiverID: caregiver.ID, UserID: userID}).
		FirstOrCreate(&record)
	if result.Error != nil {
		return apperrors.NewDatabaseError(result.Error)
	}
	return nil
}

// AuthorizeRead checks whether the actor may read targetUserID's data.
// Owners always may; caregivers need an explicit connection. A caregiver
// grant never implies write access, so callers must use this only on
// read paths.
func (s *CaregiverService) AuthorizeRead(ctx context.Context, actor *domain.User, targetUserID uint) error {
	if actor.ID == targetUserID {
		return nil
	}
	if actor.Role != domain.RoleCaregiver {
		return apperrors.NewAuthorizationError("not authorized to read this user's data")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&database.CaregiverConnection{}).
		Where("caregiver_id = ? AND user_id = ?", actor.ID, targetUserID).
		Count(&count).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	if count == 0 {
		return apperrors.NewAuthorizationError("no caregiver connection to this user")
	}
	return nil
}
