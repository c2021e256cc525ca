package services

import (
	"context"
	"errors"
	"time"

	"github.com/glucolog/glucolog/internal/apperrors"
	"github.com/glucolog/glucolog/internal/database"
	"github.com/glucolog/glucolog/internal/domain"
	"github.com/glucolog/glucolog/internal/validation"
	"gorm.io/gorm"
)

type ReadingService struct {
	db *gorm.DB
}

func NewReadingService(db *gorm.DB) *ReadingService {
	return &ReadingService{db: db}
}

// AddReading validates and stores a new glucose reading for the user.
func (s *ReadingService) AddReading(ctx context.Context, userID uint, in validation.ReadingInput) (*domain.Reading, error) {
	reading, err := validation.ValidateReading(in, time.Now())
	if err != nil {
		return nil, err
	}

	record := &database.Reading{
		UserID:      userID,
		Value:       reading.Value,
		Timestamp:   reading.Timestamp,
		MealContext: string(reading.MealContext),
		Notes:       reading.Notes,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	return toDomainReading(record), nil
}

// GetUserReadings returns the user's readings, newest first.
func (s *ReadingService) GetUserReadings(ctx context.Context, userID uint) ([]domain.Reading, error) {
	var records []database.Reading
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&records).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainReadings(records), nil
}

// GetRunReadings returns all readings attached to a run.
func (s *ReadingService) GetRunReadings(ctx context.Context, runID uint) ([]domain.Reading, error) {
	var records []database.Reading
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("timestamp ASC").
		Find(&records).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainReadings(records), nil
}

func (s *ReadingService) getOwnedReading(ctx context.Context, userID, readingID uint) (*database.Reading, error) {
	var record database.Reading
	if err := s.db.WithContext(ctx).First(&record, readingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("reading", readingID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	if record.UserID != userID {
		return nil, apperrors.NewAuthorizationError("reading belongs to another user")
	}
	return &record, nil
}

// DeleteReading removes a reading owned by the user.
func (s *ReadingService) DeleteReading(ctx context.Context, userID, readingID uint) error {
	record, err := s.getOwnedReading(ctx, userID, readingID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// AttachToRun associates a reading with a run under the domain ownership
// rules. The run's cached stats are not touched here; recalculation is a
// separate idempotent step.
func (s *ReadingService) AttachToRun(ctx context.Context, userID, readingID, runID uint) (*domain.Reading, error) {
	record, err := s.getOwnedReading(ctx, userID, readingID)
	if err != nil {
		return nil, err
	}

	var runRecord database.Run
	if err := s.db.WithContext(ctx).First(&runRecord, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("run", runID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	reading := toDomainReading(record)
	run := toDomainRun(&runRecord)
	if err := domain.AttachReading(reading, run); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(record).Update("run_id", reading.RunID).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return reading, nil
}

// DetachFromRun clears a reading's run association.
func (s *ReadingService) DetachFromRun(ctx context.Context, userID, readingID uint) (*domain.Reading, error) {
	record, err := s.getOwnedReading(ctx, userID, readingID)
	if err != nil {
		return nil, err
	}

	reading := toDomainReading(record)
	domain.DetachReading(reading)

	if err := s.db.WithContext(ctx).Model(record).Update("run_id", nil).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return reading, nil
}
