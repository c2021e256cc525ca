package services

import (
	"context"
	"errors"
	"time"

	"github.com/glucolog/glucolog/internal/aggregation"
	"github.com/glucolog/glucolog/internal/apperrors"
	"github.com/glucolog/glucolog/internal/database"
	"github.com/glucolog/glucolog/internal/domain"
	"gorm.io/gorm"
)

type RunService struct {
	db       *gorm.DB
	readings *ReadingService
}

func NewRunService(db *gorm.DB, readings *ReadingService) *RunService {
	return &RunService{db: db, readings: readings}
}

// CreateRun stores a new run after checking its interval.
func (s *RunService) CreateRun(ctx context.Context, userID uint, name string, start, end time.Time) (*domain.Run, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name", "run name is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.NewValidationError("startDate", "start and end dates are required")
	}
	if end.Before(start) {
		return nil, apperrors.NewValidationError("endDate", "end date must not precede start date")
	}

	record := &database.Run{
		UserID:    userID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainRun(record), nil
}

// GetUserRuns returns the user's runs, newest first.
func (s *RunService) GetUserRuns(ctx context.Context, userID uint) ([]domain.Run, error) {
	var records []database.Run
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&records).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainRuns(records), nil
}

// GetMonthRuns returns all runs attached to a month.
func (s *RunService) GetMonthRuns(ctx context.Context, monthID uint) ([]domain.Run, error) {
	var records []database.Run
	if err := s.db.WithContext(ctx).
		Where("month_id = ?", monthID).
		Order("start_date ASC").
		Find(&records).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainRuns(records), nil
}

func (s *RunService) getOwnedRun(ctx context.Context, userID, runID uint) (*database.Run, error) {
	var record database.Run
	if err := s.db.WithContext(ctx).First(&record, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("run", runID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	if record.UserID != userID {
		return nil, apperrors.NewAuthorizationError("run belongs to another user")
	}
	return &record, nil
}

// GetRunStats aggregates the readings currently attached to the run.
func (s *RunService) GetRunStats(ctx context.Context, userID, runID uint) (*aggregation.Stats, error) {
	if _, err := s.getOwnedRun(ctx, userID, runID); err != nil {
		return nil, err
	}
	readings, err := s.readings.GetRunReadings(ctx, runID)
	if err != nil {
		return nil, err
	}
	stats := aggregation.ComputeStats(readings)
	return &stats, nil
}

// Recalculate recomputes the run's cached average and A1C from its
// readings. The caches are advisory; this is safe to call any time.
func (s *RunService) Recalculate(ctx context.Context, userID, runID uint) (*domain.Run, error) {
	record, err := s.getOwnedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	readings, err := s.readings.GetRunReadings(ctx, runID)
	if err != nil {
		return nil, err
	}

	stats := aggregation.ComputeStats(readings)
	updates := map[string]interface{}{
		"average_glucose": stats.AverageGlucose,
		"calculated_a1c":  stats.A1CEstimate,
	}
	if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	record.AverageGlucose = stats.AverageGlucose
	record.CalculatedA1C = stats.A1CEstimate
	return toDomainRun(record), nil
}

// DeleteRun removes a run, first clearing the association on any reading
// that referenced it so no reading points at a dead run.
func (s *RunService) DeleteRun(ctx context.Context, userID, runID uint) error {
	record, err := s.getOwnedRun(ctx, userID, runID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&database.Reading{}).
		Where("run_id = ?", runID).
		Update("run_id", nil).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// AttachToMonth associates a run with a month under the domain ownership
// rules.
func (s *RunService) AttachToMonth(ctx context.Context, userID, runID, monthID uint) (*domain.Run, error) {
	record, err := s.getOwnedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}

	var monthRecord database.Month
	if err := s.db.WithContext(ctx).First(&monthRecord, monthID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("month", monthID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	run := toDomainRun(record)
	month := toDomainMonth(&monthRecord)
	if err := domain.AttachRun(run, month); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(record).Update("month_id", run.MonthID).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return run, nil
}
