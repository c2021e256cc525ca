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

type MonthService struct {
	db   *gorm.DB
	runs *RunService
}

func NewMonthService(db *gorm.DB, runs *RunService) *MonthService {
	return &MonthService{db: db, runs: runs}
}

// CreateMonth stores a new month after checking its interval.
func (s *MonthService) CreateMonth(ctx context.Context, userID uint, name string, start, end time.Time) (*domain.Month, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name", "month name is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.NewValidationError("startDate", "start and end dates are required")
	}
	if end.Before(start) {
		return nil, apperrors.NewValidationError("endDate", "end date must not precede start date")
	}

	record := &database.Month{
		UserID:    userID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainMonth(record), nil
}

// GetUserMonths returns the user's months, newest first.
func (s *MonthService) GetUserMonths(ctx context.Context, userID uint) ([]domain.Month, error) {
	var records []database.Month
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&records).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainMonths(records), nil
}

func (s *MonthService) getOwnedMonth(ctx context.Context, userID, monthID uint) (*database.Month, error) {
	var record database.Month
	if err := s.db.WithContext(ctx).First(&record, monthID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("month", monthID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	if record.UserID != userID {
		return nil, apperrors.NewAuthorizationError("month belongs to another user")
	}
	return &record, nil
}

// GetMonthStats aggregates the cached averages of the month's runs,
// optionally weighting each run by its duration in days, and refreshes
// the month's own cached fields.
func (s *MonthService) GetMonthStats(ctx context.Context, userID, monthID uint, weighted bool) (*aggregation.MonthStats, error) {
	record, err := s.getOwnedMonth(ctx, userID, monthID)
	if err != nil {
		return nil, err
	}
	runs, err := s.runs.GetMonthRuns(ctx, monthID)
	if err != nil {
		return nil, err
	}

	stats := aggregation.ComputeMonthStats(runs, weighted)

	updates := map[string]interface{}{
		"average_glucose": stats.AverageGlucose,
		"a1c_estimate":    stats.A1CEstimate,
	}
	if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	return &stats, nil
}

// DeleteMonth removes a month, clearing the association on its runs.
func (s *MonthService) DeleteMonth(ctx context.Context, userID, monthID uint) error {
	record, err := s.getOwnedMonth(ctx, userID, monthID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&database.Run{}).
		Where("month_id = ?", monthID).
		Update("month_id", nil).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}
