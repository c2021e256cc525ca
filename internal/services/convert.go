package services

import (
	"github.com/glucolog/glucolog/internal/database"
	"github.com/glucolog/glucolog/internal/domain"
)

func toDomainUser(u *database.User) *domain.User {
	return &domain.User{
		ID:        u.ID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		AuthID:    u.AuthID,
		Email:     u.Email,
		Role:      domain.Role(u.Role),
	}
}

func toDomainReading(r *database.Reading) *domain.Reading {
	return &domain.Reading{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		UserID:      r.UserID,
		Value:       r.Value,
		Timestamp:   r.Timestamp,
		MealContext: domain.MealContext(r.MealContext),
		Notes:       r.Notes,
		RunID:       r.RunID,
	}
}

func toDomainReadings(records []database.Reading) []domain.Reading {
	readings := make([]domain.Reading, 0, len(records))
	for i := range records {
		readings = append(readings, *toDomainReading(&records[i]))
	}
	return readings
}

func toDomainRun(r *database.Run) *domain.Run {
	return &domain.Run{
		ID:             r.ID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		UserID:         r.UserID,
		Name:           r.Name,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		MonthID:        r.MonthID,
		AverageGlucose: r.AverageGlucose,
		CalculatedA1C:  r.CalculatedA1C,
	}
}

func toDomainRuns(records []database.Run) []domain.Run {
	runs := make([]domain.Run, 0, len(records))
	for i := range records {
		runs = append(runs, *toDomainRun(&records[i]))
	}
	return runs
}

func toDomainMonth(m *database.Month) *domain.Month {
	return &domain.Month{
		ID:             m.ID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		UserID:         m.UserID,
		Name:           m.Name,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		AverageGlucose: m.AverageGlucose,
		A1CEstimate:    m.A1CEstimate,
	}
}

func toDomainMonths(records []database.Month) []domain.Month {
	months := make([]domain.Month, 0, len(records))
	for i := range records {
		months = append(months, *toDomainMonth(&records[i]))
	}
	return months
}
