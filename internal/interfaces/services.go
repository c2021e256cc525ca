package interfaces

import (
	"context"
	"time"

	"github.com/glucolog/glucolog/internal/aggregation"
	"github.com/glucolog/glucolog/internal/domain"
	"github.com/glucolog/glucolog/internal/validation"
)

// UserServiceInterface defines the contract for user operations
type UserServiceInterface interface {
	GetOrCreateUser(ctx context.Context, authID, email string, role domain.Role) (*domain.User, error)
	GetUserByAuthID(ctx context.Context, authID string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint) (*domain.User, error)
}

// ReadingServiceInterface defines the contract for reading operations
type ReadingServiceInterface interface {
	AddReading(ctx context.Context, userID uint, in validation.ReadingInput) (*domain.Reading, error)
	GetUserReadings(ctx context.Context, userID uint) ([]domain.Reading, error)
	DeleteReading(ctx context.Context, userID, readingID uint) error
	AttachToRun(ctx context.Context, userID, readingID, runID uint) (*domain.Reading, error)
	DetachFromRun(ctx context.Context, userID, readingID uint) (*domain.Reading, error)
}

// RunServiceInterface defines the contract for run operations
type RunServiceInterface interface {
	CreateRun(ctx context.Context, userID uint, name string, start, end time.Time) (*domain.Run, error)
	GetUserRuns(ctx context.Context, userID uint) ([]domain.Run, error)
	GetRunStats(ctx context.Context, userID, runID uint) (*aggregation.Stats, error)
	Recalculate(ctx context.Context, userID, runID uint) (*domain.Run, error)
	DeleteRun(ctx context.Context, userID, runID uint) error
	AttachToMonth(ctx context.Context, userID, runID, monthID uint) (*domain.Run, error)
}

// MonthServiceInterface defines the contract for month operations
type MonthServiceInterface interface {
	CreateMonth(ctx context.Context, userID uint, name string, start, end time.Time) (*domain.Month, error)
	GetUserMonths(ctx context.Context, userID uint) ([]domain.Month, error)
	GetMonthStats(ctx context.Context, userID, monthID uint, weighted bool) (*aggregation.MonthStats, error)
	DeleteMonth(ctx context.Context, userID, monthID uint) error
}

// CaregiverServiceInterface defines the contract for caregiver access
type CaregiverServiceInterface interface {
	Connect(ctx context.Context, caregiver *domain.User, userID uint) error
	AuthorizeRead(ctx context.Context, actor *domain.User, targetUserID uint) error
}
