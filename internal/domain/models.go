package domain

import (
	"time"
)

// Role determines what a user may do with other users' data.
type Role string

const (
	RoleStandard  Role = "standard"
	RoleCaregiver Role = "caregiver"
)

// MealContext is the closed set of meal/time-relative tags for a reading.
type MealContext string

const (
	MealBeforeBreakfast MealContext = "before_breakfast"
	MealAfterBreakfast  MealContext = "after_breakfast"
	MealBeforeLunch     MealContext = "before_lunch"
	MealAfterLunch      MealContext = "after_lunch"
	MealBeforeDinner    MealContext = "before_dinner"
	MealAfterDinner     MealContext = "after_dinner"
	MealBedtime         MealContext = "bedtime"
	MealWakeup          MealContext = "wakeup"
	MealFasting         MealContext = "fasting"
	MealOther           MealContext = "other"
)

var mealContexts = map[MealContext]bool{
	MealBeforeBreakfast: true,
	MealAfterBreakfast:  true,
	MealBeforeLunch:     true,
	MealAfterLunch:      true,
	MealBeforeDinner:    true,
	MealAfterDinner:     true,
	MealBedtime:         true,
	MealWakeup:          true,
	MealFasting:         true,
	MealOther:           true,
}

// ValidMealContext reports whether ctx is a member of the enumeration.
func ValidMealContext(ctx MealContext) bool {
	return mealContexts[ctx]
}

// User represents an account in the system
type User struct {
	ID        uint
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	AuthID    string // subject from the external auth provider
	Email     string
	Role      Role
}

// Reading represents a single glucose measurement
type Reading struct {
	ID          uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
	UserID      uint
	Value       float64 // mg/dL
	Timestamp   time.Time
	MealContext MealContext
	Notes       string
	RunID       *uint
}

// Run is a named, bounded time interval grouping readings. AverageGlucose
// and CalculatedA1C are caches over the readings attached to the run; they
// are recomputed on demand and never treated as ground truth.
type Run struct {
	ID             uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
	UserID         uint
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	MonthID        *uint
	AverageGlucose *float64
	CalculatedA1C  *float64
}

// DurationDays returns the run length in days, never less than 1 so a
// same-day run still carries weight in month aggregation.
func (r Run) DurationDays() float64 {
	days := r.EndDate.Sub(r.StartDate).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}

// Month is a bounded time interval grouping runs, with cached stats
// computed over the runs it holds.
type Month struct {
	ID             uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
	UserID         uint
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	AverageGlucose *float64
	A1CEstimate    *float64
}

// CaregiverConnection grants a caregiver read access to a user's data.
// Write access is never implied.
type CaregiverConnection struct {
	ID          uint
	CreatedAt   time.Time
	CaregiverID uint
	UserID      uint
}
