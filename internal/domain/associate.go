package domain

import (
	"github.com/glucolog/glucolog/internal/apperrors"
)

// AttachReading sets the reading's run association after checking that
// both entities belong to the same user. Re-attaching to the same run is
// a no-op; attaching a reading that already belongs to a different run
// moves it, last write wins. The caller persists the change and triggers
// recalculation of the run's cached stats as a separate step.
func AttachReading(reading *Reading, run *Run) error {
	if reading.UserID != run.UserID {
		return apperrors.New(apperrors.ErrorTypeAuthorization, "OWNER_MISMATCH",
			"reading and run belong to different users")
	}
	if reading.RunID != nil && *reading.RunID == run.ID {
		return nil
	}
	id := run.ID
	reading.RunID = &id
	return nil
}

// DetachReading clears the reading's run association. Detaching a
// reading with no run is a no-op.
func DetachReading(reading *Reading) {
	reading.RunID = nil
}

// AttachRun sets the run's month association under the same ownership
// rule as AttachReading.
func AttachRun(run *Run, month *Month) error {
	if run.UserID != month.UserID {
		return apperrors.New(apperrors.ErrorTypeAuthorization, "OWNER_MISMATCH",
			"run and month belong to different users")
	}
	if run.MonthID != nil && *run.MonthID == month.ID {
		return nil
	}
	id := month.ID
	run.MonthID = &id
	return nil
}
