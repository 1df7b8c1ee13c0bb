package systems

import "errors"

// Sentinel errors. Call sites wrap these with the offending value;
// callers match with errors.Is.
var (
	// ErrInvalidParameter reports a precondition violation (non-positive
	// radius, minDist or k, zero particle count, malformed params).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrGenerationFailure reports that sampling could not produce a
	// usable point set within its bounded attempt budget.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrDuplicateCellOccupant reports an insert into an occupied grid cell.
	ErrDuplicateCellOccupant = errors.New("duplicate cell occupant")
)
