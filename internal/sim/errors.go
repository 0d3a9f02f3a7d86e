package sim

import "errors"

var (
	// ErrInvalidStepTime is returned by Advance for a non-positive dt.
	ErrInvalidStepTime = errors.New("sim: step time must be positive")

	// ErrInvalidSetup is returned when a session cannot be built from its
	// setup or restored from a snapshot.
	ErrInvalidSetup = errors.New("sim: invalid setup")
)
