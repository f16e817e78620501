package contact

import "errors"

var (
	// ErrMissingEmail is returned when an operation needs the reconciliation key
	ErrMissingEmail = errors.New("email is required")

	// ErrEmptyActivity is returned for blank activity names
	ErrEmptyActivity = errors.New("activity name is required")

	// ErrUnknownSource is returned for selection sources other than filter/click
	ErrUnknownSource = errors.New("unknown selection source")
)
