package synclog

import "errors"

var (
	// ErrMissingEmail is returned when an entry or lookup has no email
	ErrMissingEmail = errors.New("email is required")

	// ErrInvalidAction is returned for actions other than created/updated/failed
	ErrInvalidAction = errors.New("invalid sync action")
)
