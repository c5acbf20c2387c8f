package presence

import "errors"

// Scan failures. Each carries the fixed user-facing message emitted to the
// originating client; anything else surfaced by a scan is a storage fault
// and is reported generically.
var (
	ErrNotRegistered     = errors.New("tag not registered")
	ErrDayNotConfigured  = errors.New("day not found")
	ErrNotScheduledToday = errors.New("not scheduled today")
	ErrDuplicateToday    = errors.New("already recorded today")
)

// IsScanError reports whether err is one of the fixed scan failures, as
// opposed to an internal fault whose detail must not reach the client.
func IsScanError(err error) bool {
	return errors.Is(err, ErrNotRegistered) ||
		errors.Is(err, ErrDayNotConfigured) ||
		errors.Is(err, ErrNotScheduledToday) ||
		errors.Is(err, ErrDuplicateToday)
}
