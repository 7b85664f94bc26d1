package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Enrollment data errors
	ErrInvalidYear = fmt.Errorf("year outside available range")
	ErrEmptyYears  = fmt.Errorf("no years requested")
	ErrSchema      = fmt.Errorf("table missing required columns")
	ErrProvider    = fmt.Errorf("enrollment provider request failed")
	ErrEmptyTable  = fmt.Errorf("provider returned no rows")

	// Cache and service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSnapshotNotFound   = fmt.Errorf("snapshot not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
