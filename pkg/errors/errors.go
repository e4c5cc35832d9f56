package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSourceApp  = errors.New("source app identifier missing")
	ErrRootUnresolvable  = errors.New("root node unresolvable")
	ErrSelfObservation   = errors.New("observation of own process skipped")
	ErrNodeRead          = errors.New("node read failed")
	ErrDepthExceeded     = errors.New("node tree depth exceeded")
	ErrInvalidRule       = errors.New("invalid capture rule")
	ErrInvalidPattern    = errors.New("invalid redaction pattern")
	ErrInvalidFilePath   = errors.New("invalid file path")
	ErrInvalidPID        = errors.New("invalid process id")
	ErrConfigNotFound    = errors.New("config not found")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrHelperUnavailable = errors.New("helper unavailable")
	ErrMalformedEvent    = errors.New("malformed observation")
)

func NewNodeError(field string, depth int, err error) error {
	return fmt.Errorf("%w: field=%s depth=%d: %v", ErrNodeRead, field, depth, err)
}

func NewDepthError(depth, limit int) error {
	return fmt.Errorf("%w: depth=%d limit=%d", ErrDepthExceeded, depth, limit)
}

func NewRuleError(rule string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidRule, rule, err)
}

func NewPatternError(pattern string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
}

func NewPIDError(pid int) error {
	return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
}

func NewHelperError(op string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrHelperUnavailable, op, reason)
}

func NewMalformedEventError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedEvent, reason)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
