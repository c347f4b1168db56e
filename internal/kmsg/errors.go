package kmsg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfig      = errors.New("invalid configuration")
	ErrPermission  = errors.New("permission denied")
	ErrUnsupported = errors.New("backend unsupported")
	ErrTransient   = errors.New("transient i/o failure")
	ErrParse       = errors.New("malformed record")
	ErrFatal       = errors.New("backend failure")

	// ErrWouldBlock reports that a non-blocking read found no data.
	ErrWouldBlock = fmt.Errorf("%w: no data available", ErrTransient)
	// ErrRecordsLost reports that the kernel overwrote records before they were read.
	ErrRecordsLost = fmt.Errorf("%w: records overwritten", ErrTransient)
	// ErrRetriesExhausted is returned once transient failures exceed the retry budget.
	ErrRetriesExhausted = fmt.Errorf("%w: retries exhausted", ErrFatal)
)

// Wrap tags err with marker and an operation label so callers can classify it
// with errors.Is while keeping the underlying cause.
func Wrap(marker error, op string, err error) error {
	if marker == nil {
		marker = ErrFatal
	}
	op = strings.TrimSpace(op)
	switch {
	case op == "" && err == nil:
		return marker
	case op == "":
		return fmt.Errorf("%w: %w", marker, err)
	case err == nil:
		return fmt.Errorf("%w: %s", marker, op)
	default:
		return fmt.Errorf("%w: %s: %w", marker, op, err)
	}
}

// IsTransient reports whether err should be retried by the poll engine.
func IsTransient(err error) bool {
	return err != nil && errors.Is(err, ErrTransient)
}

// IsFatal reports whether err terminates a stream. Anything that is neither
// transient nor a per-record parse failure counts as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsTransient(err) && !errors.Is(err, ErrParse)
}
