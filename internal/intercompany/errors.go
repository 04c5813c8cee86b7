package intercompany

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when the destination company lacks a journal or identity the mirror needs.
	ErrConfiguration = errors.New("inter-company configuration error")

	// ErrProductNotShared is returned when a line's product is not visible in the destination company.
	ErrProductNotShared = errors.New("product is not visible in the destination company")

	// ErrLineWithoutProduct is returned when a line to be mirrored has no product.
	ErrLineWithoutProduct = errors.New("invoice line has no product")

	// ErrAmountDesync is returned when a write would make a mirror's untaxed amount differ from its source's.
	ErrAmountDesync = errors.New("mirror amount differs from source")

	// ErrPostedMirrorExists is returned when resetting a document whose mirror is posted.
	ErrPostedMirrorExists = errors.New("a posted inter-company invoice exists")

	// ErrMirrorAlreadyPosted is returned when a rebuild finds the mirror already posted.
	ErrMirrorAlreadyPosted = errors.New("inter-company invoice already posted")
)

// Kind classifies workflow errors for callers deciding how to report them.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindVisibility    Kind = "visibility"
	KindCompleteness  Kind = "completeness"
	KindConsistency   Kind = "consistency"
)

// Error is a workflow failure. Details holds the message shown to the user.
type Error struct {
	// Op is the operation that failed (e.g. "BuildMirror", "CheckReset").
	Op string

	Kind Kind

	// Err is the underlying sentinel error.
	Err error

	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Details
	}
	return fmt.Sprintf("intercompany: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newError(op string, kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Err: err, Details: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a workflow error found in err's chain.
func KindOf(err error) (Kind, bool) {
	var icErr *Error
	if errors.As(err, &icErr) {
		return icErr.Kind, true
	}
	return "", false
}
