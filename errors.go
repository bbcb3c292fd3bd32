package pointindex

import (
	"errors"
	"fmt"
)

// Error kinds. Test with errors.Is.
var (
	// ErrDuplicateIdentifier is returned when inserting an identifier that
	// is already present.
	ErrDuplicateIdentifier = errors.New("pointindex: duplicate identifier")

	// ErrInvalidGeometry is returned for non-finite coordinates, boxes with
	// min > max, negative radii, or points that do not match the index
	// dimensionality.
	ErrInvalidGeometry = errors.New("pointindex: invalid geometry")

	// ErrStructuralFault reports a broken tree invariant. The index that
	// returned it should be rebuilt from a fresh BulkLoad.
	ErrStructuralFault = errors.New("pointindex: structural fault")

	// ErrNotFound is returned by operations that require an existing
	// identifier, such as Move.
	ErrNotFound = errors.New("pointindex: identifier not found")
)

// Error wraps an error kind with the operation and identifier involved.
type Error struct {
	Op     string
	ID     int
	HasID  bool
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("pointindex.%s: %v", e.Op, e.Err)
	if e.HasID {
		msg += fmt.Sprintf(" (id %d)", e.ID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func idError(op string, id int, kind error) error {
	return &Error{Op: op, ID: id, HasID: true, Err: kind}
}

func faultf(op, format string, args ...any) error {
	return &Error{Op: op, Err: ErrStructuralFault, Detail: fmt.Sprintf(format, args...)}
}

// withOp re-labels validation errors produced by shared helpers with the
// public operation that received the bad input.
func withOp(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		c := *e
		c.Op = op
		return &c
	}
	return err
}
