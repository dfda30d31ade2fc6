package flight

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidArgument is returned for a negative count or delay.
	ErrInvalidArgument = errors.New("flight: invalid argument")

	// ErrArithmetic is returned when an average is requested over zero
	// units.
	ErrArithmetic = errors.New("flight: arithmetic error")

	// ErrUnitFailed matches every UnitError.
	ErrUnitFailed = errors.New("flight: unit failed")

	// ErrCancelled is the cause recorded when a Handle or Join is
	// cancelled.
	ErrCancelled = errors.New("flight: unit cancelled")
)

// UnitError reports the failure of one unit of a fan-out. It fails the
// whole join.
type UnitError struct {
	Index int
	ID    uuid.UUID
	Err   error
}

func (e *UnitError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("flight: unit %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("flight: unit %d (%s): %v", e.Index, e.ID, e.Err)
}

// Unwrap lets errors.Is match both ErrUnitFailed and the cause.
func (e *UnitError) Unwrap() []error {
	return []error{ErrUnitFailed, e.Err}
}

// PanicError carries a value recovered from a panicking unit or Do
// function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
