package core

import "errors"

var (
	// ErrDivisionAlreadyExists is returned when a division is declared twice.
	ErrDivisionAlreadyExists = errors.New("division already exists")

	// ErrDivisionNotFound is returned by any operation on an undeclared division.
	ErrDivisionNotFound = errors.New("division does not exist")

	// ErrPriorityOutOfRange is returned when a priority is outside [0, maxPriority).
	ErrPriorityOutOfRange = errors.New("priority out of range")

	// ErrNilFunction is returned when a nil function is added.
	ErrNilFunction = errors.New("function is nil")

	// ErrNilTask is returned when a function without an owning task is added.
	ErrNilTask = errors.New("function has no owning task")

	// ErrFunctionRegistered is returned when a function is added while it is
	// still scheduled in a division.
	ErrFunctionRegistered = errors.New("function is already registered")
)
