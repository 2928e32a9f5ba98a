package store

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateOrderNumber is returned when an order number is already taken.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")

	// ErrInvalidTransition is returned for ledger events the state machine forbids,
	// such as PAUSE on a row that was never started.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTerminalState is returned for any event appended after a COMPLETE.
	// The first COMPLETE is authoritative; the ledger is left unchanged.
	ErrTerminalState = errors.New("plan row already completed")

	// ErrLastPlanRow is returned when removing a step would leave an order
	// with no routing at all. An order always keeps at least one plan row.
	ErrLastPlanRow = errors.New("cannot remove the only plan row of an order")

	// ErrBadStatus is returned for machine status values outside the closed set.
	ErrBadStatus = errors.New("unknown machine status")
)
