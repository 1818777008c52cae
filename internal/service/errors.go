package service

import (
	"errors"
	"fmt"
)

// Allocation outcome taxonomy. Every failure of the allocation engine is one
// of these five kinds, distinguishable with errors.Is / errors.As so the
// HTTP layer can map each to its own status code without string matching.
// Both the direct transaction path and the stored-routine path report
// failures through the same types.

var (
	// ErrNoMatch — no pending order satisfies the matching rule. A legitimate
	// negative result, but the operation could not complete.
	ErrNoMatch = errors.New("no pending order matches the arrival")

	// ErrAlreadyFulfilled — the matched order already has an allocation.
	ErrAlreadyFulfilled = errors.New("matched order is already fulfilled")

	// ErrInvalidInput — non-positive amount or identifiers, unparseable timestamp.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGuardViolation — a CRUD operation would break a referential or
	// fulfillment guard (delete a referenced product, edit a fulfilled order).
	ErrGuardViolation = errors.New("operation violates a referential or fulfillment guard")
)

// NotFoundError — a referenced Product, Warehouse or Order is absent.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// StoreError — underlying transactional commit/rollback failure. Always fatal
// to the current request; the wrapping transaction has been rolled back.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return "store failure: " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }
