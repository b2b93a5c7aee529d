package store

import "errors"

var (
	// ErrNilParam indicates a required argument was nil.
	ErrNilParam = errors.New("store: nil parameter")

	// ErrAlreadyReserved indicates an outpoint is already held by another
	// pending deposit.
	ErrAlreadyReserved = errors.New("store: outpoint already reserved")

	// ErrNotFound indicates no record exists for the requested key.
	ErrNotFound = errors.New("store: record not found")
)
