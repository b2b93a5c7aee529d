package verify

import "errors"

var (
	// ErrNilParam indicates a required collaborator or argument is nil.
	ErrNilParam = errors.New("verify: required parameter is nil")

	// ErrVerificationUnavailable indicates a collaborator call (code
	// lookup or contract call) failed, so the signature could not be
	// checked at all. Distinct from a negative verification result:
	// callers must be able to tell "could not ask" from "asked and it
	// said no".
	ErrVerificationUnavailable = errors.New("verify: verification unavailable")

	// ErrInvalidTypedData indicates the typed-data payload cannot be
	// hashed under its own schema.
	ErrInvalidTypedData = errors.New("verify: invalid typed data")
)
