package deposit

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("deposit: required parameter is nil")

	// ErrUnsupportedAddressType indicates the script family is not one of
	// the four supported spending-condition types.
	ErrUnsupportedAddressType = errors.New("deposit: unsupported address type")

	// ErrSelectionFailed indicates no subset of the candidate outputs can
	// cover the requested amount plus fee.
	ErrSelectionFailed = errors.New("deposit: no covering input set")

	// ErrInvalidRecipient indicates the L2 recipient is not a 0x-prefixed
	// 40-hex-character address string.
	ErrInvalidRecipient = errors.New("deposit: invalid L2 recipient address")

	// ErrInvalidBridgeAddress indicates the bridge address cannot be
	// decoded for the configured network.
	ErrInvalidBridgeAddress = errors.New("deposit: invalid bridge address")

	// ErrInvalidAmount indicates the deposit amount is not positive or is
	// below the dust limit.
	ErrInvalidAmount = errors.New("deposit: invalid amount")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("deposit: script build failed")

	// ErrSigningFailed indicates input signing or finalization failed.
	ErrSigningFailed = errors.New("deposit: signing failed")

	// ErrUTXOFetch indicates the unspent-output collaborator failed.
	ErrUTXOFetch = errors.New("deposit: cannot list unspent outputs")

	// ErrBroadcastFailed indicates the broadcast collaborator failed.
	ErrBroadcastFailed = errors.New("deposit: broadcast failed")

	// ErrLedger indicates the deposit ledger rejected the operation, e.g.
	// because a selected outpoint is already reserved by another deposit.
	ErrLedger = errors.New("deposit: ledger rejected deposit")
)
