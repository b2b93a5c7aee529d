package fees

import "errors"

var (
	// ErrConflictingFeeSpec indicates the caller supplied a legacy gas
	// price together with an EIP-1559 fee field. The two pricing models
	// are mutually exclusive inputs to population.
	ErrConflictingFeeSpec = errors.New("fees: legacy gas price conflicts with EIP-1559 fee fields")

	// ErrNilTransaction indicates the candidate carries no transaction.
	ErrNilTransaction = errors.New("fees: candidate transaction is nil")

	// ErrEstimateFailed indicates the fee-estimation collaborator failed.
	// The quote request is not retried; retry policy belongs to the caller.
	ErrEstimateFailed = errors.New("fees: fee estimation failed")

	// ErrIncompleteQuote indicates the collaborator returned a quote with
	// a required field missing.
	ErrIncompleteQuote = errors.New("fees: incomplete fee quote")
)
