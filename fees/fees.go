// Package fees reconciles legacy, EIP-1559, and typed-transaction fee fields
// into one consistent set before signing. Population fills only what the
// caller left unset; it never overwrites supplied values and queries the
// estimation collaborator at most once, since re-quoting after a partial
// fill would change the numbers.
package fees

import (
	"context"
	"fmt"
	"math/big"

	"github.com/viabridge/libvia-go/codec"
)

// Kind classifies the pricing model of a candidate transaction.
type Kind int

const (
	// KindTyped is the extended 0x71 transaction with gas-per-pubdata.
	KindTyped Kind = iota
	// KindDynamic is a plain EIP-1559 transaction.
	KindDynamic
	// KindLegacy is a single-gas-price transaction.
	KindLegacy
)

// String returns the pricing-model name.
func (k Kind) String() string {
	switch k {
	case KindTyped:
		return "typed"
	case KindDynamic:
		return "dynamic"
	case KindLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Quote is an immutable fee estimate. It is valid only for the transaction
// shape it was computed for; changing the data length or the factory
// dependencies invalidates it.
type Quote struct {
	GasLimit             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	GasPerPubdataLimit   *big.Int
}

// Estimator is the external fee-estimation collaborator. It receives the
// transaction-so-far and returns a full quote.
type Estimator interface {
	EstimateFee(ctx context.Context, tx *codec.TypedTransaction) (*Quote, error)
}

// Candidate is a transaction going through fee population, together with
// the caller's pricing intent. GasPrice carries an explicitly requested
// legacy price and may not be combined with EIP-1559 fields on the
// transaction itself.
type Candidate struct {
	Tx       *codec.TypedTransaction
	Kind     Kind
	GasPrice *big.Int
}

// Populate fills the candidate's missing gas and fee fields in place.
//
// Precedence, in order:
//  1. A supplied legacy GasPrice together with either EIP-1559 field is
//     rejected with ErrConflictingFeeSpec before any external call.
//  2. The estimator is queried once if and only if something is missing.
//  3. Legacy candidates take gasPrice = quote.maxFeePerGas, mirrored into
//     both max-fee fields; other kinds fill maxFeePerGas and
//     maxPriorityFeePerGas independently where missing.
//  4. The gas-per-pubdata limit is filled only for typed candidates.
func Populate(ctx context.Context, est Estimator, c *Candidate) error {
	if c == nil || c.Tx == nil {
		return ErrNilTransaction
	}
	tx := c.Tx

	if c.GasPrice != nil && (tx.MaxFeePerGas != nil || tx.MaxPriorityFeePerGas != nil) {
		return ErrConflictingFeeSpec
	}

	if !c.needsQuote() {
		c.applyGasPrice()
		return nil
	}

	quote, err := est.EstimateFee(ctx, tx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEstimateFailed, err)
	}
	if quote == nil || quote.GasLimit == nil || quote.MaxFeePerGas == nil {
		return ErrIncompleteQuote
	}

	if tx.GasLimit == nil {
		tx.GasLimit = quote.GasLimit
	}

	switch c.Kind {
	case KindLegacy:
		if c.GasPrice == nil {
			c.GasPrice = quote.MaxFeePerGas
		}
		c.applyGasPrice()
	default:
		if c.GasPrice != nil {
			c.applyGasPrice()
			break
		}
		if tx.MaxFeePerGas == nil {
			tx.MaxFeePerGas = quote.MaxFeePerGas
		}
		if tx.MaxPriorityFeePerGas == nil {
			tx.MaxPriorityFeePerGas = quote.MaxPriorityFeePerGas
		}
	}

	if c.Kind == KindTyped && tx.GasPerPubdata == nil {
		tx.GasPerPubdata = quote.GasPerPubdataLimit
	}
	return nil
}

// needsQuote reports whether anything the estimator provides is still
// missing from the candidate.
func (c *Candidate) needsQuote() bool {
	tx := c.Tx
	if tx.GasLimit == nil {
		return true
	}
	if c.Kind == KindTyped && tx.GasPerPubdata == nil {
		return true
	}
	if c.GasPrice != nil {
		return false
	}
	if c.Kind == KindLegacy {
		return true
	}
	return tx.MaxFeePerGas == nil || tx.MaxPriorityFeePerGas == nil
}

// applyGasPrice collapses an explicit legacy price into both max-fee fields
// being equal. A nil GasPrice is a no-op.
func (c *Candidate) applyGasPrice() {
	if c.GasPrice == nil {
		return
	}
	if c.Tx.MaxFeePerGas == nil {
		c.Tx.MaxFeePerGas = c.GasPrice
	}
	if c.Tx.MaxPriorityFeePerGas == nil {
		c.Tx.MaxPriorityFeePerGas = c.GasPrice
	}
}
