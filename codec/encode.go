package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Encode serializes a finalized transaction to its wire form:
// a single 0x71 tag byte followed by the RLP encoding of the 16-position
// field list. The field order and the empty-string-for-absent-recipient
// convention are a bit-exact contract with the L2 node.
//
// sig, when non-nil, overrides any authentication already attached to the
// transaction. With sig nil, a non-empty custom signature on the transaction
// is used; if no authentication is available at all Encode fails with
// ErrMissingAuthentication, and a present-but-empty custom signature fails
// with ErrEmptySignature.
func (tx *TypedTransaction) Encode(sig *ClassicalSignature) ([]byte, error) {
	auth, err := tx.authentication(sig)
	if err != nil {
		return nil, err
	}
	return tx.encode(auth)
}

// EncodeUnsigned serializes the transaction without authentication, placing
// [chainId, "", ""] in the signature slots and an empty custom signature in
// position 14. Nodes accept this form for gas and fee estimation.
func (tx *TypedTransaction) EncodeUnsigned() ([]byte, error) {
	return tx.encode(nil)
}

func (tx *TypedTransaction) encode(auth Authentication) ([]byte, error) {
	if tx.ChainID == nil {
		return nil, ErrMissingChainID
	}
	if tx.From == nil {
		return nil, ErrMissingFrom
	}

	// An absent recipient encodes as the empty string, never as the
	// zero address.
	var to []byte
	if tx.To != nil {
		to = tx.To.Bytes()
	}

	fields := []interface{}{
		bigOrZero(tx.Nonce),
		bigOrZero(tx.MaxPriorityFeePerGas),
		bigOrZero(tx.MaxFeePerGas),
		bigOrZero(tx.GasLimit),
		to,
		bigOrZero(tx.Value),
		tx.Data,
	}

	// Positions 7-9: either the classical signature, or the chain ID
	// followed by two empty strings when a custom signature (or no
	// signature) authenticates the transaction.
	var customSig []byte
	switch a := auth.(type) {
	case *ClassicalSignature:
		fields = append(fields,
			new(big.Int).SetUint64(uint64(a.YParity)),
			new(big.Int).SetBytes(a.R[:]),
			new(big.Int).SetBytes(a.S[:]),
		)
	case CustomSignature:
		customSig = a
		fields = append(fields, tx.ChainID, "", "")
	default: // unsigned
		fields = append(fields, tx.ChainID, "", "")
	}

	fields = append(fields,
		tx.ChainID,
		tx.From.Bytes(),
		tx.gasPerPubdataOrDefault(),
		factoryDepsForWire(tx.FactoryDeps),
		customSig,
	)

	if tx.PaymasterParams != nil {
		fields = append(fields, []interface{}{
			tx.PaymasterParams.Paymaster.Bytes(),
			tx.PaymasterParams.Input,
		})
	} else {
		fields = append(fields, []interface{}{})
	}

	body, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, TxType)
	out = append(out, body...)
	return out, nil
}

// factoryDepsForWire normalizes factory dependencies for RLP: a nil slice
// becomes an empty list and every entry is carried as a plain byte string.
func factoryDepsForWire(deps [][]byte) [][]byte {
	if deps == nil {
		return [][]byte{}
	}
	out := make([][]byte, len(deps))
	for i, dep := range deps {
		if dep == nil {
			dep = []byte{}
		}
		out[i] = dep
	}
	return out
}
