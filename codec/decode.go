package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// wireTransaction mirrors the 16-position RLP list of a typed transaction.
// Position 7 holds either the y-parity bit or the chain ID depending on the
// authentication path, so it is decoded as a bare integer and interpreted
// afterwards.
type wireTransaction struct {
	Nonce                *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             *big.Int
	To                   []byte
	Value                *big.Int
	Data                 []byte
	V                    *big.Int
	R                    []byte
	S                    []byte
	ChainID              *big.Int
	From                 []byte
	GasPerPubdata        *big.Int
	FactoryDeps          [][]byte
	CustomSignature      []byte
	Paymaster            [][]byte
}

// Decode parses wire bytes produced by Encode back into a TypedTransaction.
//
// Decode is deserialization plus rehash: when the transaction carries
// authentication, its canonical hash is recomputed from the signed digest
// and the authenticating bytes and attached to the result. A transaction
// encoded with EncodeUnsigned decodes with nil Auth and nil Hash.
func Decode(raw []byte) (*TypedTransaction, error) {
	if len(raw) < 2 || raw[0] != TxType {
		return nil, fmt.Errorf("%w: missing 0x%02x type tag", ErrInvalidEncoding, TxType)
	}

	var w wireTransaction
	if err := rlp.DecodeBytes(raw[1:], &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	to, err := addressField(w.To)
	if err != nil {
		return nil, fmt.Errorf("%w: to", ErrInvalidAddress)
	}
	from, err := addressField(w.From)
	if err != nil || from == nil {
		return nil, fmt.Errorf("%w: from", ErrInvalidAddress)
	}

	tx := &TypedTransaction{
		Nonce:                w.Nonce,
		To:                   to,
		Value:                w.Value,
		Data:                 w.Data,
		GasLimit:             w.GasLimit,
		GasPerPubdata:        w.GasPerPubdata,
		MaxFeePerGas:         w.MaxFeePerGas,
		MaxPriorityFeePerGas: w.MaxPriorityFeePerGas,
		ChainID:              w.ChainID,
		From:                 from,
		FactoryDeps:          w.FactoryDeps,
	}

	switch len(w.Paymaster) {
	case 0:
		// no sponsor
	case 2:
		if len(w.Paymaster[0]) != common.AddressLength {
			return nil, fmt.Errorf("%w: paymaster", ErrInvalidAddress)
		}
		tx.PaymasterParams = &PaymasterParams{
			Paymaster: common.BytesToAddress(w.Paymaster[0]),
			Input:     w.Paymaster[1],
		}
	default:
		return nil, fmt.Errorf("%w: paymaster params must hold 0 or 2 elements, got %d",
			ErrInvalidEncoding, len(w.Paymaster))
	}

	// The classical signature is reconstructed only when the custom
	// signature slot is empty and the r/s slots are populated.
	switch {
	case len(w.CustomSignature) > 0:
		tx.Auth = CustomSignature(w.CustomSignature)
	case len(w.R) > 0 || len(w.S) > 0:
		sig, err := classicalFromWire(w.V, w.R, w.S)
		if err != nil {
			return nil, err
		}
		tx.Auth = sig
	}

	if tx.Auth != nil {
		hash, err := tx.CanonicalHash(nil)
		if err != nil {
			return nil, err
		}
		tx.Hash = &hash
	}
	return tx, nil
}

// classicalFromWire validates the v/r/s wire slots and assembles a
// ClassicalSignature, padding r and s to 32 bytes.
func classicalFromWire(v *big.Int, r, s []byte) (*ClassicalSignature, error) {
	if len(r) == 0 || len(s) == 0 || len(r) > 32 || len(s) > 32 {
		return nil, ErrSignatureParse
	}
	if v == nil || !v.IsUint64() || v.Uint64() > 1 {
		return nil, ErrSignatureParse
	}
	sig := &ClassicalSignature{YParity: byte(v.Uint64())}
	copy(sig.R[32-len(r):], r)
	copy(sig.S[32-len(s):], s)
	return sig, nil
}

// addressField turns a wire byte string into an optional address:
// empty means absent, 20 bytes means present, anything else is invalid.
func addressField(b []byte) (*common.Address, error) {
	switch len(b) {
	case 0:
		return nil, nil
	case common.AddressLength:
		addr := common.BytesToAddress(b)
		return &addr, nil
	default:
		return nil, ErrInvalidAddress
	}
}
