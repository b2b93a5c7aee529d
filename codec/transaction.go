// Package codec implements the typed-transaction format of the L2 settlement
// chain: deterministic encoding, domain-separated hashing, and parsing of the
// 0x71 transaction carrying gas-per-pubdata and paymaster metadata, plus the
// content-addressed bytecode hash used for factory dependencies.
package codec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// TxType is the type tag byte prefixed to the RLP body of a typed
	// transaction on the wire.
	TxType = 0x71

	// EIP712DomainName and EIP712DomainVersion identify the signing domain
	// of the L2 protocol. Every SignedDigest is bound to them.
	EIP712DomainName    = "zkSync"
	EIP712DomainVersion = "2"
)

// DefaultGasPerPubdataLimit is the protocol default used whenever a
// transaction does not set its own gas-per-pubdata-byte limit.
var DefaultGasPerPubdataLimit = big.NewInt(50_000)

// Authentication is the sum of the two ways a typed transaction can be
// authenticated: a classical secp256k1 signature, or opaque signature bytes
// produced by a contract account. Exactly one variant is attached to a
// finalized transaction.
type Authentication interface {
	// Bytes returns the authenticating byte string that feeds the
	// canonical transaction hash.
	Bytes() []byte

	isAuthentication()
}

// ClassicalSignature is an r/s/y-parity ECDSA signature over the
// transaction's SignedDigest.
type ClassicalSignature struct {
	R [32]byte
	S [32]byte
	// YParity is the recovery bit, 0 or 1.
	YParity byte
}

// Bytes returns r(32) || s(32) || yParity(1).
func (s *ClassicalSignature) Bytes() []byte {
	out := make([]byte, 65)
	copy(out[0:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.YParity
	return out
}

func (s *ClassicalSignature) isAuthentication() {}

// CustomSignature is an opaque signature produced by a non-ECDSA account.
// A zero-length CustomSignature is invalid and rejected wherever it is used.
type CustomSignature []byte

// Bytes returns the signature bytes verbatim.
func (s CustomSignature) Bytes() []byte { return s }

func (s CustomSignature) isAuthentication() {}

// PaymasterParams names a third-party fee sponsor together with the opaque
// input bytes passed to its validation entry point.
type PaymasterParams struct {
	Paymaster common.Address
	Input     []byte
}

// TypedTransaction is the extended L2 transaction moved through the codec.
//
// ChainID must be set before any hash or serialize operation; From must be
// set before serialization. Nil big-number fields are treated as zero by the
// hashing view and as missing by the fee-population protocol.
type TypedTransaction struct {
	Nonce                *big.Int
	To                   *common.Address // nil for deployments
	Value                *big.Int
	Data                 []byte
	GasLimit             *big.Int
	GasPerPubdata        *big.Int // defaulted to DefaultGasPerPubdataLimit when nil
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	ChainID              *big.Int
	From                 *common.Address

	// FactoryDeps are deployable code blobs referenced by their bytecode
	// hash in the signed view, carried raw on the wire.
	FactoryDeps [][]byte

	PaymasterParams *PaymasterParams

	// Auth carries the signature once the transaction is finalized.
	Auth Authentication

	// Hash is the canonical identifying hash, populated by Decode and by
	// Sign-side helpers. Nil for an unsigned transaction.
	Hash *common.Hash
}

// gasPerPubdataOrDefault returns the explicit limit or the protocol default.
func (tx *TypedTransaction) gasPerPubdataOrDefault() *big.Int {
	if tx.GasPerPubdata != nil {
		return tx.GasPerPubdata
	}
	return DefaultGasPerPubdataLimit
}

// authentication resolves the signature used to finalize the transaction.
// An explicit sig argument wins over tx.Auth. A present-but-empty custom
// signature is a hard error, not "no signature".
func (tx *TypedTransaction) authentication(sig *ClassicalSignature) (Authentication, error) {
	if sig != nil {
		return sig, nil
	}
	switch a := tx.Auth.(type) {
	case *ClassicalSignature:
		return a, nil
	case CustomSignature:
		if len(a) == 0 {
			return nil, ErrEmptySignature
		}
		return a, nil
	default:
		return nil, ErrMissingAuthentication
	}
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
