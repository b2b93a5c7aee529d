// Package verify checks signature correctness for both kinds of account the
// L2 chain supports: externally-owned accounts verified by ECDSA public-key
// recovery, and contract accounts verified through their standardized
// isValidSignature entry point (EIP-1271).
package verify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Eip1271MagicValue is the 4-byte constant a contract account returns from
// isValidSignature(bytes32,bytes) to signal a valid signature. It equals the
// function's own selector.
var Eip1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}

var (
	abiBytes32, _ = abi.NewType("bytes32", "", nil)
	abiBytes, _   = abi.NewType("bytes", "", nil)

	isValidSignatureArgs = abi.Arguments{{Type: abiBytes32}, {Type: abiBytes}}
)

// CodeReader reports the on-chain code of an address. Empty code means an
// externally-owned account.
type CodeReader interface {
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
}

// ContractCaller executes a read-only call against a contract.
type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Verifier validates signatures for both account kinds.
type Verifier struct {
	code   CodeReader
	caller ContractCaller
}

// New creates a Verifier using the given collaborators.
func New(code CodeReader, caller ContractCaller) (*Verifier, error) {
	if code == nil || caller == nil {
		return nil, ErrNilParam
	}
	return &Verifier{code: code, caller: caller}, nil
}

// VerifySignature checks sig against digest for addr.
//
// With no code at addr, verification is classical public-key recovery: true
// iff the recovered address matches. Recovery failures of any kind yield
// (false, nil) — a broken signature is an incorrect signature, not an error.
//
// With code present, the account's isValidSignature(digest, sig) is called
// and the result compared to Eip1271MagicValue. Collaborator failures on
// either path return an error wrapping ErrVerificationUnavailable.
func (v *Verifier) VerifySignature(ctx context.Context, addr common.Address, digest common.Hash, sig []byte) (bool, error) {
	code, err := v.code.CodeAt(ctx, addr)
	if err != nil {
		return false, fmt.Errorf("%w: code lookup: %w", ErrVerificationUnavailable, err)
	}
	if len(code) == 0 {
		return recoverMatches(addr, digest, sig), nil
	}
	return v.callIsValidSignature(ctx, addr, digest, sig)
}

// VerifyMessageSignature checks sig over the EIP-191 personal-message hash
// of message.
func (v *Verifier) VerifyMessageSignature(ctx context.Context, addr common.Address, message, sig []byte) (bool, error) {
	digest := common.BytesToHash(accounts.TextHash(message))
	return v.VerifySignature(ctx, addr, digest, sig)
}

// VerifyTypedDataSignature checks sig over the EIP-712 hash of typedData.
func (v *Verifier) VerifyTypedDataSignature(ctx context.Context, addr common.Address, typedData apitypes.TypedData, sig []byte) (bool, error) {
	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidTypedData, err)
	}
	return v.VerifySignature(ctx, addr, common.BytesToHash(digest), sig)
}

// recoverMatches runs classical recovery. Every malformed-signature and
// recovery failure collapses to false.
func recoverMatches(addr common.Address, digest common.Hash, sig []byte) bool {
	if len(sig) != crypto.SignatureLength {
		return false
	}
	// Normalize the recovery byte: 27/28 on the wire, 0/1 for recovery.
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == addr
}

// callIsValidSignature performs the EIP-1271 contract check.
func (v *Verifier) callIsValidSignature(ctx context.Context, addr common.Address, digest common.Hash, sig []byte) (bool, error) {
	packed, err := isValidSignatureArgs.Pack(digest, sig)
	if err != nil {
		return false, fmt.Errorf("%w: pack calldata: %w", ErrVerificationUnavailable, err)
	}
	data := append(append([]byte{}, Eip1271MagicValue[:]...), packed...)

	ret, err := v.caller.CallContract(ctx, addr, data)
	if err != nil {
		return false, fmt.Errorf("%w: isValidSignature call: %w", ErrVerificationUnavailable, err)
	}
	return len(ret) >= 4 && bytes.Equal(ret[:4], Eip1271MagicValue[:]), nil
}
