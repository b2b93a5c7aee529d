package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// typedDataTypes is the EIP-712 type set of the L2 transaction. Numeric
// fields are uint256 throughout; addresses are widened to uint256 per the
// protocol's signing layout.
var typedDataTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	},
	"Transaction": {
		{Name: "txType", Type: "uint256"},
		{Name: "from", Type: "uint256"},
		{Name: "to", Type: "uint256"},
		{Name: "gasLimit", Type: "uint256"},
		{Name: "gasPerPubdataByteLimit", Type: "uint256"},
		{Name: "maxFeePerGas", Type: "uint256"},
		{Name: "maxPriorityFeePerGas", Type: "uint256"},
		{Name: "paymaster", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "factoryDeps", Type: "bytes32[]"},
		{Name: "paymasterInput", Type: "bytes"},
	},
}

// TypedData returns the EIP-712 structured view of the transaction: numeric
// fields defaulted to zero, the paymaster defaulted to the zero address, and
// factory dependencies replaced by their bytecode hashes.
//
// Fails with ErrMissingChainID when no chain ID is set, and with
// ErrInvalidBytecodeLength when a factory dependency cannot be hashed.
func (tx *TypedTransaction) TypedData() (apitypes.TypedData, error) {
	if tx.ChainID == nil {
		return apitypes.TypedData{}, ErrMissingChainID
	}

	deps := make([]interface{}, len(tx.FactoryDeps))
	for i, dep := range tx.FactoryDeps {
		hash, err := HashBytecode(dep)
		if err != nil {
			return apitypes.TypedData{}, fmt.Errorf("factory dep %d: %w", i, err)
		}
		deps[i] = hexutil.Encode(hash[:])
	}

	var from, to, paymaster common.Address
	var paymasterInput []byte
	if tx.From != nil {
		from = *tx.From
	}
	if tx.To != nil {
		to = *tx.To
	}
	if tx.PaymasterParams != nil {
		paymaster = tx.PaymasterParams.Paymaster
		paymasterInput = tx.PaymasterParams.Input
	}

	return apitypes.TypedData{
		Types:       typedDataTypes,
		PrimaryType: "Transaction",
		Domain: apitypes.TypedDataDomain{
			Name:    EIP712DomainName,
			Version: EIP712DomainVersion,
			ChainId: (*math.HexOrDecimal256)(new(big.Int).Set(tx.ChainID)),
		},
		Message: apitypes.TypedDataMessage{
			"txType":                 big.NewInt(TxType),
			"from":                   from.Big(),
			"to":                     to.Big(),
			"gasLimit":               bigOrZero(tx.GasLimit),
			"gasPerPubdataByteLimit": tx.gasPerPubdataOrDefault(),
			"maxFeePerGas":           bigOrZero(tx.MaxFeePerGas),
			"maxPriorityFeePerGas":   bigOrZero(tx.MaxPriorityFeePerGas),
			"paymaster":              paymaster.Big(),
			"nonce":                  bigOrZero(tx.Nonce),
			"value":                  bigOrZero(tx.Value),
			"data":                   hexutil.Encode(tx.Data),
			"factoryDeps":            deps,
			"paymasterInput":         hexutil.Encode(paymasterInput),
		},
	}, nil
}

// SignedDigest computes the domain-separated hash a signer commits to:
// keccak256("\x19\x01" || domainSeparator || hashStruct(Transaction)).
func (tx *TypedTransaction) SignedDigest() (common.Hash, error) {
	td, err := tx.TypedData()
	if err != nil {
		return common.Hash{}, err
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return common.BytesToHash(digest), nil
}

// CanonicalHash computes the transaction's identifying hash:
// keccak256(SignedDigest || keccak256(authBytes)), where authBytes is the
// custom signature verbatim or r(32)||s(32)||yParity(1) for a classical one.
//
// sig, when non-nil, overrides the authentication attached to the
// transaction; with neither available CanonicalHash fails with
// ErrMissingAuthentication.
func (tx *TypedTransaction) CanonicalHash(sig *ClassicalSignature) (common.Hash, error) {
	auth, err := tx.authentication(sig)
	if err != nil {
		return common.Hash{}, err
	}
	digest, err := tx.SignedDigest()
	if err != nil {
		return common.Hash{}, err
	}
	sigHash := crypto.Keccak256(auth.Bytes())
	return crypto.Keccak256Hash(digest[:], sigHash), nil
}
