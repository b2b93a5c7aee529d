package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	abiBytes, _   = abi.NewType("bytes", "", nil)
	abiAddress, _ = abi.NewType("address", "", nil)
	abiUint256, _ = abi.NewType("uint256", "", nil)

	generalSelector       = crypto.Keccak256([]byte("general(bytes)"))[:4]
	approvalBasedSelector = crypto.Keccak256([]byte("approvalBased(address,uint256,bytes)"))[:4]
)

// NewGeneralPaymasterParams builds PaymasterParams for the "general" sponsor
// flow: the paymaster receives only opaque inner input and sponsors the fee
// unconditionally.
func NewGeneralPaymasterParams(paymaster common.Address, innerInput []byte) (*PaymasterParams, error) {
	packed, err := abi.Arguments{{Type: abiBytes}}.Pack(innerInput)
	if err != nil {
		return nil, fmt.Errorf("codec: pack general paymaster input: %w", err)
	}
	return &PaymasterParams{
		Paymaster: paymaster,
		Input:     append(append([]byte{}, generalSelector...), packed...),
	}, nil
}

// NewApprovalBasedPaymasterParams builds PaymasterParams for the
// "approval-based" flow, where the account grants the paymaster an allowance
// of minAllowance on the given token in exchange for fee sponsorship.
func NewApprovalBasedPaymasterParams(paymaster, token common.Address, minAllowance *big.Int, innerInput []byte) (*PaymasterParams, error) {
	if minAllowance == nil {
		minAllowance = new(big.Int)
	}
	packed, err := abi.Arguments{
		{Type: abiAddress},
		{Type: abiUint256},
		{Type: abiBytes},
	}.Pack(token, minAllowance, innerInput)
	if err != nil {
		return nil, fmt.Errorf("codec: pack approval-based paymaster input: %w", err)
	}
	return &PaymasterParams{
		Paymaster: paymaster,
		Input:     append(append([]byte{}, approvalBasedSelector...), packed...),
	}, nil
}
