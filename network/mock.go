package network

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/viabridge/libvia-go/codec"
	"github.com/viabridge/libvia-go/deposit"
	"github.com/viabridge/libvia-go/fees"
)

// MockBlockchainService is a test double for BlockchainService.
// All function fields must be set before the corresponding method is called.
type MockBlockchainService struct {
	ListUnspentFn     func(ctx context.Context, address string, minConf int64) ([]deposit.UTXO, error)
	EstimateFeeRateFn func(ctx context.Context, confTarget int64) (int64, error)
	BroadcastTxFn     func(ctx context.Context, rawTxHex string) (string, error)
}

func (m *MockBlockchainService) ListUnspent(ctx context.Context, address string, minConf int64) ([]deposit.UTXO, error) {
	return m.ListUnspentFn(ctx, address, minConf)
}
func (m *MockBlockchainService) EstimateFeeRate(ctx context.Context, confTarget int64) (int64, error) {
	return m.EstimateFeeRateFn(ctx, confTarget)
}
func (m *MockBlockchainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}

// MockL2Service is a test double for L2Service.
type MockL2Service struct {
	EstimateFeeFn  func(ctx context.Context, tx *codec.TypedTransaction) (*fees.Quote, error)
	CodeAtFn       func(ctx context.Context, addr common.Address) ([]byte, error)
	CallContractFn func(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	ChainIDFn      func(ctx context.Context) (*big.Int, error)
}

func (m *MockL2Service) EstimateFee(ctx context.Context, tx *codec.TypedTransaction) (*fees.Quote, error) {
	return m.EstimateFeeFn(ctx, tx)
}
func (m *MockL2Service) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return m.CodeAtFn(ctx, addr)
}
func (m *MockL2Service) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return m.CallContractFn(ctx, to, data)
}
func (m *MockL2Service) ChainID(ctx context.Context) (*big.Int, error) {
	return m.ChainIDFn(ctx)
}
