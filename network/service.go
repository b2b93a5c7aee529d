// Package network holds the JSON-RPC clients for the two nodes the SDK
// talks to: the UTXO L1 node (JSON-RPC 1.0, bitcoind-style methods) and the
// L2 node (JSON-RPC 2.0). The rest of the SDK consumes these through narrow
// interfaces so tests can substitute mocks.
package network

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/viabridge/libvia-go/codec"
	"github.com/viabridge/libvia-go/deposit"
	"github.com/viabridge/libvia-go/fees"
)

// BlockchainService is the L1 node surface the SDK needs: unspent-output
// listing, fee-rate estimation, and broadcast.
type BlockchainService interface {
	ListUnspent(ctx context.Context, address string, minConf int64) ([]deposit.UTXO, error)
	EstimateFeeRate(ctx context.Context, confTarget int64) (int64, error)
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// L2Service is the L2 node surface: fee quoting for typed transactions,
// account code lookup, read-only contract calls, and the chain ID.
type L2Service interface {
	EstimateFee(ctx context.Context, tx *codec.TypedTransaction) (*fees.Quote, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
}
