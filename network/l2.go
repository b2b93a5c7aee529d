package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/viabridge/libvia-go/codec"
	"github.com/viabridge/libvia-go/fees"
	"github.com/viabridge/libvia-go/verify"
)

// L2Config configures the connection to the L2 node.
type L2Config struct {
	URL string
}

// L2Client is a JSON-RPC 2.0 client for the L2 node.
type L2Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
	nextID atomic.Int64
}

var _ L2Service = (*L2Client)(nil)
var _ fees.Estimator = (*L2Client)(nil)
var _ verify.CodeReader = (*L2Client)(nil)
var _ verify.ContractCaller = (*L2Client)(nil)

// NewL2Client creates a client for the L2 node. A nil logger falls back to
// the standard one.
func NewL2Client(cfg L2Config, log *logrus.Logger) *L2Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &L2Client{
		url: cfg.URL,
		log: log,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes a JSON-RPC 2.0 method on the L2 node, with the same error
// contract as L1Client.Call.
func (c *L2Client) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("network: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.WithField("method", method).Debug("l2 rpc call")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}
	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%w: %s: code %d: %s", ErrRPC, method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("%w: decode result: %w", ErrInvalidResponse, err)
	}
	return nil
}

// l2CallMsg is the transaction-shaped request object for estimation calls.
type l2CallMsg struct {
	From       string        `json:"from,omitempty"`
	To         string        `json:"to,omitempty"`
	Value      *hexutil.Big  `json:"value,omitempty"`
	Data       hexutil.Bytes `json:"data,omitempty"`
	Eip712Meta *eip712Meta   `json:"eip712Meta,omitempty"`
}

type eip712Meta struct {
	GasPerPubdata   *hexutil.Big     `json:"gasPerPubdata,omitempty"`
	FactoryDeps     []hexutil.Bytes  `json:"factoryDeps,omitempty"`
	CustomSignature hexutil.Bytes    `json:"customSignature,omitempty"`
	PaymasterParams *paymasterParams `json:"paymasterParams,omitempty"`
}

type paymasterParams struct {
	Paymaster      common.Address `json:"paymaster"`
	PaymasterInput hexutil.Bytes  `json:"paymasterInput"`
}

// feeQuote mirrors the node's fee estimate response.
type feeQuote struct {
	GasLimit             *hexutil.Big `json:"gas_limit"`
	GasPerPubdataLimit   *hexutil.Big `json:"gas_per_pubdata_limit"`
	MaxFeePerGas         *hexutil.Big `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *hexutil.Big `json:"max_priority_fee_per_gas"`
}

// EstimateFee sends the transaction-so-far to the node's fee estimator and
// returns the quote. The quote is only valid for the submitted shape.
func (c *L2Client) EstimateFee(ctx context.Context, tx *codec.TypedTransaction) (*fees.Quote, error) {
	msg := callMsgFromTx(tx)
	var quote feeQuote
	if err := c.Call(ctx, "zks_estimateFee", []interface{}{msg}, &quote); err != nil {
		return nil, err
	}
	if quote.GasLimit == nil || quote.MaxFeePerGas == nil {
		return nil, fmt.Errorf("%w: incomplete fee quote", ErrInvalidResponse)
	}
	return &fees.Quote{
		GasLimit:             (*big.Int)(quote.GasLimit),
		MaxFeePerGas:         (*big.Int)(quote.MaxFeePerGas),
		MaxPriorityFeePerGas: (*big.Int)(quote.MaxPriorityFeePerGas),
		GasPerPubdataLimit:   (*big.Int)(quote.GasPerPubdataLimit),
	}, nil
}

// CodeAt returns the code deployed at addr in the latest state.
func (c *L2Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.Call(ctx, "eth_getCode", []interface{}{addr.Hex(), "latest"}, &code); err != nil {
		return nil, err
	}
	return code, nil
}

// CallContract executes a read-only call against to in the latest state.
func (c *L2Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := l2CallMsg{To: to.Hex(), Data: data}
	var ret hexutil.Bytes
	if err := c.Call(ctx, "eth_call", []interface{}{msg, "latest"}, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// ChainID returns the L2 chain ID.
func (c *L2Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.Call(ctx, "eth_chainId", []interface{}{}, &id); err != nil {
		return nil, err
	}
	return (*big.Int)(&id), nil
}

// callMsgFromTx flattens a typed transaction into the estimation request
// shape, carrying the 712 metadata the estimator prices (pubdata limit,
// factory deps, paymaster).
func callMsgFromTx(tx *codec.TypedTransaction) l2CallMsg {
	msg := l2CallMsg{Data: tx.Data}
	if tx.From != nil {
		msg.From = tx.From.Hex()
	}
	if tx.To != nil {
		msg.To = tx.To.Hex()
	}
	if tx.Value != nil {
		msg.Value = (*hexutil.Big)(tx.Value)
	}

	meta := &eip712Meta{GasPerPubdata: (*hexutil.Big)(codec.DefaultGasPerPubdataLimit)}
	if tx.GasPerPubdata != nil {
		meta.GasPerPubdata = (*hexutil.Big)(tx.GasPerPubdata)
	}
	for _, dep := range tx.FactoryDeps {
		meta.FactoryDeps = append(meta.FactoryDeps, dep)
	}
	if custom, ok := tx.Auth.(codec.CustomSignature); ok {
		meta.CustomSignature = []byte(custom)
	}
	if tx.PaymasterParams != nil {
		meta.PaymasterParams = &paymasterParams{
			Paymaster:      tx.PaymasterParams.Paymaster,
			PaymasterInput: tx.PaymasterParams.Input,
		}
	}
	msg.Eip712Meta = meta
	return msg
}
