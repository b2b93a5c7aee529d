package network

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	"github.com/viabridge/libvia-go/deposit"
)

// L1Config configures the connection to the L1 node.
type L1Config struct {
	URL      string
	User     string
	Password string
}

// L1Client is a JSON-RPC 1.0 client for the UTXO L1 node. It handles
// request serialization, Basic Auth, and response parsing; the typed
// methods below are built on Call.
type L1Client struct {
	url    string
	user   string
	pass   string
	client *http.Client
	log    *logrus.Logger
	nextID atomic.Int64
}

var _ BlockchainService = (*L1Client)(nil)
var _ deposit.UTXOSource = (*L1Client)(nil)
var _ deposit.Broadcaster = (*L1Client)(nil)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewL1Client creates a client for the L1 node. Basic Auth is used when
// cfg.User is non-empty. A nil logger falls back to the standard one.
func NewL1Client(cfg L1Config, log *logrus.Logger) *L1Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &L1Client{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		log:  log,
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

// Call invokes a JSON-RPC method on the L1 node. If params is nil an empty
// array is sent; if result is nil the response payload is discarded.
//
// Call returns ErrConnectionFailed when the HTTP exchange fails,
// ErrInvalidResponse when the response cannot be decoded, and ErrRPC when
// the node reports a method-level error.
func (c *L1Client) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "1.0",
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
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	c.log.WithField("method", method).Debug("l1 rpc call")
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

// unspentEntry mirrors one element of a listunspent response.
type unspentEntry struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent returns the outputs controlled by address with at least
// minConf confirmations, converted to the deposit builder's UTXO type.
func (c *L1Client) ListUnspent(ctx context.Context, address string, minConf int64) ([]deposit.UTXO, error) {
	var entries []unspentEntry
	params := []interface{}{minConf, int64(9999999), []string{address}}
	if err := c.Call(ctx, "listunspent", params, &entries); err != nil {
		return nil, err
	}

	utxos := make([]deposit.UTXO, 0, len(entries))
	for _, e := range entries {
		txid, err := chainhash.NewHashFromStr(e.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: txid %q: %w", ErrInvalidResponse, e.TxID, err)
		}
		amount, err := btcutil.NewAmount(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %v: %w", ErrInvalidResponse, e.Amount, err)
		}
		script, err := hex.DecodeString(e.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: script %q: %w", ErrInvalidResponse, e.ScriptPubKey, err)
		}
		utxos = append(utxos, deposit.UTXO{
			TxID:     *txid,
			Vout:     e.Vout,
			Amount:   int64(amount),
			PkScript: script,
		})
	}
	return utxos, nil
}

// feeEstimate mirrors an estimatesmartfee response.
type feeEstimate struct {
	FeeRate float64  `json:"feerate"` // coins per kvB
	Errors  []string `json:"errors"`
}

// EstimateFeeRate asks the node for a fee rate targeting confirmation
// within confTarget blocks and converts it to sat/vByte, with a floor of
// one.
func (c *L1Client) EstimateFeeRate(ctx context.Context, confTarget int64) (int64, error) {
	var est feeEstimate
	if err := c.Call(ctx, "estimatesmartfee", []interface{}{confTarget}, &est); err != nil {
		return 0, err
	}
	if len(est.Errors) > 0 {
		return 0, fmt.Errorf("%w: estimatesmartfee: %v", ErrRPC, est.Errors)
	}
	perKvB, err := btcutil.NewAmount(est.FeeRate)
	if err != nil {
		return 0, fmt.Errorf("%w: feerate %v: %w", ErrInvalidResponse, est.FeeRate, err)
	}
	rate := int64(perKvB) / 1000
	if rate < 1 {
		rate = 1
	}
	return rate, nil
}

// BroadcastTx submits a finalized raw transaction and returns the txid the
// node reports.
func (c *L1Client) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{rawTxHex}, &txid); err != nil {
		return "", err
	}
	return txid, nil
}
