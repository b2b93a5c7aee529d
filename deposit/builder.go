package deposit

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	// DustLimit is the smallest change output worth creating; anything
	// smaller folds into the fee.
	DustLimit = 546

	// RequiredConfirmations is the minimum depth a candidate output must
	// have before it can fund a deposit.
	RequiredConfirmations = 1

	// txOverheadVBytes covers version, locktime, marker/flag, and the
	// input/output count prefixes of a small transaction.
	txOverheadVBytes = 11

	// l2AddressLen is the length of the ASCII form of an L2 address
	// ("0x" plus 40 hex characters).
	l2AddressLen = 42
)

// UTXOSource lists spendable outputs for an address. Implemented by
// network.L1Client and by test mocks.
type UTXOSource interface {
	ListUnspent(ctx context.Context, address string, minConf int64) ([]UTXO, error)
}

// Broadcaster submits a finalized raw transaction to the L1 network.
type Broadcaster interface {
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// Ledger records deposits and reserves their inputs. Reserving lets callers
// who share a funding address turn a concurrent-selection race into an
// explicit build-time conflict instead of a double-spend attempt.
type Ledger interface {
	Reserve(outpoints []wire.OutPoint) error
	Record(dep *DepositTransaction, l2Recipient string) error
}

// DepositRequest describes one deposit to build.
type DepositRequest struct {
	// Key controls the funding address; it signs every selected input.
	Key *btcec.PrivateKey
	// Family is the script family of the funding address.
	Family ScriptFamily
	// BridgeAddress is the L1 address of the bridge, encoded for the
	// builder's network.
	BridgeAddress string
	// L2Recipient is the 0x-prefixed L2 address credited by the bridge.
	// It is embedded as its literal ASCII bytes.
	L2Recipient string
	// Amount is the deposit value in satoshis.
	Amount int64
	// FeeRate is the fee rate in sat/vByte.
	FeeRate int64
	// Strategy picks the inputs; nil means FirstFit.
	Strategy Strategy
}

// DepositTransaction is the finalized artifact of one deposit build. It is
// never mutated after signing; re-broadcasting Raw is idempotent, while
// re-running the builder produces a different, unrelated transaction.
type DepositTransaction struct {
	Tx     *wire.MsgTx
	Raw    []byte
	TxID   chainhash.Hash
	Inputs []UTXO
	Amount int64
	Fee    int64
	Change int64
}

// RawHex returns the broadcastable transaction as hex.
func (d *DepositTransaction) RawHex() string { return hex.EncodeToString(d.Raw) }

// Builder constructs deposit transactions. It holds no state across calls;
// concurrent builds against the same funding address can select overlapping
// inputs, so callers serialize per address (or attach a Ledger in Deposit).
type Builder struct {
	params *chaincfg.Params
	source UTXOSource
	log    *logrus.Logger
}

// NewBuilder creates a Builder for the given network. A nil logger falls
// back to the standard logrus logger.
func NewBuilder(params *chaincfg.Params, source UTXOSource, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Builder{params: params, source: source, log: log}
}

// BuildDeposit derives the funding address for the request's script family,
// fetches confirmed unspent outputs, selects a covering input set, builds
// the bridge/embedded-data/change outputs, signs every input, and returns
// the finalized transaction. Any failure aborts without observable effect.
func (b *Builder) BuildDeposit(ctx context.Context, req DepositRequest) (*DepositTransaction, error) {
	if req.Key == nil {
		return nil, fmt.Errorf("%w: key", ErrNilParam)
	}
	if req.Amount <= DustLimit {
		return nil, fmt.Errorf("%w: %d sat is not above the %d sat dust limit",
			ErrInvalidAmount, req.Amount, DustLimit)
	}
	if req.FeeRate <= 0 {
		return nil, fmt.Errorf("%w: fee rate %d", ErrInvalidAmount, req.FeeRate)
	}
	if !validL2Recipient(req.L2Recipient) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, req.L2Recipient)
	}

	spend, err := ScriptFor(req.Family)
	if err != nil {
		return nil, err
	}

	sender, err := spend.Address(req.Key.PubKey(), b.params)
	if err != nil {
		return nil, fmt.Errorf("%w: sender address: %w", ErrScriptBuild, err)
	}
	senderScript, err := txscript.PayToAddrScript(sender)
	if err != nil {
		return nil, fmt.Errorf("%w: sender script: %w", ErrScriptBuild, err)
	}

	bridgeScript, err := b.bridgeScript(req.BridgeAddress)
	if err != nil {
		return nil, err
	}
	embedScript, err := embeddedDataScript(req.L2Recipient)
	if err != nil {
		return nil, err
	}

	candidates, err := b.source.ListUnspent(ctx, sender.EncodeAddress(), RequiredConfirmations)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUTXOFetch, err)
	}

	strategy := req.Strategy
	if strategy == nil {
		strategy = FirstFit()
	}

	// Fee model: fixed overhead plus the three outputs (change included,
	// so selection never undershoots when change materializes) plus the
	// family's per-input weight.
	outBytes := outputVBytes(bridgeScript) + outputVBytes(embedScript) + outputVBytes(senderScript)
	feeFn := func(n int) int64 {
		return (txOverheadVBytes + outBytes + int64(n)*spend.InputVBytes()) * req.FeeRate
	}

	sel, err := strategy.Select(candidates, req.Amount, feeFn)
	if err != nil {
		return nil, err
	}

	change := sel.Change
	fee := sel.Fee
	if change > 0 && change <= DustLimit {
		fee += change
		change = 0
	}

	msg := wire.NewMsgTx(wire.TxVersion)
	for _, in := range sel.Inputs {
		op := in.OutPoint()
		msg.AddTxIn(wire.NewTxIn(&op, nil, nil))
	}
	msg.AddTxOut(wire.NewTxOut(req.Amount, bridgeScript))
	msg.AddTxOut(wire.NewTxOut(0, embedScript))
	if change > 0 {
		msg.AddTxOut(wire.NewTxOut(change, senderScript))
	}

	if err := signInputs(msg, spend, sel.Inputs, req.Key); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrSigningFailed, err)
	}

	dep := &DepositTransaction{
		Tx:     msg,
		Raw:    buf.Bytes(),
		TxID:   msg.TxHash(),
		Inputs: sel.Inputs,
		Amount: req.Amount,
		Fee:    fee,
		Change: change,
	}
	b.log.WithFields(logrus.Fields{
		"txid":     dep.TxID.String(),
		"family":   req.Family.String(),
		"strategy": strategy.Name(),
		"inputs":   len(sel.Inputs),
		"amount":   req.Amount,
		"fee":      fee,
		"change":   change,
	}).Debug("deposit transaction built")
	return dep, nil
}

// Deposit builds, optionally reserves and records through the ledger, and
// broadcasts. The inputs are reserved before broadcast so that a concurrent
// deposit drawing from the same address fails at build time rather than
// racing on the network.
func (b *Builder) Deposit(ctx context.Context, req DepositRequest, bc Broadcaster, ledger Ledger) (*DepositTransaction, error) {
	if bc == nil {
		return nil, fmt.Errorf("%w: broadcaster", ErrNilParam)
	}

	dep, err := b.BuildDeposit(ctx, req)
	if err != nil {
		return nil, err
	}

	if ledger != nil {
		outpoints := make([]wire.OutPoint, len(dep.Inputs))
		for i, in := range dep.Inputs {
			outpoints[i] = in.OutPoint()
		}
		if err := ledger.Reserve(outpoints); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLedger, err)
		}
	}

	if _, err := bc.BroadcastTx(ctx, dep.RawHex()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBroadcastFailed, err)
	}

	if ledger != nil {
		if err := ledger.Record(dep, req.L2Recipient); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLedger, err)
		}
	}
	b.log.WithField("txid", dep.TxID.String()).Info("deposit broadcast")
	return dep, nil
}

// bridgeScript decodes the bridge address for this network and builds its
// locking script.
func (b *Builder) bridgeScript(addr string) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, b.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBridgeAddress, err)
	}
	if !decoded.IsForNet(b.params) {
		return nil, fmt.Errorf("%w: %s is not valid for %s", ErrInvalidBridgeAddress, addr, b.params.Name)
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: bridge script: %w", ErrScriptBuild, err)
	}
	return script, nil
}

// embeddedDataScript builds the zero-value OP_RETURN carrier. The payload
// is the literal ASCII form of the L2 address, not its decoded 20 bytes;
// explorers read the recipient straight off the chain.
func embeddedDataScript(l2Recipient string) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData([]byte(l2Recipient)).
		Script()
	if err != nil {
		return nil, fmt.Errorf("%w: embedded data: %w", ErrScriptBuild, err)
	}
	return script, nil
}

// signInputs signs and finalizes every input against its source output.
func signInputs(msg *wire.MsgTx, spend SpendableScript, inputs []UTXO, key *btcec.PrivateKey) error {
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for _, in := range inputs {
		op := in.OutPoint()
		fetcher.AddPrevOut(op, wire.NewTxOut(in.Amount, in.PkScript))
	}
	hashes := txscript.NewTxSigHashes(msg, fetcher)
	for i, in := range inputs {
		if err := spend.SignInput(msg, i, hashes, in, key); err != nil {
			return err
		}
	}
	return nil
}

// outputVBytes is the serialized size of one output: value, script length
// prefix, script.
func outputVBytes(script []byte) int64 {
	return 8 + 1 + int64(len(script))
}

// validL2Recipient accepts exactly the ASCII form "0x" + 40 hex characters.
func validL2Recipient(s string) bool {
	return len(s) == l2AddressLen && s[0] == '0' && s[1] == 'x' && common.IsHexAddress(s)
}
