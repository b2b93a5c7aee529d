// Package deposit selects unspent outputs and builds the L1 transaction that
// moves value into the bridge: a value-bearing output to the bridge address,
// a zero-value embedded-data output naming the L2 recipient, and change back
// to the sender. Signing supports four address-script families.
package deposit

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ScriptFamily is the closed set of spending-condition types a funding
// address can have.
type ScriptFamily int

const (
	// P2WPKH is a native segwit v0 pay-to-witness-pubkey-hash address.
	P2WPKH ScriptFamily = iota
	// P2TR is a taproot address spent through the key path.
	P2TR
	// P2PKH is a legacy pay-to-pubkey-hash address.
	P2PKH
	// P2SHP2WPKH is a witness-pubkey-hash program wrapped in P2SH.
	P2SHP2WPKH
)

// String returns the conventional family name.
func (f ScriptFamily) String() string {
	switch f {
	case P2WPKH:
		return "p2wpkh"
	case P2TR:
		return "p2tr"
	case P2PKH:
		return "p2pkh"
	case P2SHP2WPKH:
		return "p2sh-p2wpkh"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// SpendableScript derives the spending condition for one script family and
// signs inputs locked to it. Implementations are stateless.
type SpendableScript interface {
	// Address derives the funding address for the given public key.
	Address(pub *btcec.PublicKey, params *chaincfg.Params) (btcutil.Address, error)

	// InputVBytes is the virtual size one spent input of this family adds
	// to a transaction, used by the selection fee model.
	InputVBytes() int64

	// SignInput signs tx input idx, which spends utxo, and attaches the
	// final witness and/or signature script.
	SignInput(tx *wire.MsgTx, idx int, hashes *txscript.TxSigHashes, utxo UTXO, key *btcec.PrivateKey) error
}

// ScriptFor returns the SpendableScript for a family, or
// ErrUnsupportedAddressType for anything outside the closed set.
func ScriptFor(f ScriptFamily) (SpendableScript, error) {
	switch f {
	case P2WPKH:
		return p2wpkhScript{}, nil
	case P2TR:
		return p2trScript{}, nil
	case P2PKH:
		return p2pkhScript{}, nil
	case P2SHP2WPKH:
		return p2shP2wpkhScript{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddressType, f)
	}
}

// --- P2WPKH ---

type p2wpkhScript struct{}

func (p2wpkhScript) Address(pub *btcec.PublicKey, params *chaincfg.Params) (btcutil.Address, error) {
	return btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
}

func (p2wpkhScript) InputVBytes() int64 { return 68 }

func (p2wpkhScript) SignInput(tx *wire.MsgTx, idx int, hashes *txscript.TxSigHashes, utxo UTXO, key *btcec.PrivateKey) error {
	witness, err := txscript.WitnessSignature(tx, hashes, idx, utxo.Amount, utxo.PkScript,
		txscript.SigHashAll, key, true)
	if err != nil {
		return fmt.Errorf("%w: p2wpkh input %d: %w", ErrSigningFailed, idx, err)
	}
	tx.TxIn[idx].Witness = witness
	return nil
}

// --- P2TR (key path) ---

type p2trScript struct{}

func (p2trScript) Address(pub *btcec.PublicKey, params *chaincfg.Params) (btcutil.Address, error) {
	tweaked := txscript.ComputeTaprootKeyNoScript(pub)
	return btcutil.NewAddressTaproot(schnorr.SerializePubKey(tweaked), params)
}

func (p2trScript) InputVBytes() int64 { return 58 }

func (p2trScript) SignInput(tx *wire.MsgTx, idx int, hashes *txscript.TxSigHashes, utxo UTXO, key *btcec.PrivateKey) error {
	witness, err := txscript.TaprootWitnessSignature(tx, hashes, idx, utxo.Amount, utxo.PkScript,
		txscript.SigHashDefault, key)
	if err != nil {
		return fmt.Errorf("%w: p2tr input %d: %w", ErrSigningFailed, idx, err)
	}
	tx.TxIn[idx].Witness = witness
	return nil
}

// --- P2PKH ---

type p2pkhScript struct{}

func (p2pkhScript) Address(pub *btcec.PublicKey, params *chaincfg.Params) (btcutil.Address, error) {
	return btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
}

func (p2pkhScript) InputVBytes() int64 { return 148 }

func (p2pkhScript) SignInput(tx *wire.MsgTx, idx int, _ *txscript.TxSigHashes, utxo UTXO, key *btcec.PrivateKey) error {
	sigScript, err := txscript.SignatureScript(tx, idx, utxo.PkScript,
		txscript.SigHashAll, key, true)
	if err != nil {
		return fmt.Errorf("%w: p2pkh input %d: %w", ErrSigningFailed, idx, err)
	}
	tx.TxIn[idx].SignatureScript = sigScript
	return nil
}

// --- P2SH-wrapped P2WPKH ---

type p2shP2wpkhScript struct{}

func (p2shP2wpkhScript) Address(pub *btcec.PublicKey, params *chaincfg.Params) (btcutil.Address, error) {
	redeem, err := witnessProgram(pub)
	if err != nil {
		return nil, err
	}
	return btcutil.NewAddressScriptHash(redeem, params)
}

func (p2shP2wpkhScript) InputVBytes() int64 { return 91 }

func (p2shP2wpkhScript) SignInput(tx *wire.MsgTx, idx int, hashes *txscript.TxSigHashes, utxo UTXO, key *btcec.PrivateKey) error {
	// The witness commits to the inner p2wpkh program, not the p2sh
	// script hash; the signature script carries only the redeem push.
	redeem, err := witnessProgram(key.PubKey())
	if err != nil {
		return err
	}
	witness, err := txscript.WitnessSignature(tx, hashes, idx, utxo.Amount, redeem,
		txscript.SigHashAll, key, true)
	if err != nil {
		return fmt.Errorf("%w: p2sh-p2wpkh input %d: %w", ErrSigningFailed, idx, err)
	}
	sigScript, err := txscript.NewScriptBuilder().AddData(redeem).Script()
	if err != nil {
		return fmt.Errorf("%w: redeem push: %w", ErrScriptBuild, err)
	}
	tx.TxIn[idx].Witness = witness
	tx.TxIn[idx].SignatureScript = sigScript
	return nil
}

// witnessProgram builds the 22-byte p2wpkh program for a public key.
// The program bytes are network-independent.
func witnessProgram(pub *btcec.PublicKey) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(btcutil.Hash160(pub.SerializeCompressed())).
		Script()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	return script, nil
}
