package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/viabridge/libvia-go/deposit"
)

const (
	// Purpose values per address standard.
	PurposeLegacy       = 44
	PurposeNestedSegwit = 49
	PurposeSegwit       = 84
	PurposeTaproot      = 86

	// CoinTypeEther is the L2 coin type; L1 coin types come from the
	// chain parameters (0 mainnet, 1 otherwise).
	CoinTypeEther = 60

	// Chain indices.
	ExternalChain = 0 // receive addresses
	InternalChain = 1 // change addresses
)

// Wallet is an HD wallet derived from one BIP39 seed, serving keys for
// both chains.
type Wallet struct {
	master *hdkeychain.ExtendedKey
	params *chaincfg.Params
}

// KeyPair holds a derived key with its human-readable path.
type KeyPair struct {
	PrivateKey *btcec.PrivateKey
	PublicKey  *btcec.PublicKey
	Path       string
}

// NewWallet creates a wallet from a BIP39 seed. A nil params defaults to
// mainnet.
func NewWallet(seed []byte, params *chaincfg.Params) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if params == nil {
		params = &chaincfg.MainNetParams
	}

	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: master key: %w", ErrDerivationFailed, err)
	}
	return &Wallet{master: master, params: params}, nil
}

// Params returns the wallet's L1 chain parameters.
func (w *Wallet) Params() *chaincfg.Params {
	return w.params
}

// purposeFor maps a script family to its derivation purpose.
func purposeFor(family deposit.ScriptFamily) (uint32, error) {
	switch family {
	case deposit.P2PKH:
		return PurposeLegacy, nil
	case deposit.P2SHP2WPKH:
		return PurposeNestedSegwit, nil
	case deposit.P2WPKH:
		return PurposeSegwit, nil
	case deposit.P2TR:
		return PurposeTaproot, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}
}

// derivePath walks the master key through the given child indices.
func (w *Wallet) derivePath(indices ...uint32) (*hdkeychain.ExtendedKey, error) {
	key := w.master
	for depth, idx := range indices {
		child, err := key.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("%w: depth %d: %w", ErrDerivationFailed, depth, err)
		}
		key = child
	}
	return key, nil
}

// DeriveL1Key derives the L1 key at
// m/{purpose}'/{coin}'/{account}'/{chain}/{index}, with the purpose chosen
// by the script family.
func (w *Wallet) DeriveL1Key(family deposit.ScriptFamily, account, chain, index uint32) (*KeyPair, error) {
	purpose, err := purposeFor(family)
	if err != nil {
		return nil, err
	}
	coin := w.params.HDCoinType

	key, err := w.derivePath(
		hdkeychain.HardenedKeyStart+purpose,
		hdkeychain.HardenedKeyStart+coin,
		hdkeychain.HardenedKeyStart+account,
		chain,
		index,
	)
	if err != nil {
		return nil, err
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract private key: %w", ErrDerivationFailed, err)
	}

	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  priv.PubKey(),
		Path:       fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", purpose, coin, account, chain, index),
	}, nil
}

// L1Address derives the address for the key at the given position, encoded
// for the script family.
func (w *Wallet) L1Address(family deposit.ScriptFamily, account, chain, index uint32) (btcutil.Address, error) {
	kp, err := w.DeriveL1Key(family, account, chain, index)
	if err != nil {
		return nil, err
	}
	script, err := deposit.ScriptFor(family)
	if err != nil {
		return nil, err
	}
	return script.Address(kp.PublicKey, w.params)
}
