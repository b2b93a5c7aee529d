package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/viabridge/libvia-go/codec"
)

// L2Key is a derived Ethereum-style key for the settlement chain.
type L2Key struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
	Path       string
}

// DeriveL2Key derives the L2 key at m/44'/60'/{account}'/0/{index}.
func (w *Wallet) DeriveL2Key(account, index uint32) (*L2Key, error) {
	key, err := w.derivePath(
		hdkeychain.HardenedKeyStart+PurposeLegacy,
		hdkeychain.HardenedKeyStart+CoinTypeEther,
		hdkeychain.HardenedKeyStart+account,
		ExternalChain,
		index,
	)
	if err != nil {
		return nil, err
	}

	btcPriv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract private key: %w", ErrDerivationFailed, err)
	}
	priv := btcPriv.ToECDSA()

	return &L2Key{
		PrivateKey: priv,
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		Path:       fmt.Sprintf("m/44'/%d'/%d'/0/%d", CoinTypeEther, account, index),
	}, nil
}

// SignTransaction signs the transaction's typed-data digest and returns
// the signature in the transaction's native r/s/y-parity form. The
// transaction itself is not modified; callers attach the signature when
// encoding.
func (k *L2Key) SignTransaction(tx *codec.TypedTransaction) (*codec.ClassicalSignature, error) {
	digest, err := tx.SignedDigest()
	if err != nil {
		return nil, err
	}
	return k.signDigest(digest)
}

// SignMessage signs a personal message per EIP-191 ("\x19Ethereum Signed
// Message:\n" prefix) and returns r(32) || s(32) || yParity(1).
func (k *L2Key) SignMessage(msg []byte) ([]byte, error) {
	digest := common.BytesToHash(accounts.TextHash(msg))
	sig, err := k.signDigest(digest)
	if err != nil {
		return nil, err
	}
	return sig.Bytes(), nil
}

func (k *L2Key) signDigest(digest common.Hash) (*codec.ClassicalSignature, error) {
	raw, err := crypto.Sign(digest[:], k.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	var sig codec.ClassicalSignature
	copy(sig.R[:], raw[0:32])
	copy(sig.S[:], raw[32:64])
	sig.YParity = raw[64]
	return &sig, nil
}
