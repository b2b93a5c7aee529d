package wallet

import (
	"math/big"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viabridge/libvia-go/codec"
	"github.com/viabridge/libvia-go/deposit"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// --- Mnemonic tests ---

func TestGenerateMnemonic_12Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	words := strings.Fields(mnemonic)
	assert.Len(t, words, 12, "12-word mnemonic should have 12 words")
	assert.True(t, ValidateMnemonic(mnemonic), "generated mnemonic should be valid")
}

func TestGenerateMnemonic_24Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic24Words)
	require.NoError(t, err)

	words := strings.Fields(mnemonic)
	assert.Len(t, words, 24, "24-word mnemonic should have 24 words")
	assert.True(t, ValidateMnemonic(mnemonic), "generated mnemonic should be valid")
}

func TestGenerateMnemonic_InvalidEntropy(t *testing.T) {
	_, err := GenerateMnemonic(64)
	assert.ErrorIs(t, err, ErrInvalidEntropy)

	_, err = GenerateMnemonic(192)
	assert.ErrorIs(t, err, ErrInvalidEntropy)
}

func TestGenerateMnemonic_Unique(t *testing.T) {
	m1, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	m2, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	assert.NotEqual(t, m1, m2, "two generated mnemonics should be different")
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 12-word", testMnemonic, true},
		{"invalid words", "foo bar baz qux quux corge grault garply waldo fred plugh xyzzy", false},
		{"empty", "", false},
		{"partial", "abandon abandon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateMnemonic(tt.mnemonic))
		})
	}
}

// --- Seed derivation tests ---

func TestSeedFromMnemonic_Deterministic(t *testing.T) {
	seed1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	seed2, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	assert.Equal(t, seed1, seed2, "same mnemonic+passphrase should produce same seed")
	assert.Len(t, seed1, 64)
}

func TestSeedFromMnemonic_PassphraseChangesSeed(t *testing.T) {
	seed1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	seed2, err := SeedFromMnemonic(testMnemonic, "hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, seed1, seed2)
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	_, err := SeedFromMnemonic("not a mnemonic", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

// --- Seed encryption tests ---

func TestEncryptDecryptSeed_RoundTrip(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	encrypted, err := EncryptSeed(seed, "password123")
	require.NoError(t, err)
	assert.Greater(t, len(encrypted), SaltLen+NonceLen+len(seed))

	decrypted, err := DecryptSeed(encrypted, "password123")
	require.NoError(t, err)
	assert.Equal(t, seed, decrypted)
}

func TestDecryptSeed_WrongPassword(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	encrypted, err := EncryptSeed(seed, "correct")
	require.NoError(t, err)

	_, err = DecryptSeed(encrypted, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptSeed_TooShort(t *testing.T) {
	_, err := DecryptSeed([]byte{0x01, 0x02}, "password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptSeed_EmptySeed(t *testing.T) {
	_, err := EncryptSeed(nil, "password")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestEncryptSeed_UniqueOutput(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	e1, err := EncryptSeed(seed, "password")
	require.NoError(t, err)
	e2, err := EncryptSeed(seed, "password")
	require.NoError(t, err)

	// Random salt and nonce make every encryption distinct.
	assert.NotEqual(t, e1, e2)
}

// --- L1 derivation tests ---

func testWallet(t *testing.T, params *chaincfg.Params) *Wallet {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	w, err := NewWallet(seed, params)
	require.NoError(t, err)
	return w
}

func TestNewWallet_EmptySeed(t *testing.T) {
	_, err := NewWallet(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDeriveL1Key_PathsPerFamily(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)

	tests := []struct {
		family deposit.ScriptFamily
		path   string
	}{
		{deposit.P2PKH, "m/44'/0'/0'/0/0"},
		{deposit.P2SHP2WPKH, "m/49'/0'/0'/0/0"},
		{deposit.P2WPKH, "m/84'/0'/0'/0/0"},
		{deposit.P2TR, "m/86'/0'/0'/0/0"},
	}

	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			kp, err := w.DeriveL1Key(tt.family, 0, ExternalChain, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.path, kp.Path)
			assert.NotNil(t, kp.PrivateKey)
			assert.NotNil(t, kp.PublicKey)
		})
	}
}

func TestDeriveL1Key_TestnetCoinType(t *testing.T) {
	w := testWallet(t, &chaincfg.RegressionNetParams)

	kp, err := w.DeriveL1Key(deposit.P2WPKH, 0, ExternalChain, 0)
	require.NoError(t, err)
	assert.Equal(t, "m/84'/1'/0'/0/0", kp.Path)
}

func TestDeriveL1Key_Deterministic(t *testing.T) {
	w1 := testWallet(t, &chaincfg.MainNetParams)
	w2 := testWallet(t, &chaincfg.MainNetParams)

	kp1, err := w1.DeriveL1Key(deposit.P2WPKH, 0, ExternalChain, 5)
	require.NoError(t, err)
	kp2, err := w2.DeriveL1Key(deposit.P2WPKH, 0, ExternalChain, 5)
	require.NoError(t, err)

	assert.Equal(t, kp1.PrivateKey.Serialize(), kp2.PrivateKey.Serialize())
}

func TestDeriveL1Key_DistinctPositions(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)

	kp0, err := w.DeriveL1Key(deposit.P2WPKH, 0, ExternalChain, 0)
	require.NoError(t, err)
	kp1, err := w.DeriveL1Key(deposit.P2WPKH, 0, ExternalChain, 1)
	require.NoError(t, err)
	kpChange, err := w.DeriveL1Key(deposit.P2WPKH, 0, InternalChain, 0)
	require.NoError(t, err)

	assert.NotEqual(t, kp0.PrivateKey.Serialize(), kp1.PrivateKey.Serialize())
	assert.NotEqual(t, kp0.PrivateKey.Serialize(), kpChange.PrivateKey.Serialize())
}

func TestDeriveL1Key_UnsupportedFamily(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)

	_, err := w.DeriveL1Key(deposit.ScriptFamily(99), 0, ExternalChain, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFamily)
}

func TestL1Address_FamilyEncoding(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)

	tests := []struct {
		family deposit.ScriptFamily
		prefix string
	}{
		{deposit.P2WPKH, "bc1q"},
		{deposit.P2TR, "bc1p"},
		{deposit.P2PKH, "1"},
		{deposit.P2SHP2WPKH, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			addr, err := w.L1Address(tt.family, 0, ExternalChain, 0)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(addr.EncodeAddress(), tt.prefix),
				"address %s should start with %s", addr.EncodeAddress(), tt.prefix)
		})
	}
}

// --- L2 derivation and signing tests ---

func TestDeriveL2Key(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)

	key, err := w.DeriveL2Key(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/60'/0'/0/0", key.Path)
	assert.NotEqual(t, common.Address{}, key.Address)
	assert.Equal(t, crypto.PubkeyToAddress(key.PrivateKey.PublicKey), key.Address)
}

func TestDeriveL2Key_Deterministic(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)

	k1, err := w.DeriveL2Key(0, 3)
	require.NoError(t, err)
	k2, err := w.DeriveL2Key(0, 3)
	require.NoError(t, err)
	k3, err := w.DeriveL2Key(0, 4)
	require.NoError(t, err)

	assert.Equal(t, k1.Address, k2.Address)
	assert.NotEqual(t, k1.Address, k3.Address)
}

func TestSignTransaction_RecoversToSigner(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)
	key, err := w.DeriveL2Key(0, 0)
	require.NoError(t, err)

	to := common.HexToAddress("0x0000000000000000000000000000000000002222")
	tx := &codec.TypedTransaction{
		ChainID:              big.NewInt(270),
		From:                 &key.Address,
		To:                   &to,
		Nonce:                big.NewInt(1),
		GasLimit:             big.NewInt(100_000),
		MaxFeePerGas:         big.NewInt(2_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
		Value:                big.NewInt(42),
	}

	sig, err := key.SignTransaction(tx)
	require.NoError(t, err)

	digest, err := tx.SignedDigest()
	require.NoError(t, err)

	pub, err := crypto.SigToPub(digest[:], sig.Bytes())
	require.NoError(t, err)
	assert.Equal(t, key.Address, crypto.PubkeyToAddress(*pub))
}

func TestSignTransaction_EncodableRoundTrip(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)
	key, err := w.DeriveL2Key(0, 0)
	require.NoError(t, err)

	to := common.HexToAddress("0x0000000000000000000000000000000000002222")
	tx := &codec.TypedTransaction{
		ChainID:              big.NewInt(270),
		From:                 &key.Address,
		To:                   &to,
		Nonce:                big.NewInt(0),
		GasLimit:             big.NewInt(21_000),
		MaxFeePerGas:         big.NewInt(1),
		MaxPriorityFeePerGas: big.NewInt(1),
	}

	sig, err := key.SignTransaction(tx)
	require.NoError(t, err)

	raw, err := tx.Encode(sig)
	require.NoError(t, err)

	decoded, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, key.Address.Hex(), decoded.From.Hex())
}

func TestSignMessage_RecoversToSigner(t *testing.T) {
	w := testWallet(t, &chaincfg.MainNetParams)
	key, err := w.DeriveL2Key(0, 0)
	require.NoError(t, err)

	msg := []byte("bridge deposit confirmation")
	sig, err := key.SignMessage(msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address, crypto.PubkeyToAddress(*pub))
}
