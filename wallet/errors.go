package wallet

import "errors"

var (
	// ErrInvalidEntropy indicates an unsupported mnemonic entropy size.
	ErrInvalidEntropy = errors.New("wallet: entropy must be 128 or 256 bits")

	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid mnemonic")

	// ErrInvalidSeed indicates the seed is empty or malformed.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrDecryptionFailed indicates the encrypted seed could not be
	// decrypted, usually a wrong password or corrupted blob.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed")

	// ErrChecksumMismatch indicates decryption produced a seed whose
	// checksum does not match, meaning the blob was tampered with.
	ErrChecksumMismatch = errors.New("wallet: seed checksum mismatch")

	// ErrDerivationFailed indicates a BIP32 child derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")

	// ErrUnsupportedFamily indicates no derivation purpose exists for the
	// requested script family.
	ErrUnsupportedFamily = errors.New("wallet: unsupported script family")

	// ErrSigningFailed indicates the digest could not be signed.
	ErrSigningFailed = errors.New("wallet: signing failed")
)
