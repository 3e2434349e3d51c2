package bip32

import (
	"github.com/tyler-smith/go-bip39"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/curve"
)

// bitcoinSeedKey is the HMAC key BIP32 master-key generation hashes the
// seed under.
var bitcoinSeedKey = []byte("Bitcoin seed")

// NewMasterKey derives the master XPriv from a raw seed, per BIP32:
// I = HMAC-SHA512(key="Bitcoin seed", msg=seed); IL is the master private
// key, IR the master chain code.
func NewMasterKey(seed []byte, net Network, hint Hint, backend curve.Backend) (XPriv, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return XPriv{}, btcerr.New(btcerr.InvalidChildIndex, "seed must be between 16 and 64 bytes")
	}
	il, ir := hmacSHA512Split(bitcoinSeedKey, seed)

	var priv curve.Privkey
	copy(priv[:], il[:])

	info := XKeyInfo{
		Depth:   0,
		Index:   0,
		Network: net,
		Hint:    hint,
	}
	copy(info.ChainCode[:], ir[:])

	return XPriv{Info: info, Privkey: priv, Backend: backend}, nil
}

// SeedFromMnemonic derives a BIP32 seed from a BIP39 mnemonic and
// passphrase, using github.com/tyler-smith/go-bip39 (the same dependency
// the teacher wallet's bip39service wraps for mnemonic generation). This
// is a supplemental convenience entry point, not part of the core BIP32
// algorithm: callers who already hold a raw seed should call NewMasterKey
// directly.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, btcerr.New(btcerr.InvalidPath, "invalid BIP39 mnemonic")
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

// NewMasterKeyFromMnemonic is a convenience combining SeedFromMnemonic and
// NewMasterKey.
func NewMasterKeyFromMnemonic(mnemonic, passphrase string, net Network, hint Hint, backend curve.Backend) (XPriv, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return XPriv{}, err
	}
	return NewMasterKey(seed, net, hint, backend)
}
