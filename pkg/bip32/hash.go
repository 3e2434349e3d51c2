package bip32

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD160 is mandated by HASH160, not chosen for strength.
)

// hmacSHA512 computes HMAC-SHA512(key, data), the primitive BIP32 child
// derivation is built on.
func hmacSHA512(key, data []byte) [64]byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	var out [64]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// hash160 computes RIPEMD160(SHA256(b)) directly against
// golang.org/x/crypto/ripemd160, the same composition the teacher wallet
// reached via btcutil.Hash160 for address hashing.
func hash160(b []byte) [20]byte {
	sha := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sha[:])
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}
