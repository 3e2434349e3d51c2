// Package curve abstracts the secp256k1 operations this module needs
// (scalar multiplication, ECDSA sign/verify, public-key recovery) behind a
// narrow capability interface. The curve math itself is out of scope for
// this module (spec §4.1); the default Backend wires to
// github.com/btcsuite/btcd/btcec/v2, the same dependency the teacher wallet
// used for signing.
package curve

import "github.com/arcsign/btcpsbt/pkg/btcerr"

// Privkey is a 32-byte scalar in [1, n-1].
type Privkey [32]byte

// Pubkey is a compressed point: 1-byte prefix (0x02/0x03) + 32-byte X.
type Pubkey [33]byte

// Signature is a low-s-normalized ECDSA signature in compact 64-byte r||s
// form.
type Signature [64]byte

// RecoverableSignature is a 64-byte r||s signature plus a 1-byte recovery
// id in {0,1,2,3}.
type RecoverableSignature struct {
	Sig   Signature
	RecID byte
}

// Backend is the capability this module consumes from a secp256k1
// implementation. All methods are pure functions of their arguments; a
// Backend carries no mutable state and is safe to share across goroutines.
type Backend interface {
	// DerivePubkey computes the public key corresponding to priv.
	DerivePubkey(priv Privkey) (Pubkey, error)

	// SignDigest produces a low-s signature over a 32-byte digest.
	SignDigest(priv Privkey, digest [32]byte) (Signature, error)

	// SignDigestRecoverable produces a low-s signature plus recovery id.
	SignDigestRecoverable(priv Privkey, digest [32]byte) (RecoverableSignature, error)

	// VerifyDigest reports whether sig is a valid signature by pub over
	// digest. A verification failure is BadSignatureEncoding-distinct: use
	// btcerr.VerifyFailed specifically for "valid encoding, wrong
	// signature", never conflating it with decode failures.
	VerifyDigest(pub Pubkey, digest [32]byte, sig Signature) error

	// WithoutRecovery discards the recovery id.
	WithoutRecovery(rsig RecoverableSignature) Signature

	// ParseDER parses a DER-encoded ECDSA signature into compact form,
	// rejecting malleable (high-s or non-canonical) encodings.
	ParseDER(der []byte) (Signature, error)

	// EncodeDER serializes a compact signature to low-s DER.
	EncodeDER(sig Signature) []byte
}

// errBackendMissing is returned by operations on a nil Backend.
func errBackendMissing() error {
	return btcerr.New(btcerr.BackendMissing, "no curve backend installed")
}
