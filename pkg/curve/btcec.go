package curve

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
)

// BtcecBackend implements Backend on top of btcsuite/btcd's btcec/v2,
// the curve dependency the teacher wallet's Bitcoin signer already carried
// (src/chainadapter/bitcoin/signer.go).
type BtcecBackend struct{}

// NewBtcecBackend returns the default Backend implementation.
func NewBtcecBackend() *BtcecBackend { return &BtcecBackend{} }

var _ Backend = (*BtcecBackend)(nil)

func (BtcecBackend) DerivePubkey(priv Privkey) (Pubkey, error) {
	_, pub := btcec.PrivKeyFromBytes(priv[:])
	var out Pubkey
	copy(out[:], pub.SerializeCompressed())
	return out, nil
}

func compactFromSig(sig *ecdsa.Signature) Signature {
	var out Signature
	r := sig.R().Bytes()
	s := sig.S().Bytes()
	copy(out[:32], r[:])
	copy(out[32:], s[:])
	return out
}

func (BtcecBackend) SignDigest(priv Privkey, digest [32]byte) (Signature, error) {
	key, _ := btcec.PrivKeyFromBytes(priv[:])
	sig := ecdsa.Sign(key, digest[:])
	return compactFromSig(sig), nil
}

func (BtcecBackend) SignDigestRecoverable(priv Privkey, digest [32]byte) (RecoverableSignature, error) {
	key, pub := btcec.PrivKeyFromBytes(priv[:])
	sig := ecdsa.Sign(key, digest[:])
	base := compactFromSig(sig)

	recID, err := recoveryID(sig, pub, digest)
	if err != nil {
		return RecoverableSignature{}, err
	}
	return RecoverableSignature{Sig: base, RecID: recID}, nil
}

// recoveryID brute-forces the recovery id by trying all four candidates
// against the 27+id compact-signature header and matching the resulting
// recovered key against the known public key.
func recoveryID(sig *ecdsa.Signature, want *btcec.PublicKey, digest [32]byte) (byte, error) {
	wantBytes := want.SerializeCompressed()
	rb := sig.R().Bytes()
	sb := sig.S().Bytes()
	for id := byte(0); id < 4; id++ {
		compact := make([]byte, 65)
		compact[0] = 27 + id
		copy(compact[1:33], rb[:])
		copy(compact[33:65], sb[:])
		pub, _, err := ecdsa.RecoverCompact(compact, digest[:])
		if err != nil {
			continue
		}
		if string(pub.SerializeCompressed()) == string(wantBytes) {
			return id, nil
		}
	}
	return 0, btcerr.New(btcerr.VerifyFailed, "could not determine recovery id")
}

func (BtcecBackend) VerifyDigest(pub Pubkey, digest [32]byte, sig Signature) error {
	key, err := btcec.ParsePubKey(pub[:])
	if err != nil {
		return btcerr.Wrap(btcerr.BadSignatureEncoding, "invalid public key", err)
	}
	signature, err := sigFromCompact(sig)
	if err != nil {
		return btcerr.Wrap(btcerr.BadSignatureEncoding, "invalid signature encoding", err)
	}
	if !signature.Verify(digest[:], key) {
		return btcerr.New(btcerr.VerifyFailed, "signature verification failed")
	}
	return nil
}

func (BtcecBackend) WithoutRecovery(rsig RecoverableSignature) Signature {
	return rsig.Sig
}

func (BtcecBackend) ParseDER(der []byte) (Signature, error) {
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return Signature{}, btcerr.Wrap(btcerr.BadSignatureEncoding, "parse DER signature", err)
	}
	return compactFromSig(sig), nil
}

func (BtcecBackend) EncodeDER(sig Signature) []byte {
	s, err := sigFromCompact(sig)
	if err != nil {
		// sig was produced by this package's own SignDigest, so the
		// scalars are always canonical; this path is unreachable for
		// legitimately constructed Signature values.
		return nil
	}
	return s.Serialize()
}

func sigFromCompact(sig Signature) (*ecdsa.Signature, error) {
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return nil, btcerr.New(btcerr.BadSignatureEncoding, "signature r overflows curve order")
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return nil, btcerr.New(btcerr.BadSignatureEncoding, "signature s overflows curve order")
	}
	return ecdsa.NewSignature(&r, &s), nil
}
