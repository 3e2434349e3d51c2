// Package bip32 implements hierarchical deterministic key derivation
// (BIP32): extended private/public keys, hardened and unhardened child
// derivation, derivation-path parsing, and Base58Check extended-key
// serialization.
package bip32

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/curve"
)

// Hint selects, together with Network, the version-byte family used when
// serializing an extended key (spec §4.3, §6): whether the key is meant for
// a legacy, P2SH-wrapped-segwit ("compat"), or native segwit address.
type Hint int

const (
	HintLegacy Hint = iota
	HintCompat
	HintSegwit
)

// Network selects mainnet or testnet version bytes.
type Network int

const (
	Mainnet Network = iota
	Testnet
)

// ChainCode is the 32-byte BIP32 chain code.
type ChainCode [32]byte

// Fingerprint is the first 4 bytes of HASH160(compressed pubkey).
type Fingerprint [4]byte

// XKeyInfo carries the metadata common to both XPriv and XPub.
type XKeyInfo struct {
	Depth             uint8
	ParentFingerprint Fingerprint
	Index             uint32
	ChainCode         ChainCode
	Network           Network
	Hint              Hint
}

// IsHardened reports whether this key's own index is hardened.
func (i XKeyInfo) IsHardened() bool { return i.Index >= HardenedBit }

// XPriv is an extended private key: XKeyInfo plus a 32-byte scalar.
type XPriv struct {
	Info    XKeyInfo
	Privkey curve.Privkey
	Backend curve.Backend
}

// XPub is an extended public key: XKeyInfo plus a compressed point.
type XPub struct {
	Info    XKeyInfo
	Pubkey  curve.Pubkey
	Backend curve.Backend
}

// ToXPub derives the sibling XPub of priv: same XKeyInfo, public key
// computed via the curve backend. This is the identity spec's testable
// property checks: XPub(derive_pubkey(k.scalar), k.chain_code, k.info) ==
// k.to_xpub().
func (priv XPriv) ToXPub() (XPub, error) {
	if priv.Backend == nil {
		return XPub{}, btcerr.New(btcerr.BackendMissing, "XPriv has no curve backend")
	}
	pub, err := priv.Backend.DerivePubkey(priv.Privkey)
	if err != nil {
		return XPub{}, err
	}
	return XPub{Info: priv.Info, Pubkey: pub, Backend: priv.Backend}, nil
}

// Fingerprint computes the BIP32 fingerprint of this key's public part:
// the first 4 bytes of HASH160(compressed pubkey).
func (priv XPriv) Fingerprint() (Fingerprint, error) {
	pub, err := priv.ToXPub()
	if err != nil {
		return Fingerprint{}, err
	}
	return pub.Fingerprint(), nil
}

// Fingerprint computes the BIP32 fingerprint of this public key.
func (pub XPub) Fingerprint() Fingerprint {
	h := Hash160(pub.Pubkey[:])
	var fp Fingerprint
	copy(fp[:], h[:4])
	return fp
}

// DeriveChild derives the child at the given index from a private parent,
// implementing the hardened/unhardened CKD algorithm in spec §4.3.
func (priv XPriv) DeriveChild(index uint32) (XPriv, error) {
	if priv.Backend == nil {
		return XPriv{}, btcerr.New(btcerr.BackendMissing, "XPriv has no curve backend")
	}
	parentFP, err := priv.Fingerprint()
	if err != nil {
		return XPriv{}, err
	}

	var data []byte
	if index >= HardenedBit {
		data = make([]byte, 0, 1+32+4)
		data = append(data, 0x00)
		data = append(data, priv.Privkey[:]...)
		data = append(data, be32(index)...)
	} else {
		pub, err := priv.ToXPub()
		if err != nil {
			return XPriv{}, err
		}
		data = make([]byte, 0, 33+4)
		data = append(data, pub.Pubkey[:]...)
		data = append(data, be32(index)...)
	}

	il, ir := hmacSHA512Split(priv.Info.ChainCode[:], data)

	var ilScalar, parentScalar, childScalar btcec.ModNScalar
	if overflow := ilScalar.SetByteSlice(il[:]); overflow {
		return XPriv{}, btcerr.New(btcerr.InvalidChildIndex, "IL >= curve order")
	}
	parentScalar.SetByteSlice(priv.Privkey[:])
	childScalar.Add2(&ilScalar, &parentScalar)
	if childScalar.IsZero() {
		return XPriv{}, btcerr.New(btcerr.InvalidChildIndex, "derived private key is zero")
	}

	var childKey curve.Privkey
	childBytes := childScalar.Bytes()
	copy(childKey[:], childBytes[:])

	info := XKeyInfo{
		Depth:             priv.Info.Depth + 1,
		ParentFingerprint: parentFP,
		Index:             index,
		Network:           priv.Info.Network,
		Hint:              priv.Info.Hint,
	}
	copy(info.ChainCode[:], ir[:])

	return XPriv{Info: info, Privkey: childKey, Backend: priv.Backend}, nil
}

// DeriveChild derives a child XPub at the given (necessarily unhardened)
// index. Hardened derivation from a public key is impossible and returns
// HardenedDerivationFailed.
func (pub XPub) DeriveChild(index uint32) (XPub, error) {
	if pub.Backend == nil {
		return XPub{}, btcerr.New(btcerr.BackendMissing, "XPub has no curve backend")
	}
	if index >= HardenedBit {
		return XPub{}, btcerr.New(btcerr.HardenedDerivationFailed, "cannot derive a hardened child from a public key")
	}

	data := make([]byte, 0, 33+4)
	data = append(data, pub.Pubkey[:]...)
	data = append(data, be32(index)...)

	il, ir := hmacSHA512Split(pub.Info.ChainCode[:], data)

	var ilScalar btcec.ModNScalar
	if overflow := ilScalar.SetByteSlice(il[:]); overflow {
		return XPub{}, btcerr.New(btcerr.InvalidChildIndex, "IL >= curve order")
	}

	parentPoint, err := btcec.ParsePubKey(pub.Pubkey[:])
	if err != nil {
		return XPub{}, btcerr.Wrap(btcerr.InvalidChildIndex, "invalid parent public key", err)
	}

	var ilPoint btcec.JacobianPoint
	ilPrivForPoint := btcec.PrivKeyFromScalar(&ilScalar)
	ilPrivForPoint.PubKey().AsJacobian(&ilPoint)

	var parentJacobian btcec.JacobianPoint
	parentPoint.AsJacobian(&parentJacobian)

	var sum btcec.JacobianPoint
	btcec.AddNonConst(&ilPoint, &parentJacobian, &sum)
	sum.ToAffine()
	if sum.X.IsZero() && sum.Y.IsZero() {
		return XPub{}, btcerr.New(btcerr.InvalidChildIndex, "derived public key is point at infinity")
	}
	childPub := btcec.NewPublicKey(&sum.X, &sum.Y)

	info := XKeyInfo{
		Depth:             pub.Info.Depth + 1,
		ParentFingerprint: pub.Fingerprint(),
		Index:             index,
		Network:           pub.Info.Network,
		Hint:              pub.Info.Hint,
	}
	copy(info.ChainCode[:], ir[:])

	var pk curve.Pubkey
	copy(pk[:], childPub.SerializeCompressed())
	return XPub{Info: info, Pubkey: pk, Backend: pub.Backend}, nil
}

// DerivePath folds DeriveChild left-to-right over the path.
func (priv XPriv) DerivePath(path Path) (XPriv, error) {
	cur := priv
	var err error
	for _, idx := range path {
		cur, err = cur.DeriveChild(idx)
		if err != nil {
			return XPriv{}, err
		}
	}
	return cur, nil
}

// DerivePath folds DeriveChild left-to-right over the path. Per spec §4.3,
// the first hardened segment anywhere in the path is a terminal failure,
// detected before any child is derived.
func (pub XPub) DerivePath(path Path) (XPub, error) {
	if path.HasHardened() {
		return XPub{}, btcerr.New(btcerr.HardenedDerivationFailed, "path contains a hardened segment")
	}
	cur := pub
	var err error
	for _, idx := range path {
		cur, err = cur.DeriveChild(idx)
		if err != nil {
			return XPub{}, err
		}
	}
	return cur, nil
}

func be32(i uint32) []byte {
	return []byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
}

func hmacSHA512Split(key, data []byte) (il, ir [32]byte) {
	sum := hmacSHA512(key, data)
	copy(il[:], sum[:32])
	copy(ir[:], sum[32:])
	return
}

// Hash160 computes RIPEMD160(SHA256(b)), the standard Bitcoin address hash.
func Hash160(b []byte) [20]byte {
	return hash160(b)
}
