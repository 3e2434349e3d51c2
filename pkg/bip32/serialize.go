package bip32

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/curve"
)

// version holds the 4-byte version prefix for one (network, hint, isPriv)
// combination, per spec §6's xprv/xpub, tprv/tpub, yprv/ypub, zprv/zpub
// table.
type version struct {
	network Network
	hint    Hint
	isPriv  bool
}

var versionTable = map[version][4]byte{
	{Mainnet, HintLegacy, true}:  {0x04, 0x88, 0xAD, 0xE4}, // xprv
	{Mainnet, HintLegacy, false}: {0x04, 0x88, 0xB2, 0x1E}, // xpub
	{Testnet, HintLegacy, true}:  {0x04, 0x35, 0x83, 0x94}, // tprv
	{Testnet, HintLegacy, false}: {0x04, 0x35, 0x87, 0xCF}, // tpub
	{Mainnet, HintCompat, true}:  {0x04, 0x9D, 0x78, 0x78}, // yprv
	{Mainnet, HintCompat, false}: {0x04, 0x9D, 0x7C, 0xB2}, // ypub
	{Mainnet, HintSegwit, true}:  {0x04, 0xB2, 0x43, 0x0C}, // zprv
	{Mainnet, HintSegwit, false}: {0x04, 0xB2, 0x47, 0x46}, // zpub
}

var versionLookup = func() map[[4]byte]version {
	m := make(map[[4]byte]version, len(versionTable))
	for v, b := range versionTable {
		m[b] = v
	}
	return m
}()

func versionBytes(net Network, hint Hint, isPriv bool) ([4]byte, error) {
	b, ok := versionTable[version{net, hint, isPriv}]
	if !ok {
		return [4]byte{}, btcerr.New(btcerr.BadXKeyVersion, "no version bytes for this network/hint combination")
	}
	return b, nil
}

// Serialize encodes priv as a 78-byte BIP32 payload and wraps it in
// Base58Check: version || depth || parent_fingerprint || index_be ||
// chain_code || 0x00 || privkey.
func (priv XPriv) Serialize() (string, error) {
	ver, err := versionBytes(priv.Info.Network, priv.Info.Hint, true)
	if err != nil {
		return "", err
	}
	payload := make([]byte, 0, 78)
	payload = append(payload, ver[:]...)
	payload = append(payload, byte(priv.Info.Depth))
	payload = append(payload, priv.Info.ParentFingerprint[:]...)
	payload = append(payload, be32(priv.Info.Index)...)
	payload = append(payload, priv.Info.ChainCode[:]...)
	payload = append(payload, 0x00)
	payload = append(payload, priv.Privkey[:]...)
	return base58CheckEncode(payload), nil
}

// Serialize encodes pub as a 78-byte BIP32 payload wrapped in Base58Check.
func (pub XPub) Serialize() (string, error) {
	payload, err := pub.SerializeRaw()
	if err != nil {
		return "", err
	}
	return base58CheckEncode(payload[:]), nil
}

// SerializeRaw encodes pub as the unwrapped 78-byte BIP32 payload, without
// Base58Check. PSBT global xpub entries (spec §4.6) embed this raw form
// directly rather than the Base58Check string.
func (pub XPub) SerializeRaw() ([78]byte, error) {
	var out [78]byte
	ver, err := versionBytes(pub.Info.Network, pub.Info.Hint, false)
	if err != nil {
		return out, err
	}
	payload := make([]byte, 0, 78)
	payload = append(payload, ver[:]...)
	payload = append(payload, byte(pub.Info.Depth))
	payload = append(payload, pub.Info.ParentFingerprint[:]...)
	payload = append(payload, be32(pub.Info.Index)...)
	payload = append(payload, pub.Info.ChainCode[:]...)
	payload = append(payload, pub.Pubkey[:]...)
	copy(out[:], payload)
	return out, nil
}

// ParseXPubRaw decodes an unwrapped 78-byte BIP32 payload (no Base58Check),
// the form PSBT global xpub entries embed.
func ParseXPubRaw(payload []byte, backend curve.Backend) (XPub, error) {
	if len(payload) != 78 {
		return XPub{}, btcerr.New(btcerr.BadXKeyLength, "expected 78-byte extended key payload")
	}
	var ver [4]byte
	copy(ver[:], payload[:4])
	v, ok := versionLookup[ver]
	if !ok || v.isPriv {
		return XPub{}, btcerr.New(btcerr.BadXKeyVersion, "not a recognized extended public key version")
	}

	info := XKeyInfo{
		Depth:   payload[4],
		Index:   be32ToU32(payload[9:13]),
		Network: v.network,
		Hint:    v.hint,
	}
	copy(info.ParentFingerprint[:], payload[5:9])
	copy(info.ChainCode[:], payload[13:45])

	var pub curve.Pubkey
	copy(pub[:], payload[45:78])

	return XPub{Info: info, Pubkey: pub, Backend: backend}, nil
}

// ParseXPriv decodes a Base58Check-encoded extended private key string.
func ParseXPriv(s string, backend curve.Backend) (XPriv, error) {
	payload, err := base58CheckDecode(s)
	if err != nil {
		return XPriv{}, err
	}
	if len(payload) != 78 {
		return XPriv{}, btcerr.New(btcerr.BadXKeyLength, "expected 78-byte extended key payload")
	}
	var ver [4]byte
	copy(ver[:], payload[:4])
	v, ok := versionLookup[ver]
	if !ok || !v.isPriv {
		return XPriv{}, btcerr.New(btcerr.BadXKeyVersion, "not a recognized extended private key version")
	}
	if payload[45] != 0x00 {
		return XPriv{}, btcerr.New(btcerr.BadXKeyLength, "private key field must be prefixed with 0x00")
	}

	info := XKeyInfo{
		Depth:   payload[4],
		Index:   be32ToU32(payload[9:13]),
		Network: v.network,
		Hint:    v.hint,
	}
	copy(info.ParentFingerprint[:], payload[5:9])
	copy(info.ChainCode[:], payload[13:45])

	var priv curve.Privkey
	copy(priv[:], payload[46:78])

	return XPriv{Info: info, Privkey: priv, Backend: backend}, nil
}

// ParseXPub decodes a Base58Check-encoded extended public key string.
func ParseXPub(s string, backend curve.Backend) (XPub, error) {
	payload, err := base58CheckDecode(s)
	if err != nil {
		return XPub{}, err
	}
	return ParseXPubRaw(payload, backend)
}

func be32ToU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// base58CheckEncode appends a 4-byte SHA256d checksum and Base58-encodes
// the result, using btcutil's base58 alphabet (the same dependency the
// teacher wallet carries transitively through btcutil).
func base58CheckEncode(payload []byte) string {
	checksum := chainhash.DoubleHashB(payload)[:4]
	full := append(append([]byte{}, payload...), checksum...)
	return base58.Encode(full)
}

func base58CheckDecode(s string) ([]byte, error) {
	full := base58.Decode(s)
	if len(full) < 5 {
		return nil, btcerr.New(btcerr.InvalidBase58, "decoded payload too short")
	}
	payload := full[:len(full)-4]
	checksum := full[len(full)-4:]
	want := chainhash.DoubleHashB(payload)[:4]
	for i := range checksum {
		if checksum[i] != want[i] {
			return nil, btcerr.New(btcerr.BadChecksum, "base58check checksum mismatch")
		}
	}
	return payload, nil
}
