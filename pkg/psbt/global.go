package psbt

import (
	"encoding/binary"

	"github.com/arcsign/btcpsbt/pkg/bip32"
	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/curve"
	"github.com/arcsign/btcpsbt/pkg/tx"
)

// Global wraps a PSTMap with typed accessors for the PSBT global map
// (spec §4.6): the unsigned tx, any xpubs, and the PSBT version.
type Global struct {
	Map *PSTMap
}

// ConsistencyChecks enforces the two mandatory global entries: exactly one
// unsigned tx, and exactly one version.
func (g Global) ConsistencyChecks() error {
	if !g.Map.ContainsKey(SingleByteKey(GlobalUnsignedTx)) {
		return btcerr.New(btcerr.InvalidPSBT, "global map is missing the unsigned tx")
	}
	if !g.Map.ContainsKey(SingleByteKey(GlobalVersion)) {
		return btcerr.New(btcerr.InvalidPSBT, "global map is missing the version")
	}
	return nil
}

// TxBytes returns the raw serialized unsigned tx.
func (g Global) TxBytes() ([]byte, error) {
	return g.Map.MustGet(SingleByteKey(GlobalUnsignedTx))
}

// Tx deserializes the global unsigned tx.
func (g Global) Tx() (tx.LegacyTx, error) {
	b, err := g.TxBytes()
	if err != nil {
		return tx.LegacyTx{}, err
	}
	return tx.ParseLegacyTx(b)
}

// SetTx installs t as the unsigned tx, stripping every input's script_sig
// first — the unsigned tx a PSBT carries is always pre-signature (spec
// §4.6).
func (g Global) SetTx(t tx.LegacyTx) {
	unsigned := t.Clone()
	for i := range unsigned.Vin {
		unsigned.Vin[i].ScriptSig = nil
	}
	g.Map.Insert(SingleByteKey(GlobalUnsignedTx), unsigned.Bytes())
}

// Xpubs returns every PSBT_GLOBAL_XPUB entry, in byte-lex key order.
func (g Global) Xpubs() []KV {
	return g.Map.RangeByKeyType(GlobalXpub)
}

// InsertXpub records an extended public key and the derivation that
// reached it from some root.
func (g Global) InsertXpub(xpub bip32.XPub, derivation bip32.KeyDerivation) error {
	raw, err := xpub.SerializeRaw()
	if err != nil {
		return err
	}
	key := KeyWithData(GlobalXpub, raw[:])
	g.Map.Insert(key, encodeKeyDerivation(derivation))
	return nil
}

// DerivedXPub pairs a parsed XPub with its KeyDerivation, the result of
// ParsedXpubs.
type DerivedXPub struct {
	XPub       bip32.XPub
	Derivation bip32.KeyDerivation
}

// ParsedXpubs parses every xpub entry into a DerivedXPub.
func (g Global) ParsedXpubs(backend curve.Backend) ([]DerivedXPub, error) {
	entries := g.Xpubs()
	out := make([]DerivedXPub, 0, len(entries))
	for _, kv := range entries {
		xpub, err := bip32.ParseXPubRaw(kv.Key.KeyData(), backend)
		if err != nil {
			return nil, err
		}
		deriv, err := decodeKeyDerivation(kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, DerivedXPub{XPub: xpub, Derivation: deriv})
	}
	return out, nil
}

// Version returns the PSBT version, or 0 if absent.
func (g Global) Version() (uint32, error) {
	v, ok := g.Map.Get(SingleByteKey(GlobalVersion))
	if !ok {
		return 0, nil
	}
	if len(v) != 4 {
		return 0, btcerr.WrongValueLengthErr(4, len(v))
	}
	return binary.LittleEndian.Uint32(v), nil
}

// SetVersion installs the PSBT version field.
func (g Global) SetVersion(version uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], version)
	g.Map.Insert(SingleByteKey(GlobalVersion), b[:])
}
