package tx

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/primitives"
	"github.com/arcsign/btcpsbt/pkg/script"
)

// LegacyTx is a non-segwit Bitcoin transaction.
type LegacyTx struct {
	Version  uint32
	Vin      []TxIn
	Vout     []script.TxOut
	Locktime uint32
}

// Clone returns a deep copy, used by the sighash preimage builders to
// mutate a working copy without touching the original transaction.
func (t LegacyTx) Clone() LegacyTx {
	vin := make([]TxIn, len(t.Vin))
	for i, in := range t.Vin {
		sig := make(script.ScriptSig, len(in.ScriptSig))
		copy(sig, in.ScriptSig)
		vin[i] = TxIn{Outpoint: in.Outpoint, ScriptSig: sig, Sequence: in.Sequence}
	}
	vout := make([]script.TxOut, len(t.Vout))
	for i, out := range t.Vout {
		pk := make(script.ScriptPubkey, len(out.ScriptPubkey))
		copy(pk, out.ScriptPubkey)
		vout[i] = script.TxOut{Value: out.Value, ScriptPubkey: pk}
	}
	return LegacyTx{Version: t.Version, Vin: vin, Vout: vout, Locktime: t.Locktime}
}

// Serialize writes the canonical legacy encoding: version (4B LE) ||
// varint(|vin|) || vin* || varint(|vout|) || vout* || locktime (4B LE).
func (t LegacyTx) Serialize(w io.Writer) error {
	var buf [4]byte
	putU32LE(buf[:], t.Version)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if err := primitives.WriteVarInt(w, uint64(len(t.Vin))); err != nil {
		return err
	}
	for _, in := range t.Vin {
		if err := in.Serialize(w); err != nil {
			return err
		}
	}
	if err := primitives.WriteVarInt(w, uint64(len(t.Vout))); err != nil {
		return err
	}
	for _, out := range t.Vout {
		if err := out.Serialize(w); err != nil {
			return err
		}
	}
	putU32LE(buf[:], t.Locktime)
	_, err := w.Write(buf[:])
	return err
}

// Bytes returns the canonical legacy-encoded bytes.
func (t LegacyTx) Bytes() []byte {
	var buf bytes.Buffer
	_ = t.Serialize(&buf)
	return buf.Bytes()
}

// DeserializeLegacyTx reads a LegacyTx from r.
func DeserializeLegacyTx(r io.Reader) (LegacyTx, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return LegacyTx{}, btcerr.Wrap(btcerr.UnexpectedEOF, "tx version", err)
	}
	version := getU32LE(buf[:])

	vinCount, err := primitives.ReadVarInt(r)
	if err != nil {
		return LegacyTx{}, err
	}
	vin := make([]TxIn, vinCount)
	for i := range vin {
		vin[i], err = DeserializeTxIn(r)
		if err != nil {
			return LegacyTx{}, err
		}
	}

	voutCount, err := primitives.ReadVarInt(r)
	if err != nil {
		return LegacyTx{}, err
	}
	vout := make([]script.TxOut, voutCount)
	for i := range vout {
		vout[i], err = script.DeserializeTxOut(r)
		if err != nil {
			return LegacyTx{}, err
		}
	}

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return LegacyTx{}, btcerr.Wrap(btcerr.UnexpectedEOF, "tx locktime", err)
	}
	locktime := getU32LE(buf[:])

	return LegacyTx{Version: version, Vin: vin, Vout: vout, Locktime: locktime}, nil
}

// ParseLegacyTx deserializes a LegacyTx from raw bytes.
func ParseLegacyTx(b []byte) (LegacyTx, error) {
	return DeserializeLegacyTx(bytes.NewReader(b))
}

// TXID is SHA256d over the legacy serialization, stored in the internal
// (non-reversed) byte order used throughout signing; display order
// reverses these bytes (spec §4.5, GLOSSARY).
func (t LegacyTx) TXID() [32]byte {
	var out [32]byte
	copy(out[:], chainhash.DoubleHashB(t.Bytes()))
	return out
}

// witnessMarker is the 2-byte segwit marker/flag sequence.
var witnessMarker = [2]byte{0x00, 0x01}

// WitnessTx is a segwit transaction: a LegacyTx plus one witness stack per
// input.
type WitnessTx struct {
	Version   uint32
	Vin       []TxIn
	Vout      []script.TxOut
	Witnesses [][]script.WitnessStackItem
	Locktime  uint32
}

// WithoutWitness returns the LegacyTx with identical fields, stripped of
// witness data — used to compute TXID.
func (t WitnessTx) WithoutWitness() LegacyTx {
	return LegacyTx{Version: t.Version, Vin: t.Vin, Vout: t.Vout, Locktime: t.Locktime}
}

// TXID overrides LegacyTx.TXID to exclude witnesses, per spec §4.5.
func (t WitnessTx) TXID() [32]byte {
	return t.WithoutWitness().TXID()
}

// WTXID is SHA256d over the full witness serialization.
func (t WitnessTx) WTXID() [32]byte {
	var out [32]byte
	copy(out[:], chainhash.DoubleHashB(t.Bytes()))
	return out
}

// Serialize writes version || 0x00 0x01 || vin || vout || witnesses ||
// locktime. A transaction with all-empty witnesses still serializes with
// the marker (spec §4.5): this implementation never optimizes that away,
// so round-trip exactness with externally-supplied bytes always holds.
func (t WitnessTx) Serialize(w io.Writer) error {
	var buf [4]byte
	putU32LE(buf[:], t.Version)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if _, err := w.Write(witnessMarker[:]); err != nil {
		return err
	}
	if err := primitives.WriteVarInt(w, uint64(len(t.Vin))); err != nil {
		return err
	}
	for _, in := range t.Vin {
		if err := in.Serialize(w); err != nil {
			return err
		}
	}
	if err := primitives.WriteVarInt(w, uint64(len(t.Vout))); err != nil {
		return err
	}
	for _, out := range t.Vout {
		if err := out.Serialize(w); err != nil {
			return err
		}
	}
	for _, wit := range t.Witnesses {
		if err := serializeWitness(w, wit); err != nil {
			return err
		}
	}
	putU32LE(buf[:], t.Locktime)
	_, err := w.Write(buf[:])
	return err
}

// Bytes returns the canonical witness-encoded bytes.
func (t WitnessTx) Bytes() []byte {
	var buf bytes.Buffer
	_ = t.Serialize(&buf)
	return buf.Bytes()
}

func serializeWitness(w io.Writer, items []script.WitnessStackItem) error {
	if err := primitives.WriteVarInt(w, uint64(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := primitives.WriteVector(w, item.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func deserializeWitness(r io.Reader) ([]script.WitnessStackItem, error) {
	n, err := primitives.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	items := make([]script.WitnessStackItem, n)
	for i := range items {
		b, err := primitives.ReadVector(r)
		if err != nil {
			return nil, err
		}
		items[i] = script.WitnessStackItem(b)
	}
	return items, nil
}

// DeserializeWitnessTx reads a WitnessTx from r. An unknown marker/flag is
// BadWitnessFlag (spec §4.5) — this signals the caller should instead
// parse the bytes as a LegacyTx.
func DeserializeWitnessTx(r io.Reader) (WitnessTx, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return WitnessTx{}, btcerr.Wrap(btcerr.UnexpectedEOF, "tx version", err)
	}
	version := getU32LE(buf[:])

	var flag [2]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return WitnessTx{}, btcerr.Wrap(btcerr.UnexpectedEOF, "witness marker/flag", err)
	}
	if flag != witnessMarker {
		return WitnessTx{}, &btcerr.Error{Kind: btcerr.BadWitnessFlag,
			Message: "marker/flag was not 00 01"}
	}

	vinCount, err := primitives.ReadVarInt(r)
	if err != nil {
		return WitnessTx{}, err
	}
	vin := make([]TxIn, vinCount)
	for i := range vin {
		vin[i], err = DeserializeTxIn(r)
		if err != nil {
			return WitnessTx{}, err
		}
	}

	voutCount, err := primitives.ReadVarInt(r)
	if err != nil {
		return WitnessTx{}, err
	}
	vout := make([]script.TxOut, voutCount)
	for i := range vout {
		vout[i], err = script.DeserializeTxOut(r)
		if err != nil {
			return WitnessTx{}, err
		}
	}

	witnesses := make([][]script.WitnessStackItem, vinCount)
	for i := range witnesses {
		witnesses[i], err = deserializeWitness(r)
		if err != nil {
			return WitnessTx{}, err
		}
	}

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return WitnessTx{}, btcerr.Wrap(btcerr.UnexpectedEOF, "tx locktime", err)
	}
	locktime := getU32LE(buf[:])

	return WitnessTx{
		Version: version, Vin: vin, Vout: vout,
		Witnesses: witnesses, Locktime: locktime,
	}, nil
}

// ParseWitnessTx deserializes a WitnessTx from raw bytes.
func ParseWitnessTx(b []byte) (WitnessTx, error) {
	return DeserializeWitnessTx(bytes.NewReader(b))
}
