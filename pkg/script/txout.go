package script

import (
	"bytes"
	"io"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/primitives"
)

// TxOut is a transaction output: value (u64 LE, satoshis) and a
// varint-prefixed script_pubkey.
type TxOut struct {
	Value        uint64
	ScriptPubkey ScriptPubkey
}

// NullValue is the sentinel value used by NullTxOut, Bitcoin's
// representation of "no value" (all bits set).
const NullValue = ^uint64(0)

// NullTxOut returns the null output used inside the legacy SIGHASH_SINGLE
// preimage for every output below the signed index (spec §3, §4.5).
func NullTxOut() TxOut {
	return TxOut{Value: NullValue, ScriptPubkey: ScriptPubkey{}}
}

// Serialize writes value (8B LE) || varint-prefixed script_pubkey.
func (o TxOut) Serialize(w io.Writer) error {
	var buf [8]byte
	putU64LE(buf[:], o.Value)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	return primitives.WriteVector(w, o.ScriptPubkey.Bytes())
}

// SerializedLen returns the number of bytes Serialize would write.
func (o TxOut) SerializedLen() int {
	return 8 + primitives.VarIntLen(uint64(len(o.ScriptPubkey))) + len(o.ScriptPubkey)
}

// DeserializeTxOut reads a TxOut from r.
func DeserializeTxOut(r io.Reader) (TxOut, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return TxOut{}, btcerr.Wrap(btcerr.UnexpectedEOF, "txout value", err)
	}
	value := getU64LE(buf[:])
	pk, err := primitives.ReadVector(r)
	if err != nil {
		return TxOut{}, err
	}
	return TxOut{Value: value, ScriptPubkey: ScriptPubkey(pk)}, nil
}

// ParseTxOut deserializes a TxOut from raw bytes, the form PSBT's witness
// UTXO field embeds (spec §4.6).
func ParseTxOut(b []byte) (TxOut, error) {
	return DeserializeTxOut(bytes.NewReader(b))
}

// SerializeWitnessStack writes a witness stack as varint(count) followed
// by each item as a length-prefixed vector — the same shape a WitnessTx
// uses per input, reused here for PSBT's finalized-witness field.
func SerializeWitnessStack(items []WitnessStackItem) []byte {
	var buf bytes.Buffer
	_ = primitives.WriteVarInt(&buf, uint64(len(items)))
	for _, item := range items {
		_ = primitives.WriteVector(&buf, item.Bytes())
	}
	return buf.Bytes()
}

// ParseWitnessStack reads the format SerializeWitnessStack writes.
func ParseWitnessStack(b []byte) ([]WitnessStackItem, error) {
	r := bytes.NewReader(b)
	n, err := primitives.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	items := make([]WitnessStackItem, n)
	for i := range items {
		item, err := primitives.ReadVector(r)
		if err != nil {
			return nil, err
		}
		items[i] = WitnessStackItem(item)
	}
	return items, nil
}

func putU64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getU64LE(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
