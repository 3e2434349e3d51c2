// Package tx implements canonical Bitcoin transaction (de)serialization
// (legacy and segwit) and the legacy / BIP143 sighash preimage algorithms.
package tx

import (
	"io"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/primitives"
	"github.com/arcsign/btcpsbt/pkg/script"
)

// OutPoint identifies the previous output an input spends: a 32-byte txid
// (stored little-endian, as it appears inside transactions) and a 4-byte
// output index.
type OutPoint struct {
	TxID [32]byte
	Vout uint32
}

// Serialize writes the 36-byte outpoint: txid (32B) || vout (4B LE).
func (o OutPoint) Serialize(w io.Writer) error {
	if _, err := w.Write(o.TxID[:]); err != nil {
		return err
	}
	var buf [4]byte
	putU32LE(buf[:], o.Vout)
	_, err := w.Write(buf[:])
	return err
}

// DeserializeOutPoint reads a 36-byte outpoint from r.
func DeserializeOutPoint(r io.Reader) (OutPoint, error) {
	var o OutPoint
	if _, err := io.ReadFull(r, o.TxID[:]); err != nil {
		return OutPoint{}, btcerr.Wrap(btcerr.UnexpectedEOF, "outpoint txid", err)
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return OutPoint{}, btcerr.Wrap(btcerr.UnexpectedEOF, "outpoint vout", err)
	}
	o.Vout = getU32LE(buf[:])
	return o, nil
}

// TxIn is a transaction input: outpoint, script_sig, and sequence.
type TxIn struct {
	Outpoint  OutPoint
	ScriptSig script.ScriptSig
	Sequence  uint32
}

// Serialize writes outpoint (36B) || varint-prefixed script_sig ||
// sequence (4B LE).
func (in TxIn) Serialize(w io.Writer) error {
	if err := in.Outpoint.Serialize(w); err != nil {
		return err
	}
	if err := primitives.WriteVector(w, in.ScriptSig.Bytes()); err != nil {
		return err
	}
	var buf [4]byte
	putU32LE(buf[:], in.Sequence)
	_, err := w.Write(buf[:])
	return err
}

// DeserializeTxIn reads a TxIn from r.
func DeserializeTxIn(r io.Reader) (TxIn, error) {
	outpoint, err := DeserializeOutPoint(r)
	if err != nil {
		return TxIn{}, err
	}
	sigScript, err := primitives.ReadVector(r)
	if err != nil {
		return TxIn{}, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return TxIn{}, btcerr.Wrap(btcerr.UnexpectedEOF, "txin sequence", err)
	}
	return TxIn{
		Outpoint:  outpoint,
		ScriptSig: script.ScriptSig(sigScript),
		Sequence:  getU32LE(buf[:]),
	}, nil
}

func putU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
