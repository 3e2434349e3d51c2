package tx

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/primitives"
	"github.com/arcsign/btcpsbt/pkg/script"
)

// SighashFlag is a one-byte sighash mode, per spec §4.5. It is appended to
// signatures as a single byte but committed to as a u32 LE value inside
// the preimage.
type SighashFlag byte

const (
	SighashAll       SighashFlag = 0x01
	SighashNone      SighashFlag = 0x02
	SighashSingle    SighashFlag = 0x03
	AnyoneCanPayBit  SighashFlag = 0x80
	SighashAllACP    SighashFlag = SighashAll | AnyoneCanPayBit
	SighashNoneACP   SighashFlag = SighashNone | AnyoneCanPayBit
	SighashSingleACP SighashFlag = SighashSingle | AnyoneCanPayBit
)

// ParseSighashFlag validates a raw flag byte against the six supported
// modes; anything else is UnknownSighash.
func ParseSighashFlag(b byte) (SighashFlag, error) {
	switch SighashFlag(b) {
	case SighashAll, SighashNone, SighashSingle, SighashAllACP, SighashNoneACP, SighashSingleACP:
		return SighashFlag(b), nil
	default:
		return 0, btcerr.UnknownSighashErr(b)
	}
}

func (f SighashFlag) isAnyoneCanPay() bool { return f&AnyoneCanPayBit == AnyoneCanPayBit }
func (f SighashFlag) base() SighashFlag    { return f &^ AnyoneCanPayBit }

// LegacySighashArgs parameterizes the legacy sighash preimage.
type LegacySighashArgs struct {
	Index         int
	SighashFlag   SighashFlag
	PrevoutScript script.Script
}

// WitnessSighashArgs parameterizes the BIP143 sighash preimage.
type WitnessSighashArgs struct {
	Index         int
	SighashFlag   SighashFlag
	PrevoutScript script.Script
	PrevoutValue  uint64
}

func sha256d(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], chainhash.DoubleHashB(b))
	return out
}

// legacySighashPrep clones t and sets every input's script_sig to empty
// except the input at index, which gets prevoutScript (raw, not
// varint-prefixed internally — WriteVector adds the prefix when the
// cloned input is later serialized).
func legacySighashPrep(t LegacyTx, index int, prevoutScript script.Script) LegacyTx {
	copyTx := t.Clone()
	for i := range copyTx.Vin {
		if i == index {
			sig := make(script.ScriptSig, len(prevoutScript))
			copy(sig, prevoutScript)
			copyTx.Vin[i].ScriptSig = sig
		} else {
			copyTx.Vin[i].ScriptSig = script.ScriptSig{}
		}
	}
	return copyTx
}

func legacySighashSingle(copyTx *LegacyTx, index int) {
	outs := make([]script.TxOut, index+1)
	for i := 0; i < index; i++ {
		outs[i] = script.NullTxOut()
	}
	outs[index] = copyTx.Vout[index]
	copyTx.Vout = outs

	for i := range copyTx.Vin {
		if i != index {
			copyTx.Vin[i].Sequence = 0
		}
	}
}

func legacySighashAnyoneCanPay(copyTx *LegacyTx, index int) {
	copyTx.Vin = []TxIn{copyTx.Vin[index]}
}

// WriteLegacySighashPreimage implements spec §4.5's legacy preimage
// algorithm. OP_CODESEPARATOR handling is not provided: callers pass a
// pre-cut prevout script if one is needed.
func (t LegacyTx) WriteLegacySighashPreimage(args LegacySighashArgs) ([]byte, error) {
	if _, err := ParseSighashFlag(byte(args.SighashFlag)); err != nil {
		return nil, err
	}
	if args.SighashFlag.base() == SighashNone {
		return nil, btcerr.New(btcerr.NoneUnsupported, "SIGHASH_NONE is not supported")
	}

	copyTx := legacySighashPrep(t, args.Index, args.PrevoutScript)

	if args.SighashFlag.base() == SighashSingle {
		if args.Index >= len(t.Vout) {
			return nil, btcerr.New(btcerr.SighashSingleBug, "SIGHASH_SINGLE index exceeds outputs")
		}
		legacySighashSingle(&copyTx, args.Index)
	}

	if args.SighashFlag.isAnyoneCanPay() {
		legacySighashAnyoneCanPay(&copyTx, args.Index)
	}

	var buf bytes.Buffer
	if err := copyTx.Serialize(&buf); err != nil {
		return nil, err
	}
	var flagBuf [4]byte
	putU32LE(flagBuf[:], uint32(args.SighashFlag))
	buf.Write(flagBuf[:])

	return buf.Bytes(), nil
}

// LegacySighash computes SHA256d of the legacy sighash preimage.
func (t LegacyTx) LegacySighash(args LegacySighashArgs) ([32]byte, error) {
	preimage, err := t.WriteLegacySighashPreimage(args)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256d(preimage), nil
}

// hashPrevouts implements BIP143's hash_prevouts.
func (t WitnessTx) hashPrevouts(flag SighashFlag) [32]byte {
	if flag.isAnyoneCanPay() {
		return [32]byte{}
	}
	var buf bytes.Buffer
	for _, in := range t.Vin {
		_ = in.Outpoint.Serialize(&buf)
	}
	return sha256d(buf.Bytes())
}

// hashSequence implements BIP143's hash_sequence.
func (t WitnessTx) hashSequence(flag SighashFlag) [32]byte {
	if flag.base() == SighashSingle || flag.isAnyoneCanPay() {
		return [32]byte{}
	}
	var buf bytes.Buffer
	for _, in := range t.Vin {
		var seq [4]byte
		putU32LE(seq[:], in.Sequence)
		buf.Write(seq[:])
	}
	return sha256d(buf.Bytes())
}

// hashOutputs implements BIP143's hash_outputs.
func (t WitnessTx) hashOutputs(index int, flag SighashFlag) [32]byte {
	switch flag.base() {
	case SighashAll:
		var buf bytes.Buffer
		for _, out := range t.Vout {
			_ = out.Serialize(&buf)
		}
		return sha256d(buf.Bytes())
	case SighashSingle:
		if index >= len(t.Vout) {
			return [32]byte{}
		}
		var buf bytes.Buffer
		_ = t.Vout[index].Serialize(&buf)
		return sha256d(buf.Bytes())
	default:
		return [32]byte{}
	}
}

// WriteWitnessSighashPreimage implements the BIP143 preimage algorithm
// from spec §4.5. hash_prevouts/hash_sequence/hash_outputs are recomputed
// here on every call; callers signing many inputs of the same transaction
// should memoize them externally keyed by (txid, sighash mode bits), as
// recommended in spec §9 and original_source's TODO comments on the
// equivalent Rust methods.
func (t WitnessTx) WriteWitnessSighashPreimage(args WitnessSighashArgs) ([]byte, error) {
	if _, err := ParseSighashFlag(byte(args.SighashFlag)); err != nil {
		return nil, err
	}
	if args.SighashFlag.base() == SighashNone {
		return nil, btcerr.New(btcerr.NoneUnsupported, "SIGHASH_NONE is not supported")
	}
	if args.SighashFlag.base() == SighashSingle && args.Index >= len(t.Vout) {
		return nil, btcerr.New(btcerr.SighashSingleBug, "SIGHASH_SINGLE index exceeds outputs")
	}

	input := t.Vin[args.Index]

	var buf bytes.Buffer
	var u32 [4]byte
	putU32LE(u32[:], t.Version)
	buf.Write(u32[:])

	hp := t.hashPrevouts(args.SighashFlag)
	buf.Write(hp[:])
	hs := t.hashSequence(args.SighashFlag)
	buf.Write(hs[:])

	if err := input.Outpoint.Serialize(&buf); err != nil {
		return nil, err
	}

	if err := primitives.WriteVector(&buf, args.PrevoutScript.Bytes()); err != nil {
		return nil, err
	}

	var u64 [8]byte
	putU64LE(u64[:], args.PrevoutValue)
	buf.Write(u64[:])

	putU32LE(u32[:], input.Sequence)
	buf.Write(u32[:])

	ho := t.hashOutputs(args.Index, args.SighashFlag)
	buf.Write(ho[:])

	putU32LE(u32[:], t.Locktime)
	buf.Write(u32[:])

	putU32LE(u32[:], uint32(args.SighashFlag))
	buf.Write(u32[:])

	return buf.Bytes(), nil
}

// WitnessSighash computes SHA256d of the BIP143 sighash preimage.
func (t WitnessTx) WitnessSighash(args WitnessSighashArgs) ([32]byte, error) {
	preimage, err := t.WriteWitnessSighashPreimage(args)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256d(preimage), nil
}

func putU64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
