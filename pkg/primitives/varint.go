// Package primitives implements the small binary building blocks shared by
// the transaction and PSBT codecs: the Bitcoin compact-size varint, and
// length-prefixed byte vectors built on top of it.
package primitives

import (
	"encoding/binary"
	"io"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
)

// WriteVarInt encodes n as a Bitcoin compact-size integer:
// 0-0xFC fits in one byte; 0xFD + u16 LE; 0xFE + u32 LE; 0xFF + u64 LE.
// Always emits the minimal form, matching new-construction semantics.
func WriteVarInt(w io.Writer, n uint64) error {
	var buf [9]byte
	switch {
	case n <= 0xfc:
		buf[0] = byte(n)
		_, err := w.Write(buf[:1])
		return err
	case n <= 0xffff:
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:3], uint16(n))
		_, err := w.Write(buf[:3])
		return err
	case n <= 0xffffffff:
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:5], uint32(n))
		_, err := w.Write(buf[:5])
		return err
	default:
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:9], n)
		_, err := w.Write(buf[:9])
		return err
	}
}

// ReadVarInt decodes a Bitcoin compact-size integer. It accepts non-minimal
// encodings on parse (spec §9: permissive when parsing ambient bytes such
// as a PSBT received over the wire).
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, btcerr.Wrap(btcerr.UnexpectedEOF, "varint prefix", err)
	}
	switch prefix[0] {
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, btcerr.Wrap(btcerr.UnexpectedEOF, "varint u16 body", err)
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, btcerr.Wrap(btcerr.UnexpectedEOF, "varint u32 body", err)
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, btcerr.Wrap(btcerr.UnexpectedEOF, "varint u64 body", err)
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// VarIntLen returns the number of bytes WriteVarInt would emit for n.
func VarIntLen(n uint64) int {
	switch {
	case n <= 0xfc:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// MaxVectorLen caps length-prefixed vectors read from untrusted bytes so a
// corrupt varint cannot trigger an unbounded allocation.
const MaxVectorLen = 0x02000000 // 32 MiB, generous over any real script/tx field

// WriteVector writes a length-prefixed byte vector: varint(len) || bytes.
func WriteVector(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVector reads a length-prefixed byte vector.
func ReadVector(r io.Reader) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n > MaxVectorLen {
		return nil, btcerr.New(btcerr.VarintTooLarge, "vector length exceeds maximum")
	}
	out := make([]byte, n)
	if n == 0 {
		return out, nil
	}
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, btcerr.Wrap(btcerr.UnexpectedEOF, "vector body", err)
	}
	return out, nil
}
