package psbt

import (
	"encoding/binary"

	"github.com/arcsign/btcpsbt/pkg/bip32"
	"github.com/arcsign/btcpsbt/pkg/btcerr"
)

// encodeKeyDerivation writes a bip32.KeyDerivation as BIP174's value
// format: a 4-byte root fingerprint followed by each path index as a
// little-endian u32, parent to child. This differs from the big-endian
// index field inside a serialized extended key (spec §4.3) — BIP174
// fixes little-endian for derivation values specifically.
func encodeKeyDerivation(d bip32.KeyDerivation) []byte {
	out := make([]byte, 0, 4+4*len(d.Path))
	out = append(out, d.RootFingerprint[:]...)
	for _, idx := range d.Path {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], idx)
		out = append(out, b[:]...)
	}
	return out
}

// decodeKeyDerivation parses the value format encodeKeyDerivation writes.
// validateBIP32Value must be applied first to guarantee len(val) is a
// valid (0 or multiple-of-4) shape beyond the 4-byte fingerprint prefix.
func decodeKeyDerivation(val []byte) (bip32.KeyDerivation, error) {
	if len(val) < 4 {
		return bip32.KeyDerivation{}, btcerr.New(btcerr.InvalidBIP32Path, "derivation value shorter than a fingerprint")
	}
	var d bip32.KeyDerivation
	copy(d.RootFingerprint[:], val[:4])
	rest := val[4:]
	if len(rest)%4 != 0 {
		return bip32.KeyDerivation{}, btcerr.New(btcerr.InvalidBIP32Path, "derivation path is not a whole number of indices")
	}
	d.Path = make(bip32.Path, len(rest)/4)
	for i := range d.Path {
		d.Path[i] = binary.LittleEndian.Uint32(rest[i*4 : i*4+4])
	}
	return d, nil
}
