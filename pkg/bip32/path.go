package bip32

import (
	"strconv"
	"strings"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
)

// HardenedBit is added to an index to mark it hardened, per BIP32.
const HardenedBit = uint32(1) << 31

// Path is an ordered sequence of BIP32 child indices. A path element i is
// hardened iff i >= HardenedBit.
type Path []uint32

// ParsePath parses the `m(/<index>['h])*` syntax from spec §4.3. An empty
// string or "m" parses to the empty (self) path. Non-numeric segments or
// raw indices >= 2^31 before hardening is applied are InvalidPath.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "m" {
		return Path{}, nil
	}
	segments := strings.Split(s, "/")
	if segments[0] == "m" {
		segments = segments[1:]
	} else {
		return nil, btcerr.New(btcerr.InvalidPath, "path must start with m")
	}
	path := make(Path, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, btcerr.New(btcerr.InvalidPath, "empty path segment")
		}
		hardened := false
		if strings.HasSuffix(seg, "'") || strings.HasSuffix(seg, "h") || strings.HasSuffix(seg, "H") {
			hardened = true
			seg = seg[:len(seg)-1]
		}
		n, err := strconv.ParseUint(seg, 10, 64)
		if err != nil {
			return nil, btcerr.Wrap(btcerr.InvalidPath, "non-numeric path segment", err)
		}
		if n >= uint64(HardenedBit) {
			return nil, btcerr.New(btcerr.InvalidPath, "index out of range before hardening")
		}
		index := uint32(n)
		if hardened {
			index += HardenedBit
		}
		path = append(path, index)
	}
	return path, nil
}

// String renders the path back to `m/...` syntax, using the `'` hardened
// marker.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range p {
		b.WriteString("/")
		if idx >= HardenedBit {
			b.WriteString(strconv.FormatUint(uint64(idx-HardenedBit), 10))
			b.WriteString("'")
		} else {
			b.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	}
	return b.String()
}

// HasHardened reports whether any element of the path is hardened.
func (p Path) HasHardened() bool {
	for _, idx := range p {
		if idx >= HardenedBit {
			return true
		}
	}
	return false
}

// IsPrefixOf reports whether p is an element-wise prefix of other.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p) > len(other) {
		return false
	}
	for i, idx := range p {
		if other[i] != idx {
			return false
		}
	}
	return true
}

// Equal reports element-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i, idx := range p {
		if other[i] != idx {
			return false
		}
	}
	return true
}
