// Package psbt implements the BIP174 Partially Signed Bitcoin Transaction
// map model: ordered key-value maps, schema validation, and the
// Creator/Updater/Signer/Finalizer/Extractor/Combiner role transitions.
package psbt

import (
	"bytes"
	"io"
	"sort"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/primitives"
)

// Key is a raw PSBT map key: a single key_type byte followed by
// key-type-specific key data (often a pubkey or script hash).
type Key []byte

// KeyType returns the first byte of the key, or 0 for an empty key.
func (k Key) KeyType() byte {
	if len(k) == 0 {
		return 0
	}
	return k[0]
}

// KeyData returns the bytes after the key_type byte.
func (k Key) KeyData() []byte {
	if len(k) <= 1 {
		return nil
	}
	return k[1:]
}

// SingleByteKey builds a Key consisting of just a key_type byte.
func SingleByteKey(keyType byte) Key { return Key{keyType} }

// KeyWithData builds a Key from a key_type byte plus key data.
func KeyWithData(keyType byte, data []byte) Key {
	k := make(Key, 0, 1+len(data))
	k = append(k, keyType)
	k = append(k, data...)
	return k
}

// PSTMap is an ordered key-value map as described in spec §4.6: keys are
// unique within a map, and are serialized in ascending byte-lex order.
type PSTMap struct {
	entries map[string][]byte
}

// NewPSTMap returns an empty map.
func NewPSTMap() *PSTMap {
	return &PSTMap{entries: make(map[string][]byte)}
}

// Get returns the value at key, if present.
func (m *PSTMap) Get(key Key) ([]byte, bool) {
	v, ok := m.entries[string(key)]
	return v, ok
}

// MustGet returns the value at key, or MissingKey if absent.
func (m *PSTMap) MustGet(key Key) ([]byte, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, btcerr.New(btcerr.MissingKey, "no value for requested key")
	}
	return v, nil
}

// ContainsKey reports whether key is present.
func (m *PSTMap) ContainsKey(key Key) bool {
	_, ok := m.entries[string(key)]
	return ok
}

// Insert sets key to val, overwriting any existing value. Used by the
// Creator/Updater/Signer roles, which are idempotent by design.
func (m *PSTMap) Insert(key Key, val []byte) {
	m.entries[string(key)] = val
}

// Remove deletes key, if present.
func (m *PSTMap) Remove(key Key) {
	delete(m.entries, string(key))
}

// Len returns the number of entries.
func (m *PSTMap) Len() int { return len(m.entries) }

// SortedKeys returns every key in ascending byte-lex order.
func (m *PSTMap) SortedKeys() []Key {
	keys := make([]Key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, Key(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	return keys
}

// RangeByKeyType returns every (key, value) pair whose key_type matches,
// in byte-lex key order.
func (m *PSTMap) RangeByKeyType(keyType byte) []KV {
	var out []KV
	for _, k := range m.SortedKeys() {
		if k.KeyType() == keyType {
			v, _ := m.Get(k)
			out = append(out, KV{Key: k, Value: v})
		}
	}
	return out
}

// KV is a single key-value pair.
type KV struct {
	Key   Key
	Value []byte
}

// All returns every (key, value) pair in byte-lex key order.
func (m *PSTMap) All() []KV {
	keys := m.SortedKeys()
	out := make([]KV, len(keys))
	for i, k := range keys {
		v, _ := m.Get(k)
		out[i] = KV{Key: k, Value: v}
	}
	return out
}

// Merge unions other's entries into m. A key present in both maps with
// differing values is MismatchedValue; an identical value is a no-op.
func (m *PSTMap) Merge(other *PSTMap) error {
	for _, kv := range other.All() {
		if existing, ok := m.Get(kv.Key); ok {
			if !bytes.Equal(existing, kv.Value) {
				return btcerr.New(btcerr.MismatchedValue, "conflicting values for the same PSBT key")
			}
			continue
		}
		m.Insert(kv.Key, kv.Value)
	}
	return nil
}

// Clone returns a deep copy.
func (m *PSTMap) Clone() *PSTMap {
	out := NewPSTMap()
	for k, v := range m.entries {
		val := make([]byte, len(v))
		copy(val, v)
		out.entries[k] = val
	}
	return out
}

// Serialize writes every entry in byte-lex key order, each as
// varint(len(key)) || key || varint(len(value)) || value, terminated by a
// single zero byte (a zero-length key).
func (m *PSTMap) Serialize(w io.Writer) error {
	for _, kv := range m.All() {
		if err := primitives.WriteVector(w, kv.Key); err != nil {
			return err
		}
		if err := primitives.WriteVector(w, kv.Value); err != nil {
			return err
		}
	}
	return primitives.WriteVarInt(w, 0)
}

// DeserializeMap reads entries until a zero-length key terminates the map.
// A repeated key is DuplicateKey.
func DeserializeMap(r io.Reader) (*PSTMap, error) {
	m := NewPSTMap()
	for {
		key, err := primitives.ReadVector(r)
		if err != nil {
			return nil, err
		}
		if len(key) == 0 {
			return m, nil
		}
		val, err := primitives.ReadVector(r)
		if err != nil {
			return nil, err
		}
		if m.ContainsKey(Key(key)) {
			return nil, btcerr.New(btcerr.DuplicateKey, "duplicate key within a PSBT map")
		}
		m.Insert(Key(key), val)
	}
}
