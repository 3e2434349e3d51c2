package psbt

import (
	"bytes"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/script"
	"github.com/arcsign/btcpsbt/pkg/tx"
)

// KVPredicate validates one key-value pair, per spec §4.6.
type KVPredicate func(key Key, val []byte) error

// KVTypeSchema maps key_type to the predicates registered for it. Insert
// composes: a second predicate for the same key_type runs after the first,
// and the first failure wins (mirroring schema.rs's insert-composition
// pattern).
type KVTypeSchema struct {
	predicates map[byte][]KVPredicate
}

// NewKVTypeSchema returns an empty schema.
func NewKVTypeSchema() *KVTypeSchema {
	return &KVTypeSchema{predicates: make(map[byte][]KVPredicate)}
}

// Insert registers pred for keyType, composing with any predicate already
// registered for that type.
func (s *KVTypeSchema) Insert(keyType byte, pred KVPredicate) {
	s.predicates[keyType] = append(s.predicates[keyType], pred)
}

// Validate runs every registered predicate over every entry of m whose
// key_type it applies to. Unknown key_types are accepted unvalidated,
// for forward compatibility.
func (s *KVTypeSchema) Validate(m *PSTMap) error {
	for _, kv := range m.All() {
		for _, pred := range s.predicates[kv.Key.KeyType()] {
			if err := pred(kv.Key, kv.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateBIP32Value checks that a value can be interpreted as a 4-byte
// fingerprint followed by a (possibly empty) list of 4-byte path indices.
func validateBIP32Value(_ Key, val []byte) error {
	if len(val) < 4 || len(val)%4 != 0 {
		return btcerr.New(btcerr.InvalidBIP32Path, "bip32 derivation value is not a fingerprint plus whole 4-byte indices")
	}
	return nil
}

func validateFixedKeyLength(key Key, length int) error {
	if len(key) != length {
		return btcerr.WrongKeyLengthErr(length, len(key))
	}
	return nil
}

func validateFixedValLength(val []byte, length int) error {
	if len(val) != length {
		return btcerr.WrongValueLengthErr(length, len(val))
	}
	return nil
}

func validateSingleByteKeyType(key Key, _ []byte) error {
	return validateFixedKeyLength(key, 1)
}

func validateExpectedKeyType(key Key, keyType byte) error {
	if key.KeyType() != keyType {
		return btcerr.WrongKeyTypeErr(keyType, key.KeyType())
	}
	return nil
}

func validateTxValue(_ Key, val []byte) error {
	_, err := tx.ParseLegacyTx(val)
	if err != nil {
		return btcerr.Wrap(btcerr.InvalidPSBT, "global unsigned tx does not parse", err)
	}
	return nil
}

func validateTxOutValue(_ Key, val []byte) error {
	_, err := script.DeserializeTxOut(bytes.NewReader(val))
	if err != nil {
		return btcerr.Wrap(btcerr.InvalidPSBT, "witness utxo does not parse", err)
	}
	return nil
}

// GlobalStandardSchema is the standard validation schema for a global map:
// the unsigned tx is a well-formed, single-byte-keyed LegacyTx; xpub keys
// are 79 bytes with a valid bip32 value; version is a single-byte key with
// a 4-byte value.
func GlobalStandardSchema() *KVTypeSchema {
	s := NewKVTypeSchema()
	s.Insert(GlobalUnsignedTx, func(k Key, v []byte) error {
		if err := validateExpectedKeyType(k, GlobalUnsignedTx); err != nil {
			return err
		}
		if err := validateSingleByteKeyType(k, v); err != nil {
			return err
		}
		return validateTxValue(k, v)
	})
	s.Insert(GlobalXpub, func(k Key, v []byte) error {
		if err := validateExpectedKeyType(k, GlobalXpub); err != nil {
			return err
		}
		if err := validateFixedKeyLength(k, 79); err != nil {
			return err
		}
		return validateBIP32Value(k, v)
	})
	s.Insert(GlobalVersion, func(k Key, v []byte) error {
		if err := validateExpectedKeyType(k, GlobalVersion); err != nil {
			return err
		}
		if err := validateSingleByteKeyType(k, v); err != nil {
			return err
		}
		return validateFixedValLength(v, 4)
	})
	return s
}

// InputStandardSchema is the standard validation schema for an input map:
// bip32 derivation keys are 34 bytes (1 type + 33-byte pubkey) with a
// valid bip32 value; witness utxo values parse as a TxOut.
func InputStandardSchema() *KVTypeSchema {
	s := NewKVTypeSchema()
	s.Insert(InputBIP32Derivation, func(k Key, v []byte) error {
		if err := validateExpectedKeyType(k, InputBIP32Derivation); err != nil {
			return err
		}
		if err := validateFixedKeyLength(k, 34); err != nil {
			return err
		}
		return validateBIP32Value(k, v)
	})
	s.Insert(InputWitnessUTXO, func(k Key, v []byte) error {
		if err := validateExpectedKeyType(k, InputWitnessUTXO); err != nil {
			return err
		}
		return validateTxOutValue(k, v)
	})
	return s
}

// OutputStandardSchema is the standard validation schema for an output
// map: bip32 derivation keys are 34 bytes with a valid bip32 value.
func OutputStandardSchema() *KVTypeSchema {
	s := NewKVTypeSchema()
	s.Insert(OutputBIP32Derivation, func(k Key, v []byte) error {
		if err := validateExpectedKeyType(k, OutputBIP32Derivation); err != nil {
			return err
		}
		if err := validateFixedKeyLength(k, 34); err != nil {
			return err
		}
		return validateBIP32Value(k, v)
	})
	return s
}
