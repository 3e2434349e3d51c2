package psbt

import (
	"bytes"
	"encoding/binary"

	"github.com/arcsign/btcpsbt/pkg/bip32"
	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/script"
	"github.com/arcsign/btcpsbt/pkg/tx"
)

// Input wraps a PSTMap with typed accessors for a PSBT input map
// (spec §4.6).
type Input struct {
	Map *PSTMap
}

// NonWitnessUTXO returns the full previous transaction, if present.
func (in Input) NonWitnessUTXO() (tx.LegacyTx, bool, error) {
	b, ok := in.Map.Get(SingleByteKey(InputNonWitnessUTXO))
	if !ok {
		return tx.LegacyTx{}, false, nil
	}
	t, err := tx.ParseLegacyTx(b)
	return t, true, err
}

// SetNonWitnessUTXO installs the full previous transaction.
func (in Input) SetNonWitnessUTXO(prev tx.LegacyTx) {
	in.Map.Insert(SingleByteKey(InputNonWitnessUTXO), prev.Bytes())
}

// WitnessUTXO returns the single spent output, if present.
func (in Input) WitnessUTXO() (script.TxOut, bool, error) {
	b, ok := in.Map.Get(SingleByteKey(InputWitnessUTXO))
	if !ok {
		return script.TxOut{}, false, nil
	}
	out, err := script.ParseTxOut(b)
	return out, true, err
}

// SetWitnessUTXO installs the single spent output.
func (in Input) SetWitnessUTXO(out script.TxOut) {
	var buf bytes.Buffer
	_ = out.Serialize(&buf)
	in.Map.Insert(SingleByteKey(InputWitnessUTXO), buf.Bytes())
}

// PartialSig is one signer's contribution: a compressed pubkey and the
// DER-encoded signature with its trailing sighash-flag byte.
type PartialSig struct {
	Pubkey    curveCompressedKey
	Signature []byte
}

type curveCompressedKey = [33]byte

// PartialSigs returns every partial signature recorded for this input.
func (in Input) PartialSigs() []PartialSig {
	entries := in.Map.RangeByKeyType(InputPartialSig)
	out := make([]PartialSig, 0, len(entries))
	for _, kv := range entries {
		var pk curveCompressedKey
		copy(pk[:], kv.Key.KeyData())
		out = append(out, PartialSig{Pubkey: pk, Signature: kv.Value})
	}
	return out
}

// AddPartialSig records a signature by pk over this input, DER-encoded
// with the sighash flag byte already appended.
func (in Input) AddPartialSig(pk curveCompressedKey, derSigWithFlag []byte) {
	in.Map.Insert(KeyWithData(InputPartialSig, pk[:]), derSigWithFlag)
}

// SighashType returns the sighash flag recorded for this input, if any.
func (in Input) SighashType() (tx.SighashFlag, bool, error) {
	v, ok := in.Map.Get(SingleByteKey(InputSighashType))
	if !ok {
		return 0, false, nil
	}
	if len(v) != 4 {
		return 0, false, btcerr.WrongValueLengthErr(4, len(v))
	}
	flag, err := tx.ParseSighashFlag(byte(binary.LittleEndian.Uint32(v)))
	return flag, true, err
}

// SetSighashType installs the sighash flag this input must be signed
// under.
func (in Input) SetSighashType(flag tx.SighashFlag) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(flag))
	in.Map.Insert(SingleByteKey(InputSighashType), b[:])
}

// RedeemScript returns the P2SH redeem script, if present.
func (in Input) RedeemScript() (script.Script, bool) {
	v, ok := in.Map.Get(SingleByteKey(InputRedeemScript))
	return script.Script(v), ok
}

// SetRedeemScript installs the P2SH redeem script.
func (in Input) SetRedeemScript(s script.Script) {
	in.Map.Insert(SingleByteKey(InputRedeemScript), s.Bytes())
}

// WitnessScript returns the P2WSH witness script, if present.
func (in Input) WitnessScript() (script.Script, bool) {
	v, ok := in.Map.Get(SingleByteKey(InputWitnessScript))
	return script.Script(v), ok
}

// SetWitnessScript installs the P2WSH witness script.
func (in Input) SetWitnessScript(s script.Script) {
	in.Map.Insert(SingleByteKey(InputWitnessScript), s.Bytes())
}

// BIP32Derivations returns every recorded (pubkey -> derivation) entry.
func (in Input) BIP32Derivations() ([]PubkeyDerivation, error) {
	return decodePubkeyDerivations(in.Map.RangeByKeyType(InputBIP32Derivation))
}

// AddBIP32Derivation records how pk was derived from some root.
func (in Input) AddBIP32Derivation(pk curveCompressedKey, derivation bip32.KeyDerivation) {
	in.Map.Insert(KeyWithData(InputBIP32Derivation, pk[:]), encodeKeyDerivation(derivation))
}

// FinalScriptSig returns the finalized script_sig, if present.
func (in Input) FinalScriptSig() (script.ScriptSig, bool) {
	v, ok := in.Map.Get(SingleByteKey(InputFinalScriptSig))
	return script.ScriptSig(v), ok
}

// SetFinalScriptSig installs the finalized script_sig.
func (in Input) SetFinalScriptSig(s script.ScriptSig) {
	in.Map.Insert(SingleByteKey(InputFinalScriptSig), s.Bytes())
}

// FinalScriptWitness returns the finalized witness stack, if present.
func (in Input) FinalScriptWitness() ([]script.WitnessStackItem, bool, error) {
	v, ok := in.Map.Get(SingleByteKey(InputFinalScriptWitness))
	if !ok {
		return nil, false, nil
	}
	items, err := script.ParseWitnessStack(v)
	return items, true, err
}

// SetFinalScriptWitness installs the finalized witness stack.
func (in Input) SetFinalScriptWitness(items []script.WitnessStackItem) {
	in.Map.Insert(SingleByteKey(InputFinalScriptWitness), script.SerializeWitnessStack(items))
}

// IsFinalized reports whether this input carries a finalized script_sig
// and/or witness.
func (in Input) IsFinalized() bool {
	return in.Map.ContainsKey(SingleByteKey(InputFinalScriptSig)) ||
		in.Map.ContainsKey(SingleByteKey(InputFinalScriptWitness))
}

// stripIntermediateFields removes the signing-intermediate key types the
// Finalizer consumes (spec §4.6): partial sigs, sighash type, redeem and
// witness scripts, and bip32 derivations.
func (in Input) stripIntermediateFields() {
	for _, kv := range in.Map.RangeByKeyType(InputPartialSig) {
		in.Map.Remove(kv.Key)
	}
	for _, kv := range in.Map.RangeByKeyType(InputBIP32Derivation) {
		in.Map.Remove(kv.Key)
	}
	in.Map.Remove(SingleByteKey(InputSighashType))
	in.Map.Remove(SingleByteKey(InputRedeemScript))
	in.Map.Remove(SingleByteKey(InputWitnessScript))
}

// PubkeyDerivation pairs a compressed pubkey with its KeyDerivation, the
// shape input and output bip32-derivation entries share.
type PubkeyDerivation struct {
	Pubkey     curveCompressedKey
	Derivation bip32.KeyDerivation
}

func decodePubkeyDerivations(entries []KV) ([]PubkeyDerivation, error) {
	out := make([]PubkeyDerivation, 0, len(entries))
	for _, kv := range entries {
		var pk curveCompressedKey
		copy(pk[:], kv.Key.KeyData())
		deriv, err := decodeKeyDerivation(kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, PubkeyDerivation{Pubkey: pk, Derivation: deriv})
	}
	return out, nil
}
