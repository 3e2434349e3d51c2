// Package script implements opaque Bitcoin script wrappers and standard
// script-pubkey pattern recognition. Scripts are never executed or
// assembled here (spec §1 Non-goals) — only classified by byte pattern.
package script

import "github.com/btcsuite/btcd/txscript"

// Script is a raw, opaque script byte vector. ScriptSig, ScriptPubkey, and
// WitnessStackItem are newtypes over the same representation, existing
// only to prevent accidental substitution at API boundaries (spec §4.4,
// §9); raw bytes convert freely among them via the Bytes accessor and the
// constructors below.
type Script []byte

// ScriptSig is a script used to satisfy a legacy (or P2SH-wrapped) input.
type ScriptSig []byte

// ScriptPubkey is an output's locking script.
type ScriptPubkey []byte

// WitnessStackItem is a single element of a segwit input's witness stack.
type WitnessStackItem []byte

// Bytes returns the raw bytes of a Script.
func (s Script) Bytes() []byte { return []byte(s) }

// Bytes returns the raw bytes of a ScriptSig.
func (s ScriptSig) Bytes() []byte { return []byte(s) }

// Bytes returns the raw bytes of a ScriptPubkey.
func (s ScriptPubkey) Bytes() []byte { return []byte(s) }

// Bytes returns the raw bytes of a WitnessStackItem.
func (s WitnessStackItem) Bytes() []byte { return []byte(s) }

// AsScript converts any byte-backed script type to a plain Script.
func AsScript(b []byte) Script { return Script(b) }

// AsScriptSig converts raw bytes to a ScriptSig.
func AsScriptSig(b []byte) ScriptSig { return ScriptSig(b) }

// AsScriptPubkey converts raw bytes to a ScriptPubkey.
func AsScriptPubkey(b []byte) ScriptPubkey { return ScriptPubkey(b) }

// Kind identifies a recognized standard output template.
type Kind int

const (
	NonStandard Kind = iota
	P2PKH
	P2SH
	P2WPKH
	P2WSH
	OpReturn
)

func (k Kind) String() string {
	switch k {
	case P2PKH:
		return "P2PKH"
	case P2SH:
		return "P2SH"
	case P2WPKH:
		return "P2WPKH"
	case P2WSH:
		return "P2WSH"
	case OpReturn:
		return "OP_RETURN"
	default:
		return "NonStandard"
	}
}

// Classification is the result of pattern-matching a ScriptPubkey:
// the recognized Kind plus the payload bytes the pattern carries (a hash
// for P2PKH/P2SH/P2WPKH/P2WSH, the pushed data for OP_RETURN).
type Classification struct {
	Kind    Kind
	Payload []byte
}

// Classify recognizes the standard script-pubkey templates listed in spec
// §4.4. OP_RETURN detection runs first since an OP_RETURN push can
// coincidentally have the same length as one of the other templates; an
// OP_RETURN whose push exceeds 75 bytes (so the single-byte pushdata
// opcode no longer applies) is classified NonStandard rather than matched
// as one of the fixed-length templates below, matching scenario 4 in spec
// §8 (a 75-byte limit, `6a <n<=75> <n bytes>`).
func Classify(pk ScriptPubkey) Classification {
	b := pk.Bytes()

	if c, ok := classifyOpReturn(b); ok {
		return c
	}
	switch len(b) {
	case 25:
		if b[0] == txscript.OP_DUP && b[1] == txscript.OP_HASH160 && b[2] == 0x14 &&
			b[23] == txscript.OP_EQUALVERIFY && b[24] == txscript.OP_CHECKSIG {
			return Classification{Kind: P2PKH, Payload: dup(b[3:23])}
		}
	case 23:
		if b[0] == txscript.OP_HASH160 && b[1] == 0x14 && b[22] == txscript.OP_EQUAL {
			return Classification{Kind: P2SH, Payload: dup(b[2:22])}
		}
	case 22:
		if b[0] == txscript.OP_0 && b[1] == 0x14 {
			return Classification{Kind: P2WPKH, Payload: dup(b[2:22])}
		}
	case 34:
		if b[0] == txscript.OP_0 && b[1] == 0x20 {
			return Classification{Kind: P2WSH, Payload: dup(b[2:34])}
		}
	}
	return Classification{Kind: NonStandard}
}

// P2PKHScriptFromHash builds the standard P2PKH locking script for a
// 20-byte HASH160. Used to reconstruct the BIP143 scriptCode a P2WPKH
// witness program implicitly commits to (the witness program itself
// carries only the hash, not the executable script).
func P2PKHScriptFromHash(hash [20]byte) ScriptPubkey {
	out := make(ScriptPubkey, 0, 25)
	out = append(out, txscript.OP_DUP, txscript.OP_HASH160, 0x14)
	out = append(out, hash[:]...)
	out = append(out, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG)
	return out
}

func classifyOpReturn(b []byte) (Classification, bool) {
	if len(b) < 2 || b[0] != txscript.OP_RETURN {
		return Classification{}, false
	}
	n := int(b[1])
	if n > 75 {
		return Classification{}, false
	}
	if len(b) != n+2 {
		return Classification{}, false
	}
	return Classification{Kind: OpReturn, Payload: dup(b[2:])}, true
}

func dup(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
