package psbt

import (
	"github.com/arcsign/btcpsbt/pkg/bip32"
	"github.com/arcsign/btcpsbt/pkg/script"
)

// Output wraps a PSTMap with typed accessors for a PSBT output map
// (spec §4.6).
type Output struct {
	Map *PSTMap
}

// RedeemScript returns the P2SH redeem script, if present.
func (out Output) RedeemScript() (script.Script, bool) {
	v, ok := out.Map.Get(SingleByteKey(OutputRedeemScript))
	return script.Script(v), ok
}

// SetRedeemScript installs the P2SH redeem script.
func (out Output) SetRedeemScript(s script.Script) {
	out.Map.Insert(SingleByteKey(OutputRedeemScript), s.Bytes())
}

// WitnessScript returns the P2WSH witness script, if present.
func (out Output) WitnessScript() (script.Script, bool) {
	v, ok := out.Map.Get(SingleByteKey(OutputWitnessScript))
	return script.Script(v), ok
}

// SetWitnessScript installs the P2WSH witness script.
func (out Output) SetWitnessScript(s script.Script) {
	out.Map.Insert(SingleByteKey(OutputWitnessScript), s.Bytes())
}

// BIP32Derivations returns every recorded (pubkey -> derivation) entry for
// this output.
func (out Output) BIP32Derivations() ([]PubkeyDerivation, error) {
	return decodePubkeyDerivations(out.Map.RangeByKeyType(OutputBIP32Derivation))
}

// AddBIP32Derivation records how pk was derived from some root.
func (out Output) AddBIP32Derivation(pk curveCompressedKey, derivation bip32.KeyDerivation) {
	out.Map.Insert(KeyWithData(OutputBIP32Derivation, pk[:]), encodeKeyDerivation(derivation))
}
