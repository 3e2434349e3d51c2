package psbt

import (
	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/script"
)

// pushData wraps b in the single-byte-length push opcode used throughout
// legacy script_sigs (every push here is well under 76 bytes).
func pushData(b []byte) []byte {
	out := make([]byte, 0, len(b)+1)
	out = append(out, byte(len(b)))
	out = append(out, b...)
	return out
}

// FinalizeInput builds the script_sig and/or witness for input index from
// its recorded partial signatures, per spec §4.6's Finalizer role.
// Signature-script construction is limited to the P2PKH, native P2WPKH,
// and P2SH-wrapped-P2WPKH templates: anything requiring script execution
// (arbitrary redeem/witness scripts, multisig) is out of scope (spec §1
// Non-goals) and returns UnfinalizableInput.
func (p *PSBT) FinalizeInput(index int) error {
	if index < 0 || index >= len(p.Inputs) {
		return btcerr.New(btcerr.InvalidPSBT, "input index out of range")
	}
	in := p.Inputs[index]
	sigs := in.PartialSigs()
	if len(sigs) != 1 {
		return btcerr.UnfinalizableInputErr(index)
	}
	sig := sigs[0]

	info, err := p.resolveSigningInfo(index)
	if err != nil {
		return btcerr.UnfinalizableInputErr(index)
	}

	redeem, hasRedeem := in.RedeemScript()
	_, hasWitnessScript := in.WitnessScript()
	if hasWitnessScript || (!info.witness && hasRedeem) ||
		script.Classify(script.ScriptPubkey(info.prevoutScript)).Kind != script.P2PKH {
		return btcerr.UnfinalizableInputErr(index)
	}

	switch {
	case info.witness && hasRedeem:
		// P2SH-wrapped P2WPKH: script_sig carries the redeem script push,
		// the signature moves to the witness.
		in.SetFinalScriptSig(script.AsScriptSig(pushData(redeem.Bytes())))
		in.SetFinalScriptWitness([]script.WitnessStackItem{
			script.WitnessStackItem(sig.Signature),
			script.WitnessStackItem(sig.Pubkey[:]),
		})
	case info.witness:
		// Native P2WPKH: empty script_sig, signature in the witness.
		in.SetFinalScriptWitness([]script.WitnessStackItem{
			script.WitnessStackItem(sig.Signature),
			script.WitnessStackItem(sig.Pubkey[:]),
		})
	default:
		// Legacy P2PKH.
		sigScript := make([]byte, 0, len(sig.Signature)+len(sig.Pubkey)+2)
		sigScript = append(sigScript, pushData(sig.Signature)...)
		sigScript = append(sigScript, pushData(sig.Pubkey[:])...)
		in.SetFinalScriptSig(script.AsScriptSig(sigScript))
	}

	in.stripIntermediateFields()
	return nil
}

// Finalize runs FinalizeInput over every input.
func (p *PSBT) Finalize() error {
	for i := range p.Inputs {
		if err := p.FinalizeInput(i); err != nil {
			return err
		}
	}
	return nil
}
