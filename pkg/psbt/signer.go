package psbt

import (
	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/curve"
	"github.com/arcsign/btcpsbt/pkg/script"
	"github.com/arcsign/btcpsbt/pkg/tx"
)

// signingInfo is the scriptCode and mode (witness or legacy) a single input
// must be signed under, resolved from whichever UTXO/redeem/witness script
// fields the Updater has populated (spec §4.6, §9).
type signingInfo struct {
	witness       bool
	prevoutValue  uint64
	prevoutScript script.Script
}

// resolveSigningInfo walks the standard P2SH/P2WSH/P2WPKH wrapping chain to
// find the scriptCode an input's sighash preimage commits to. A native
// P2WPKH witness program carries only a hash, not an executable script, so
// the implicit P2PKH template is reconstructed via
// script.P2PKHScriptFromHash.
func (p *PSBT) resolveSigningInfo(index int) (signingInfo, error) {
	in := p.Inputs[index]

	witnessUTXO, hasWitnessUTXO, err := in.WitnessUTXO()
	if err != nil {
		return signingInfo{}, err
	}
	nonWitnessUTXO, hasNonWitnessUTXO, err := in.NonWitnessUTXO()
	if err != nil {
		return signingInfo{}, err
	}

	var outerScript script.ScriptPubkey
	var value uint64
	var preferWitness bool
	switch {
	case hasWitnessUTXO:
		outerScript = witnessUTXO.ScriptPubkey
		value = witnessUTXO.Value
		preferWitness = true
	case hasNonWitnessUTXO:
		vout := p.Global.unsignedTxVout(index, nonWitnessUTXO)
		outerScript = vout.ScriptPubkey
		value = vout.Value
	default:
		return signingInfo{}, btcerr.New(btcerr.MissingKey, "input has neither witness nor non-witness UTXO")
	}

	class := script.Classify(outerScript)
	if class.Kind == script.P2SH {
		redeem, ok := in.RedeemScript()
		if !ok {
			return signingInfo{}, btcerr.New(btcerr.MissingKey, "P2SH input is missing its redeem script")
		}
		class = script.Classify(script.ScriptPubkey(redeem))
		outerScript = script.ScriptPubkey(redeem)
	}

	switch class.Kind {
	case script.P2WPKH:
		var hash [20]byte
		copy(hash[:], class.Payload)
		return signingInfo{witness: true, prevoutValue: value, prevoutScript: script.Script(script.P2PKHScriptFromHash(hash))}, nil
	case script.P2WSH:
		ws, ok := in.WitnessScript()
		if !ok {
			return signingInfo{}, btcerr.New(btcerr.MissingKey, "P2WSH input is missing its witness script")
		}
		return signingInfo{witness: true, prevoutValue: value, prevoutScript: ws}, nil
	default:
		if preferWitness {
			return signingInfo{}, btcerr.New(btcerr.InvalidPSBT, "witness UTXO present but script is not a segwit template")
		}
		return signingInfo{witness: false, prevoutValue: value, prevoutScript: script.Script(outerScript)}, nil
	}
}

// unsignedTxVout returns the output index.Vin[i].Outpoint.Vout claims to
// spend out of the supplied previous transaction, trusting that the caller
// already matched it against the unsigned tx's outpoint (the Updater is
// responsible for only attaching the correct previous transaction).
func (g Global) unsignedTxVout(index int, prev tx.LegacyTx) script.TxOut {
	unsignedTx, err := g.Tx()
	if err != nil {
		return script.TxOut{}
	}
	vout := unsignedTx.Vin[index].Outpoint.Vout
	return prev.Vout[vout]
}

// SignInput computes the sighash for input index under the recorded UTXO
// and script fields, signs it with priv via backend, and records the
// resulting partial signature keyed by priv's compressed public key (spec
// §4.6, Signer role).
func (p *PSBT) SignInput(index int, priv curve.Privkey, backend curve.Backend, flag tx.SighashFlag) error {
	if backend == nil {
		return btcerr.New(btcerr.BackendMissing, "no curve backend installed")
	}
	unsignedTx, err := p.Global.Tx()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(unsignedTx.Vin) {
		return btcerr.New(btcerr.InvalidPSBT, "input index out of range")
	}
	if _, err := tx.ParseSighashFlag(byte(flag)); err != nil {
		return err
	}

	info, err := p.resolveSigningInfo(index)
	if err != nil {
		return err
	}

	var digest [32]byte
	if info.witness {
		wtx := tx.WitnessTx{Version: unsignedTx.Version, Vin: unsignedTx.Vin, Vout: unsignedTx.Vout, Locktime: unsignedTx.Locktime}
		digest, err = wtx.WitnessSighash(tx.WitnessSighashArgs{
			Index: index, SighashFlag: flag,
			PrevoutScript: info.prevoutScript, PrevoutValue: info.prevoutValue,
		})
	} else {
		digest, err = unsignedTx.LegacySighash(tx.LegacySighashArgs{
			Index: index, SighashFlag: flag, PrevoutScript: info.prevoutScript,
		})
	}
	if err != nil {
		return err
	}

	sig, err := backend.SignDigest(priv, digest)
	if err != nil {
		return err
	}
	pub, err := backend.DerivePubkey(priv)
	if err != nil {
		return err
	}

	der := backend.EncodeDER(sig)
	withFlag := make([]byte, 0, len(der)+1)
	withFlag = append(withFlag, der...)
	withFlag = append(withFlag, byte(flag))

	p.Inputs[index].SetSighashType(flag)
	p.Inputs[index].AddPartialSig(curveCompressedKey(pub), withFlag)
	return nil
}
