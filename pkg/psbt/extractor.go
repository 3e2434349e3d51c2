package psbt

import (
	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/script"
	"github.com/arcsign/btcpsbt/pkg/tx"
)

// Extract assembles the final network-broadcastable transaction from a
// fully finalized PSBT (spec §4.6, Extractor role). Every input must carry
// a finalized script_sig and/or witness, else UnfinalizedInput names the
// offending index. The result is a LegacyTx if no input attached a
// witness, a WitnessTx otherwise.
func Extract(p *PSBT) (interface{}, error) {
	unsignedTx, err := p.Global.Tx()
	if err != nil {
		return nil, err
	}

	vin := make([]tx.TxIn, len(unsignedTx.Vin))
	witnesses := make([][]script.WitnessStackItem, len(unsignedTx.Vin))
	anyWitness := false

	for i, in := range p.Inputs {
		if !in.IsFinalized() {
			return nil, btcerr.UnfinalizedInputErr(i)
		}
		vin[i] = unsignedTx.Vin[i]
		if sigScript, ok := in.FinalScriptSig(); ok {
			vin[i].ScriptSig = sigScript
		}
		items, hasWitness, err := in.FinalScriptWitness()
		if err != nil {
			return nil, err
		}
		if hasWitness {
			witnesses[i] = items
			anyWitness = true
		}
	}

	if !anyWitness {
		return tx.LegacyTx{
			Version: unsignedTx.Version, Vin: vin,
			Vout: unsignedTx.Vout, Locktime: unsignedTx.Locktime,
		}, nil
	}

	return tx.WitnessTx{
		Version: unsignedTx.Version, Vin: vin,
		Vout: unsignedTx.Vout, Witnesses: witnesses, Locktime: unsignedTx.Locktime,
	}, nil
}
