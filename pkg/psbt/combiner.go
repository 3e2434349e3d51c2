package psbt

import (
	"bytes"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
)

// Combine merges two PSBTs describing the same unsigned transaction,
// unioning their global, input, and output maps (spec §4.6, Combiner
// role). The two unsigned transactions must be byte-identical, else
// MismatchedUnsignedTx; a key present in both PSBTs with differing values
// is MismatchedValue. Combine is commutative and idempotent: combining a
// PSBT with itself, or swapping the argument order, yields the same
// result.
func Combine(a, b *PSBT) (*PSBT, error) {
	aTx, err := a.Global.Map.MustGet(SingleByteKey(GlobalUnsignedTx))
	if err != nil {
		return nil, err
	}
	bTx, err := b.Global.Map.MustGet(SingleByteKey(GlobalUnsignedTx))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(aTx, bTx) {
		return nil, btcerr.New(btcerr.MismatchedUnsignedTx, "cannot combine PSBTs for different unsigned transactions")
	}
	if len(a.Inputs) != len(b.Inputs) || len(a.Outputs) != len(b.Outputs) {
		return nil, btcerr.New(btcerr.InvalidPSBT, "input/output count mismatch between PSBTs to combine")
	}

	out := &PSBT{
		Global:  Global{Map: a.Global.Map.Clone()},
		Inputs:  make([]Input, len(a.Inputs)),
		Outputs: make([]Output, len(a.Outputs)),
	}
	if err := out.Global.Map.Merge(b.Global.Map); err != nil {
		return nil, err
	}
	for i := range out.Inputs {
		out.Inputs[i] = Input{Map: a.Inputs[i].Map.Clone()}
		if err := out.Inputs[i].Map.Merge(b.Inputs[i].Map); err != nil {
			return nil, err
		}
	}
	for i := range out.Outputs {
		out.Outputs[i] = Output{Map: a.Outputs[i].Map.Clone()}
		if err := out.Outputs[i].Map.Merge(b.Outputs[i].Map); err != nil {
			return nil, err
		}
	}
	return out, nil
}
