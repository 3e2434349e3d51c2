package psbt

import (
	"bytes"
	"io"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/tx"
)

// magic is the 5-byte PSBT v0 file marker: "psbt" followed by 0xff.
var magic = [5]byte{0x70, 0x73, 0x62, 0x74, 0xff}

// PSBT is an in-memory Partially Signed Bitcoin Transaction: the global
// map plus one input map per unsigned-tx input and one output map per
// unsigned-tx output (spec §4.6). The unsigned tx itself lives inside
// Global and is never duplicated elsewhere.
type PSBT struct {
	Global  Global
	Inputs  []Input
	Outputs []Output
}

// Creator builds a fresh PSBT from an unsigned transaction: version 0,
// one empty input map per input, one empty output map per output. The
// unsigned tx is stored with every script_sig stripped, per spec §4.6.
func Creator(unsignedTx tx.LegacyTx) *PSBT {
	g := Global{Map: NewPSTMap()}
	g.SetTx(unsignedTx)
	g.SetVersion(0)

	inputs := make([]Input, len(unsignedTx.Vin))
	for i := range inputs {
		inputs[i] = Input{Map: NewPSTMap()}
	}
	outputs := make([]Output, len(unsignedTx.Vout))
	for i := range outputs {
		outputs[i] = Output{Map: NewPSTMap()}
	}
	return &PSBT{Global: g, Inputs: inputs, Outputs: outputs}
}

// Serialize writes magic || global map || input maps || output maps.
func (p *PSBT) Serialize(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := p.Global.Map.Serialize(w); err != nil {
		return err
	}
	for _, in := range p.Inputs {
		if err := in.Map.Serialize(w); err != nil {
			return err
		}
	}
	for _, out := range p.Outputs {
		if err := out.Map.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the serialized PSBT.
func (p *PSBT) Bytes() []byte {
	var buf bytes.Buffer
	_ = p.Serialize(&buf)
	return buf.Bytes()
}

// Parse decodes a PSBT, checking the magic bytes, the mandatory global
// fields, and that the input/output map counts match the unsigned tx
// (spec §4.6).
func Parse(b []byte) (*PSBT, error) {
	r := bytes.NewReader(b)

	var got [5]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return nil, btcerr.Wrap(btcerr.UnexpectedEOF, "psbt magic", err)
	}
	if got != magic {
		return nil, btcerr.New(btcerr.BadMagic, "not a PSBT (bad magic bytes)")
	}

	globalMap, err := DeserializeMap(r)
	if err != nil {
		return nil, err
	}
	g := Global{Map: globalMap}
	if err := g.ConsistencyChecks(); err != nil {
		return nil, err
	}
	unsignedTx, err := g.Tx()
	if err != nil {
		return nil, err
	}

	inputs := make([]Input, len(unsignedTx.Vin))
	for i := range inputs {
		m, err := DeserializeMap(r)
		if err != nil {
			return nil, err
		}
		inputs[i] = Input{Map: m}
	}
	outputs := make([]Output, len(unsignedTx.Vout))
	for i := range outputs {
		m, err := DeserializeMap(r)
		if err != nil {
			return nil, err
		}
		outputs[i] = Output{Map: m}
	}

	return &PSBT{Global: g, Inputs: inputs, Outputs: outputs}, nil
}

// Validate runs the standard schema over every map in the PSBT.
func (p *PSBT) Validate() error {
	if err := GlobalStandardSchema().Validate(p.Global.Map); err != nil {
		return err
	}
	for _, in := range p.Inputs {
		if err := InputStandardSchema().Validate(in.Map); err != nil {
			return err
		}
	}
	for _, out := range p.Outputs {
		if err := OutputStandardSchema().Validate(out.Map); err != nil {
			return err
		}
	}
	return nil
}
