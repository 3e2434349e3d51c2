package psbt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcsign/btcpsbt/pkg/bip32"
	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/curve"
	"github.com/arcsign/btcpsbt/pkg/script"
	"github.com/arcsign/btcpsbt/pkg/tx"
)

func backend() curve.Backend { return curve.NewBtcecBackend() }

func testPriv(b byte) curve.Privkey {
	var priv curve.Privkey
	for i := range priv {
		priv[i] = b
	}
	return priv
}

func p2pkhScript(t *testing.T, priv curve.Privkey) script.ScriptPubkey {
	t.Helper()
	pub, err := backend().DerivePubkey(priv)
	require.NoError(t, err)
	return script.P2PKHScriptFromHash(bip32.Hash160(pub[:]))
}

func buildSingleInputTx(prevTxid [32]byte, vout uint32, value uint64, toScript script.ScriptPubkey) tx.LegacyTx {
	return tx.LegacyTx{
		Version: 1,
		Vin: []tx.TxIn{{
			Outpoint: tx.OutPoint{TxID: prevTxid, Vout: vout},
			Sequence: 0xffffffff,
		}},
		Vout: []script.TxOut{
			{Value: value, ScriptPubkey: toScript},
		},
		Locktime: 0,
	}
}

func TestCreatorProducesMatchingMapCounts(t *testing.T) {
	unsigned := buildSingleInputTx([32]byte{1}, 0, 50000, script.ScriptPubkey{0x6a})
	p := Creator(unsigned)

	require.Len(t, p.Inputs, 1)
	require.Len(t, p.Outputs, 1)
	version, err := p.Global.Version()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), version)

	gotTx, err := p.Global.Tx()
	require.NoError(t, err)
	assert.Equal(t, unsigned.Bytes(), gotTx.Bytes())
}

func TestSerializeParseRoundTrip(t *testing.T) {
	unsigned := buildSingleInputTx([32]byte{2}, 1, 90000, script.ScriptPubkey{0x6a})
	p := Creator(unsigned)
	p.Outputs[0].SetRedeemScript(script.Script{0x51})

	serialized := p.Bytes()
	parsed, err := Parse(serialized)
	require.NoError(t, err)
	assert.Equal(t, serialized, parsed.Bytes())

	redeem, ok := parsed.Outputs[0].RedeemScript()
	require.True(t, ok)
	assert.Equal(t, script.Script{0x51}, redeem)
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse([]byte{0x00, 0x01, 0x02, 0x03, 0x04})
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.BadMagic))
}

func TestParseRejectsDuplicateKey(t *testing.T) {
	unsigned := buildSingleInputTx([32]byte{3}, 0, 1000, script.ScriptPubkey{0x6a})
	p := Creator(unsigned)

	var buf bytes.Buffer
	buf.Write(magic[:])
	require.NoError(t, p.Global.Map.Serialize(&buf))

	// Corrupt the first input map by hand-writing a duplicate key.
	buf.Write([]byte{0x01, InputSighashType})
	buf.Write([]byte{0x04, 0x01, 0x00, 0x00, 0x00})
	buf.Write([]byte{0x01, InputSighashType})
	buf.Write([]byte{0x04, 0x02, 0x00, 0x00, 0x00})
	buf.Write([]byte{0x00})
	require.NoError(t, p.Outputs[0].Map.Serialize(&buf))

	_, err := Parse(buf.Bytes())
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.DuplicateKey))
}

func TestSignFinalizeExtractP2PKHRoundTrip(t *testing.T) {
	priv := testPriv(7)
	prevPkScript := p2pkhScript(t, priv)
	prevTx := tx.LegacyTx{
		Version:  1,
		Vin:      []tx.TxIn{{Outpoint: tx.OutPoint{TxID: [32]byte{9}, Vout: 0}, Sequence: 0xffffffff}},
		Vout:     []script.TxOut{{Value: 100000, ScriptPubkey: prevPkScript}},
		Locktime: 0,
	}
	prevTxid := prevTx.TXID()

	unsigned := buildSingleInputTx(prevTxid, 0, 90000, script.ScriptPubkey{0x6a, 0x00})
	p := Creator(unsigned)
	p.Inputs[0].SetNonWitnessUTXO(prevTx)

	err := p.SignInput(0, priv, backend(), tx.SighashAll)
	require.NoError(t, err)

	sigs := p.Inputs[0].PartialSigs()
	require.Len(t, sigs, 1)

	require.NoError(t, p.Finalize())
	assert.True(t, p.Inputs[0].IsFinalized())
	_, hasSigs := p.Inputs[0].Map.Get(SingleByteKey(InputSighashType))
	assert.False(t, hasSigs, "Finalize must strip the intermediate sighash-type field")

	extracted, err := Extract(p)
	require.NoError(t, err)
	finalTx, ok := extracted.(tx.LegacyTx)
	require.True(t, ok)
	assert.NotEmpty(t, finalTx.Vin[0].ScriptSig.Bytes())
}

func TestSignP2WPKHProducesWitness(t *testing.T) {
	priv := testPriv(11)
	pub, err := backend().DerivePubkey(priv)
	require.NoError(t, err)
	hash := bip32.Hash160(pub[:])
	witnessProgram := script.ScriptPubkey(append([]byte{0x00, 0x14}, hash[:]...))

	unsigned := buildSingleInputTx([32]byte{4}, 0, 70000, script.ScriptPubkey{0x6a})
	p := Creator(unsigned)
	p.Inputs[0].SetWitnessUTXO(script.TxOut{Value: 80000, ScriptPubkey: witnessProgram})

	require.NoError(t, p.SignInput(0, priv, backend(), tx.SighashAll))
	require.NoError(t, p.Finalize())

	extracted, err := Extract(p)
	require.NoError(t, err)
	wtx, ok := extracted.(tx.WitnessTx)
	require.True(t, ok)
	require.Len(t, wtx.Witnesses[0], 2)
	assert.Empty(t, wtx.Vin[0].ScriptSig.Bytes())
}

func TestExtractUnfinalizedInputFails(t *testing.T) {
	unsigned := buildSingleInputTx([32]byte{5}, 0, 1000, script.ScriptPubkey{0x6a})
	p := Creator(unsigned)

	_, err := Extract(p)
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.UnfinalizedInput))
}

func TestSignInputSighashSingleOutOfRangeIsSighashSingleBug(t *testing.T) {
	priv := testPriv(13)
	prevPkScript := p2pkhScript(t, priv)
	prevTx := tx.LegacyTx{
		Version:  1,
		Vin:      []tx.TxIn{{Outpoint: tx.OutPoint{TxID: [32]byte{6}, Vout: 0}, Sequence: 0xffffffff}},
		Vout:     []script.TxOut{{Value: 100000, ScriptPubkey: prevPkScript}},
		Locktime: 0,
	}
	prevTxid := prevTx.TXID()

	// Two inputs, one output: SIGHASH_SINGLE signing input index 1 has no
	// matching output (spec §8 scenario 5).
	unsigned := tx.LegacyTx{
		Version: 1,
		Vin: []tx.TxIn{
			{Outpoint: tx.OutPoint{TxID: prevTxid, Vout: 0}, Sequence: 0xffffffff},
			{Outpoint: tx.OutPoint{TxID: prevTxid, Vout: 0}, Sequence: 0xffffffff},
		},
		Vout:     []script.TxOut{{Value: 80000, ScriptPubkey: script.ScriptPubkey{0x6a}}},
		Locktime: 0,
	}
	p := Creator(unsigned)
	p.Inputs[0].SetNonWitnessUTXO(prevTx)
	p.Inputs[1].SetNonWitnessUTXO(prevTx)

	err := p.SignInput(1, priv, backend(), tx.SighashSingle)
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.SighashSingleBug))
}

func TestCombineMergesDistinctPartialSigs(t *testing.T) {
	unsigned := buildSingleInputTx([32]byte{8}, 0, 1000, script.ScriptPubkey{0x6a})
	a := Creator(unsigned)
	b := Creator(unsigned)

	a.Inputs[0].AddPartialSig(curveCompressedKey{0x02, 0x01}, []byte{0xaa, 0x01})
	b.Inputs[0].AddPartialSig(curveCompressedKey{0x02, 0x02}, []byte{0xbb, 0x01})

	combined, err := Combine(a, b)
	require.NoError(t, err)
	assert.Len(t, combined.Inputs[0].PartialSigs(), 2)

	// Commutative and idempotent.
	combined2, err := Combine(b, a)
	require.NoError(t, err)
	assert.Equal(t, combined.Bytes(), combined2.Bytes())

	selfCombined, err := Combine(combined, combined)
	require.NoError(t, err)
	assert.Equal(t, combined.Bytes(), selfCombined.Bytes())
}

func TestCombineRejectsMismatchedUnsignedTx(t *testing.T) {
	a := Creator(buildSingleInputTx([32]byte{10}, 0, 1000, script.ScriptPubkey{0x6a}))
	b := Creator(buildSingleInputTx([32]byte{11}, 0, 1000, script.ScriptPubkey{0x6a}))

	_, err := Combine(a, b)
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.MismatchedUnsignedTx))
}

func TestCombineRejectsConflictingValues(t *testing.T) {
	unsigned := buildSingleInputTx([32]byte{12}, 0, 1000, script.ScriptPubkey{0x6a})
	a := Creator(unsigned)
	b := Creator(unsigned)

	pk := curveCompressedKey{0x02, 0x03}
	a.Inputs[0].AddPartialSig(pk, []byte{0xaa, 0x01})
	b.Inputs[0].AddPartialSig(pk, []byte{0xcc, 0x01})

	_, err := Combine(a, b)
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.MismatchedValue))
}

func TestValidateAcceptsCreatorOutput(t *testing.T) {
	unsigned := buildSingleInputTx([32]byte{14}, 0, 1000, script.ScriptPubkey{0x6a})
	p := Creator(unsigned)
	require.NoError(t, p.Validate())
}
