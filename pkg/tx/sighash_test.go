package tx

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcsign/btcpsbt/pkg/btcerr"
	"github.com/arcsign/btcpsbt/pkg/script"
)

func hexDigest(t *testing.T, s string) [32]byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, 32)
	var out [32]byte
	copy(out[:], b)
	return out
}

// TestLegacySighashBIPVectors exercises scenario 1 from the testable
// properties section: a real mainnet transaction signed under all four
// supported legacy sighash modes.
func TestLegacySighashBIPVectors(t *testing.T) {
	txHex := "0100000001813f79011acb80925dfe69b3def355fe914bd1d96a3f5f71bf8303c6a989c7d1000000006b483045022100ed81ff192e75a3fd2304004dcadb746fa5e24c5031ccfcf21320b0277457c98f02207a986d955c6e0cb35d446a89d3f56100f4d7f67801c31967743a9c8e10615bed01210349fc4e631e3624a545de3f89f5d8684c7b8138bd94bdd531d2e213bf016b278afeffffff02a135ef01000000001976a914bc3b654dca7e56b04dca18f2566cdaf02e8d9ada88ac99c39800000000001976a9141c4bc762dd5423e332166702cb75f40df79fea1288ac19430600"
	txBytes, err := hex.DecodeString(txHex)
	require.NoError(t, err)
	transaction, err := ParseLegacyTx(txBytes)
	require.NoError(t, err)

	require.Equal(t, txBytes, transaction.Bytes(), "round trip must be byte exact")

	wantTXID := hexDigest(t, "03ee4f7a4e68f802303bc659f8f817964b4b74fe046facc3ae1be4679d622c45")
	assert.Equal(t, wantTXID, transaction.TXID())

	prevoutScriptHex := "a91424d6008f143af0cca57344069c46661aa4fcea2387"
	prevoutScriptBytes, err := hex.DecodeString(prevoutScriptHex)
	require.NoError(t, err)
	prevoutScript := script.Script(prevoutScriptBytes)

	cases := []struct {
		name string
		flag SighashFlag
		want string
	}{
		{"all", SighashAll, "b85c4f8d1377cc138225dd9b319d0a4ca547f7884270640f44c5fcdf269e0fe8"},
		{"all_acp", SighashAllACP, "3b67a5114cc9fc837ddd6f6ec11bde38db5f68c34ab6ece2a043d7b25f2cf8bb"},
		{"single", SighashSingle, "1dab67d768be0380fc800098005d1f61744ffe585b0852f8d7adc12121a86938"},
		{"single_acp", SighashSingleACP, "d4687b93c0a9090dc0a3384cd3a594ce613834bb37abc56f6032e96c597547e3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := transaction.LegacySighash(LegacySighashArgs{
				Index:         0,
				SighashFlag:   tc.flag,
				PrevoutScript: prevoutScript,
			})
			require.NoError(t, err)
			assert.Equal(t, hexDigest(t, tc.want), got)
		})
	}
}

// TestLegacySighashTwoInputRegression is the additional two-input legacy
// regression vector carried over from original_source's own test suite,
// beyond the single scenario spec.md names explicitly.
func TestLegacySighashTwoInputRegression(t *testing.T) {
	txHex := "0200000002ee9242c89e79ab2aa537408839329895392b97505b3496d5543d6d2f531b94d20000000000fdffffffee9242c89e79ab2aa537408839329895392b97505b3496d5543d6d2f531b94d20000000000fdffffff0273d301000000000017a914bba5acbec4e6e3374a0345bf3609fa7cfea825f18773d301000000000017a914bba5acbec4e6e3374a0345bf3609fa7cfea825f18700000000"
	txBytes, err := hex.DecodeString(txHex)
	require.NoError(t, err)
	transaction, err := ParseLegacyTx(txBytes)
	require.NoError(t, err)
	require.Equal(t, txBytes, transaction.Bytes())

	assert.Equal(t, hexDigest(t, "40157948972c5c97a2bafff861ee2f8745151385c7f9fbd03991ddf59b76ac81"), transaction.TXID())

	prevoutScriptBytes, err := hex.DecodeString("0014758ce550380d964051086798d6546bebdca27a73")
	require.NoError(t, err)
	prevoutScript := script.Script(prevoutScriptBytes)

	cases := []struct {
		flag SighashFlag
		want string
	}{
		{SighashAll, "3ab40bf1287b7be9a5c67ed0f97f80b38c5f68e53ec93bffd3893901eaaafdb2"},
		{SighashAllACP, "2d5802fed31e1ef6a857346cc0a9085ea452daeeb3a0b5afcb16a2203ce5689d"},
		{SighashSingle, "ea52b62b26c1f0db838c952fa50806fb8e39ba4c92a9a88d1b4ba7e9c094517d"},
		{SighashSingleACP, "9e2aca0a04afa6e1e5e00ff16b06a247a0da1e7bbaa7cd761c066a82bb3b07d0"},
	}
	for _, tc := range cases {
		got, err := transaction.LegacySighash(LegacySighashArgs{
			Index:         1,
			SighashFlag:   tc.flag,
			PrevoutScript: prevoutScript,
		})
		require.NoError(t, err)
		assert.Equal(t, hexDigest(t, tc.want), got)
	}
}

// TestWitnessSighashBIPVectors exercises scenario 2: BIP143 sighash over a
// real segwit transaction.
func TestWitnessSighashBIPVectors(t *testing.T) {
	txHex := "02000000000101ee9242c89e79ab2aa537408839329895392b97505b3496d5543d6d2f531b94d20000000000fdffffff0173d301000000000017a914bba5acbec4e6e3374a0345bf3609fa7cfea825f18700cafd0700"
	txBytes, err := hex.DecodeString(txHex)
	require.NoError(t, err)
	transaction, err := ParseWitnessTx(txBytes)
	require.NoError(t, err)
	require.Equal(t, txBytes, transaction.Bytes())

	assert.Equal(t, hexDigest(t, "9e77087321b870859ebf08976d665c42d9f98cad18fff6a05a91c1d2da6d6c41"), transaction.TXID())

	prevoutScriptBytes, err := hex.DecodeString("0014758ce550380d964051086798d6546bebdca27a73")
	require.NoError(t, err)
	prevoutScript := script.Script(prevoutScriptBytes)

	cases := []struct {
		name string
		flag SighashFlag
		want string
	}{
		{"all", SighashAll, "135754ab872e4943f7a9c30d6143c4c7187e33d0f63c75ec82a7f9a15e2f2d00"},
		{"all_acp", SighashAllACP, "cc7438d5b15e93ba612dcd227cf1937c35273675b3aa7d1b771573667376ddf6"},
		{"single", SighashSingle, "d04631d2742e6fd8e80e2e4309dece65becca41d37fd6bc0bcba041c52d824d5"},
		{"single_acp", SighashSingleACP, "ffea9cdda07170af9bc9967cedf485e9fe15b78a622e0c196c0b6fc64f40c615"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := transaction.WitnessSighash(WitnessSighashArgs{
				Index:         0,
				SighashFlag:   tc.flag,
				PrevoutScript: prevoutScript,
				PrevoutValue:  120000,
			})
			require.NoError(t, err)
			assert.Equal(t, hexDigest(t, tc.want), got)
		})
	}
}

// TestWitnessSighashTwoInputRegression is the additional two-input,
// signed-index-1 witness regression vector from original_source's test
// suite.
func TestWitnessSighashTwoInputRegression(t *testing.T) {
	txHex := "02000000000102ee9242c89e79ab2aa537408839329895392b97505b3496d5543d6d2f531b94d20000000000fdffffffee9242c89e79ab2aa537408839329895392b97505b3496d5543d6d2f531b94d20000000000fdffffff0273d301000000000017a914bba5acbec4e6e3374a0345bf3609fa7cfea825f18773d301000000000017a914bba5acbec4e6e3374a0345bf3609fa7cfea825f1870000cafd0700"
	txBytes, err := hex.DecodeString(txHex)
	require.NoError(t, err)
	transaction, err := ParseWitnessTx(txBytes)
	require.NoError(t, err)
	require.Equal(t, txBytes, transaction.Bytes())

	assert.Equal(t, hexDigest(t, "184e7bce099679b27ed958213c97d2fb971e227c6517bca11f06ccbb97dcdc30"), transaction.TXID())

	prevoutScriptBytes, err := hex.DecodeString("0014758ce550380d964051086798d6546bebdca27a73")
	require.NoError(t, err)
	prevoutScript := script.Script(prevoutScriptBytes)

	cases := []struct {
		flag SighashFlag
		want string
	}{
		{SighashAll, "75385c87ece4980b581cfd71bc5814f607801a87f6e0973c63dc9fda465c19c4"},
		{SighashAllACP, "bc55c4303c82cdcc8e290c597a00d662ab34414d79ec15d63912b8be7fe2ca3c"},
		{SighashSingle, "9d57bf7af01a4e0baa57e749aa193d37a64e3bbc08eb88af93944f41af8dfc70"},
		{SighashSingleACP, "ffea9cdda07170af9bc9967cedf485e9fe15b78a622e0c196c0b6fc64f40c615"},
	}
	for _, tc := range cases {
		got, err := transaction.WitnessSighash(WitnessSighashArgs{
			Index:         1,
			SighashFlag:   tc.flag,
			PrevoutScript: prevoutScript,
			PrevoutValue:  120000,
		})
		require.NoError(t, err)
		assert.Equal(t, hexDigest(t, tc.want), got)
	}
}

// TestSighashSingleOutOfRange is scenario 5: a 1-input/1-output tx
// requesting SIGHASH_SINGLE at input index 1 must report SighashSingleBug,
// not replicate Satoshi's bug.
func TestSighashSingleOutOfRange(t *testing.T) {
	transaction := LegacyTx{
		Version: 1,
		Vin: []TxIn{
			{Outpoint: OutPoint{Vout: 0}, Sequence: 0xffffffff},
		},
		Vout: []script.TxOut{
			{Value: 1000, ScriptPubkey: script.ScriptPubkey{}},
		},
	}
	_, err := transaction.LegacySighash(LegacySighashArgs{
		Index:       1,
		SighashFlag: SighashSingle,
	})
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.SighashSingleBug))
}

func TestUnknownSighashFlag(t *testing.T) {
	_, err := ParseSighashFlag(0x05)
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.UnknownSighash))
}

func TestSighashNoneUnsupported(t *testing.T) {
	transaction := LegacyTx{
		Vin:  []TxIn{{}},
		Vout: []script.TxOut{{}},
	}
	_, err := transaction.LegacySighash(LegacySighashArgs{SighashFlag: SighashNone})
	require.Error(t, err)
	assert.True(t, btcerr.Is(err, btcerr.NoneUnsupported))
}
