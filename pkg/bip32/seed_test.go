package bip32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcsign/btcpsbt/pkg/curve"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestSeedFromMnemonicRejectsInvalidMnemonic(t *testing.T) {
	_, err := SeedFromMnemonic("not a valid mnemonic at all", "")
	assert.Error(t, err)
}

func TestSeedFromMnemonicDeterministic(t *testing.T) {
	s1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	s2, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
	assert.Len(t, s1, 64)
}

func TestSeedFromMnemonicPassphraseChangesSeed(t *testing.T) {
	withoutPass, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	withPass, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	require.NoError(t, err)
	assert.NotEqual(t, withoutPass, withPass)
}

func TestNewMasterKeyFromMnemonic(t *testing.T) {
	backend := curve.NewBtcecBackend()
	key, err := NewMasterKeyFromMnemonic(testMnemonic, "", Mainnet, HintLegacy, backend)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), key.Info.Depth)

	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	direct, err := NewMasterKey(seed, Mainnet, HintLegacy, backend)
	require.NoError(t, err)
	assert.Equal(t, direct.Privkey, key.Privkey)
	assert.Equal(t, direct.Info.ChainCode, key.Info.ChainCode)
}
