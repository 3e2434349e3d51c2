package bip32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcsign/btcpsbt/pkg/curve"
)

func rootDerivedPrivKey(t *testing.T) DerivedPrivKey {
	t.Helper()
	backend := curve.NewBtcecBackend()
	seed := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}
	master, err := NewMasterKey(seed, Mainnet, HintLegacy, backend)
	require.NoError(t, err)
	fp, err := master.Fingerprint()
	require.NoError(t, err)
	return DerivedPrivKey{XPriv: master, Derivation: KeyDerivation{RootFingerprint: fp, Path: Path{}}}
}

func TestDerivedPrivKeyDerivePathExtendsBookkeeping(t *testing.T) {
	root := rootDerivedPrivKey(t)
	path, err := ParsePath("m/44'/0'/0'/0/5")
	require.NoError(t, err)

	derived, err := root.DerivePath(path)
	require.NoError(t, err)
	assert.True(t, derived.Derivation.Path.Equal(path))
	assert.Equal(t, root.Derivation.RootFingerprint, derived.Derivation.RootFingerprint)
}

func TestSameRootAndAncestry(t *testing.T) {
	root := rootDerivedPrivKey(t)
	parentPath, err := ParsePath("m/44'/0'")
	require.NoError(t, err)
	parent, err := root.DerivePath(parentPath)
	require.NoError(t, err)

	childPath, err := ParsePath("m/44'/0'/0/5")
	require.NoError(t, err)
	child, err := root.DerivePath(childPath)
	require.NoError(t, err)

	assert.True(t, SameRoot(parent.Derivation, child.Derivation))
	assert.True(t, IsPossibleAncestorOf(parent.Derivation, child.Derivation))
	assert.False(t, IsPossibleAncestorOf(child.Derivation, parent.Derivation))

	suffix, ok := PathToDescendant(parent.Derivation, child.Derivation)
	require.True(t, ok)
	want, err := ParsePath("m/0/5")
	require.NoError(t, err)
	assert.True(t, suffix.Equal(want))
}

func TestDerivedPrivKeyToDerivedPub(t *testing.T) {
	root := rootDerivedPrivKey(t)
	path, err := ParsePath("m/0/1")
	require.NoError(t, err)
	derived, err := root.DerivePath(path)
	require.NoError(t, err)

	pub, err := derived.ToDerivedPub()
	require.NoError(t, err)
	assert.True(t, pub.Derivation.Path.Equal(path))
	assert.Equal(t, derived.Derivation.RootFingerprint, pub.Derivation.RootFingerprint)
}

func TestIsPossibleAncestorOfDifferentRoots(t *testing.T) {
	a := KeyDerivation{RootFingerprint: Fingerprint{1, 2, 3, 4}, Path: Path{}}
	b := KeyDerivation{RootFingerprint: Fingerprint{5, 6, 7, 8}, Path: Path{0}}
	assert.False(t, SameRoot(a, b))
	assert.False(t, IsPossibleAncestorOf(a, b))
}
