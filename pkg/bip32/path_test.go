package bip32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathRoot(t *testing.T) {
	for _, s := range []string{"", "m"} {
		p, err := ParsePath(s)
		require.NoError(t, err)
		assert.Empty(t, p)
	}
}

func TestParsePathMixed(t *testing.T) {
	p, err := ParsePath("m/44'/0'/0'/0/5")
	require.NoError(t, err)
	require.Len(t, p, 5)
	assert.Equal(t, HardenedBit+44, p[0])
	assert.Equal(t, HardenedBit+0, p[1])
	assert.Equal(t, HardenedBit+0, p[2])
	assert.Equal(t, uint32(0), p[3])
	assert.Equal(t, uint32(5), p[4])
	assert.True(t, p.HasHardened())
}

func TestParsePathHAndUpperHSuffixes(t *testing.T) {
	p1, err := ParsePath("m/0h/1H")
	require.NoError(t, err)
	p2, err := ParsePath("m/0'/1'")
	require.NoError(t, err)
	assert.True(t, p1.Equal(p2))
}

func TestParsePathRejectsMissingRoot(t *testing.T) {
	_, err := ParsePath("44'/0'")
	assert.Error(t, err)
}

func TestParsePathRejectsEmptySegment(t *testing.T) {
	_, err := ParsePath("m//0")
	assert.Error(t, err)
}

func TestParsePathRejectsNonNumeric(t *testing.T) {
	_, err := ParsePath("m/foo")
	assert.Error(t, err)
}

func TestParsePathRejectsOutOfRangeIndex(t *testing.T) {
	_, err := ParsePath("m/2147483648")
	assert.Error(t, err)
}

func TestPathStringRoundTrip(t *testing.T) {
	original := "m/44'/0'/0'/0/5"
	p, err := ParsePath(original)
	require.NoError(t, err)
	assert.Equal(t, original, p.String())
}

func TestPathIsPrefixOf(t *testing.T) {
	parent, err := ParsePath("m/44'/0'")
	require.NoError(t, err)
	child, err := ParsePath("m/44'/0'/0/5")
	require.NoError(t, err)
	assert.True(t, parent.IsPrefixOf(child))
	assert.False(t, child.IsPrefixOf(parent))

	unrelated, err := ParsePath("m/49'/0'")
	require.NoError(t, err)
	assert.False(t, parent.IsPrefixOf(unrelated))
}
