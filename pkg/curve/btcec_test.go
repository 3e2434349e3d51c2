package curve

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPriv(t *testing.T) Privkey {
	t.Helper()
	var p Privkey
	for i := range p {
		p[i] = byte(i + 1)
	}
	return p
}

func TestSignAndVerifyDigest(t *testing.T) {
	backend := NewBtcecBackend()
	priv := testPriv(t)
	pub, err := backend.DerivePubkey(priv)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("classify and sign this message"))
	sig, err := backend.SignDigest(priv, digest)
	require.NoError(t, err)

	err = backend.VerifyDigest(pub, digest, sig)
	assert.NoError(t, err)
}

func TestVerifyDigestRejectsWrongDigest(t *testing.T) {
	backend := NewBtcecBackend()
	priv := testPriv(t)
	pub, err := backend.DerivePubkey(priv)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("original message"))
	sig, err := backend.SignDigest(priv, digest)
	require.NoError(t, err)

	wrongDigest := sha256.Sum256([]byte("tampered message"))
	err = backend.VerifyDigest(pub, wrongDigest, sig)
	assert.Error(t, err)
}

func TestSignDigestRecoverableRoundTrip(t *testing.T) {
	backend := NewBtcecBackend()
	priv := testPriv(t)
	pub, err := backend.DerivePubkey(priv)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("recoverable signature test"))
	rsig, err := backend.SignDigestRecoverable(priv, digest)
	require.NoError(t, err)
	assert.Less(t, rsig.RecID, byte(4))

	sig := backend.WithoutRecovery(rsig)
	assert.NoError(t, backend.VerifyDigest(pub, digest, sig))
}

func TestDERRoundTrip(t *testing.T) {
	backend := NewBtcecBackend()
	priv := testPriv(t)
	digest := sha256.Sum256([]byte("der round trip"))
	sig, err := backend.SignDigest(priv, digest)
	require.NoError(t, err)

	der := backend.EncodeDER(sig)
	assert.NotEmpty(t, der)

	decoded, err := backend.ParseDER(der)
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)
}
