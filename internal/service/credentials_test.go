package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaintextVerifier(t *testing.T) {
	v := PlaintextVerifier{}

	cred, err := v.NewCredential("pw1")
	require.NoError(t, err)
	assert.Equal(t, "pw1", cred)

	assert.True(t, v.Verify("pw1", "pw1"))
	assert.False(t, v.Verify("pw1", "pw2"))
}

func TestBcryptVerifier(t *testing.T) {
	v := BcryptVerifier{}

	cred, err := v.NewCredential("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", cred)

	assert.True(t, v.Verify(cred, "pw1"))
	assert.False(t, v.Verify(cred, "pw2"))
}

func TestBcryptVerifierLegacyFallback(t *testing.T) {
	v := BcryptVerifier{}

	// Rows written before the hashing switch still hold plaintext.
	assert.True(t, v.Verify("pw1", "pw1"))
	assert.False(t, v.Verify("pw1", "pw2"))
}
