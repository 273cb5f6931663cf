package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withKey(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, SetEncryptionKey(key))
	t.Cleanup(func() { encryptionKey = nil })
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	withKey(t, "unit-test-key")

	cipherText, err := Encrypt("AQVzecrettoken123")
	require.NoError(t, err)
	assert.NotEqual(t, "AQVzecrettoken123", cipherText)

	plain, err := Decrypt(cipherText)
	require.NoError(t, err)
	assert.Equal(t, "AQVzecrettoken123", plain)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	withKey(t, "unit-test-key")

	a, err := Encrypt("same input")
	require.NoError(t, err)
	b, err := Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptLegacyPlaintextPassesThrough(t *testing.T) {
	withKey(t, "unit-test-key")

	// Not valid base64: treated as a pre-encryption token.
	plain, err := Decrypt("raw-legacy-token!!")
	require.NoError(t, err)
	assert.Equal(t, "raw-legacy-token!!", plain)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	withKey(t, "key-one")
	cipherText, err := Encrypt("token")
	require.NoError(t, err)

	require.NoError(t, SetEncryptionKey("key-two"))
	_, err = Decrypt(cipherText)
	assert.Error(t, err)
}

func TestNoKeyPassesThrough(t *testing.T) {
	encryptionKey = nil

	cipherText, err := Encrypt("token")
	require.NoError(t, err)
	assert.Equal(t, "token", cipherText)

	plain, err := Decrypt("token")
	require.NoError(t, err)
	assert.Equal(t, "token", plain)
}
