package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadSealerRoundTrip(t *testing.T) {
	sealer := NewPayloadSealer("callback-secret")
	require.NotNil(t, sealer)

	payload := []byte(`{"decision":"ACCEPT","req_reference_number":"42"}`)
	sealed, nonce, err := sealer.Seal(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, nonce)
	assert.NotEqual(t, payload, sealed)

	opened, err := sealer.Open(sealed, nonce)
	require.NoError(t, err)
	assert.Equal(t, payload, opened)
}

func TestPayloadSealerWrongKey(t *testing.T) {
	sealed, nonce, err := NewPayloadSealer("first").Seal([]byte("hello"))
	require.NoError(t, err)

	_, err = NewPayloadSealer("second").Open(sealed, nonce)
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestNilSealerStoresInTheClear(t *testing.T) {
	var sealer *PayloadSealer = NewPayloadSealer("")
	assert.Nil(t, sealer)

	sealed, nonce, err := sealer.Seal([]byte("plain"))
	require.NoError(t, err)
	assert.Empty(t, nonce)
	assert.Equal(t, []byte("plain"), sealed)

	opened, err := sealer.Open(sealed, nonce)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), opened)

	_, err = sealer.Open([]byte("x"), []byte("nonce"))
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestEncryptDataRejectsShortKey(t *testing.T) {
	_, _, err := EncryptData([]byte("x"), []byte("short"))
	assert.Equal(t, ErrInvalidKeyLength, err)
}
