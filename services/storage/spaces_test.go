package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptKey(t *testing.T) {
	assert.Equal(t, "receipts/42/Receipt.pdf", ReceiptKey(42))
}

func TestSpacesConfigConfigured(t *testing.T) {
	assert.False(t, SpacesConfig{}.Configured())
	assert.True(t, SpacesConfig{AccessKey: "a", SecretKey: "s", Bucket: "b", Endpoint: "nyc3.digitaloceanspaces.com"}.Configured())
}

func TestPresignGetIsOffline(t *testing.T) {
	client, err := NewSpacesClient(SpacesConfig{
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Bucket:    "receipts-bucket",
		Region:    "nyc3",
		Endpoint:  "https://nyc3.digitaloceanspaces.com",
	})
	require.NoError(t, err)

	url, err := client.PresignGet(ReceiptKey(7), 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "receipts/7/Receipt.pdf"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=600")
}
