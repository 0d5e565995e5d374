package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters for key derivation
	Argon2Time      uint32 = 1
	Argon2Memory    uint32 = 64 * 1024 // 64 MB
	Argon2Threads   uint8  = 4
	Argon2KeyLength uint32 = 32 // 256 bits for AES-256

	// Salt length for key derivation
	SaltLength = 32
)

// payloadSalt scopes derived keys to stored processor callbacks. Rotating the
// secret is the supported way to rotate the key.
var payloadSalt = []byte("synergetics/payment-callback-logs/v1")

var (
	ErrInvalidKeyLength = errors.New("invalid key length")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// GenerateSalt generates a cryptographically secure random salt
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives an encryption key from a password and salt using Argon2id
func DeriveKey(password string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(password),
		salt,
		Argon2Time,
		Argon2Memory,
		Argon2Threads,
		Argon2KeyLength,
	)
}

// EncryptData encrypts arbitrary data using AES-256-GCM
func EncryptData(data []byte, encryptionKey []byte) (encrypted []byte, nonce []byte, err error) {
	gcm, err := newGCM(encryptionKey)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	encrypted = gcm.Seal(nil, nonce, data, nil)
	return encrypted, nonce, nil
}

// DecryptData decrypts data produced by EncryptData
func DecryptData(encrypted []byte, nonce []byte, encryptionKey []byte) ([]byte, error) {
	gcm, err := newGCM(encryptionKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != int(Argon2KeyLength) {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// PayloadSealer encrypts processor callback payloads before they are stored.
type PayloadSealer struct {
	key []byte
}

// NewPayloadSealer derives the sealing key from secret. It returns nil when
// secret is empty, and a nil sealer stores payloads in the clear.
func NewPayloadSealer(secret string) *PayloadSealer {
	if secret == "" {
		return nil
	}
	return &PayloadSealer{key: DeriveKey(secret, payloadSalt)}
}

// Seal encrypts data. A nil sealer returns data unchanged with an empty nonce.
func (s *PayloadSealer) Seal(data []byte) (sealed []byte, nonce []byte, err error) {
	if s == nil {
		return data, nil, nil
	}
	return EncryptData(data, s.key)
}

// Open reverses Seal. Payloads stored without a nonce are returned as is.
func (s *PayloadSealer) Open(sealed []byte, nonce []byte) ([]byte, error) {
	if len(nonce) == 0 {
		return sealed, nil
	}
	if s == nil {
		return nil, fmt.Errorf("%w: payload is sealed but no key is configured", ErrDecryptionFailed)
	}
	return DecryptData(sealed, nonce, s.key)
}
