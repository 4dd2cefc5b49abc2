package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/i5heu/ouroboros-seal/pkg/keyring"
)

const gcmNonceSize = 12

// AESGCM is the AES-256-GCM encryptor, for deployments that want
// hardware-accelerated AES.
type AESGCM struct{}

func NewAESGCM() AESGCM { return AESGCM{} }

func (AESGCM) Method() uint8  { return MethodAESGCM }
func (AESGCM) Name() string   { return "aes-256-gcm" }
func (AESGCM) NonceSize() int { return gcmNonceSize }

func newGCM(key keyring.Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM AEAD: %w", err)
	}
	return aead, nil
}

func (a AESGCM) Encrypt(plaintext []byte, key keyring.Key, nonce []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if nonce == nil {
		nonce = make([]byte, gcmNonceSize)
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("failed to generate nonce: %w", err)
		}
	} else if len(nonce) != gcmNonceSize {
		return nil, fmt.Errorf("encrypt: nonce must be %d bytes, got %d", gcmNonceSize, len(nonce))
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return append(sealed, nonce...), nil
}

func (a AESGCM) Decrypt(sealed []byte, key keyring.Key) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcmNonceSize+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	split := len(sealed) - gcmNonceSize
	ciphertext, nonce := sealed[:split], sealed[split:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
