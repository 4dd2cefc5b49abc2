package encrypt

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/i5heu/ouroboros-seal/pkg/keyring"
)

// XChaCha20 is the default encryptor. The extended 24-byte nonce makes
// random nonces safe at any write volume.
type XChaCha20 struct{}

func NewXChaCha20() XChaCha20 { return XChaCha20{} }

func (XChaCha20) Method() uint8  { return MethodXChaCha20 }
func (XChaCha20) Name() string   { return "xchacha20-poly1305" }
func (XChaCha20) NonceSize() int { return chacha20poly1305.NonceSizeX }

func (x XChaCha20) Encrypt(plaintext []byte, key keyring.Key, nonce []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305 AEAD: %w", err)
	}

	if nonce == nil {
		nonce = make([]byte, chacha20poly1305.NonceSizeX)
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("failed to generate nonce: %w", err)
		}
	} else if len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("encrypt: nonce must be %d bytes, got %d", chacha20poly1305.NonceSizeX, len(nonce))
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return append(sealed, nonce...), nil
}

func (x XChaCha20) Decrypt(sealed []byte, key keyring.Key) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, ErrCiphertextTooShort
	}

	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305 AEAD: %w", err)
	}

	split := len(sealed) - chacha20poly1305.NonceSizeX
	ciphertext, nonce := sealed[:split], sealed[split:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
