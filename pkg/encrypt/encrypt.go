// Package encrypt provides the authenticated-encryption stage of the
// storage pipeline. Each encryptor appends its nonce to the ciphertext
// so records stay self-describing: decryption needs only the key.
package encrypt

import (
	"errors"
	"fmt"

	"github.com/i5heu/ouroboros-seal/pkg/keyring"
)

// Method identifiers, stored in the layer descriptor's 5-bit
// implementation field. On-disk values, do not renumber.
const (
	MethodXChaCha20 uint8 = 0
	MethodAESGCM    uint8 = 1
)

var (
	// ErrCiphertextTooShort covers inputs shorter than nonce plus
	// authentication tag.
	ErrCiphertextTooShort = errors.New("encrypt: ciphertext too short")

	// ErrDecryptionFailed wraps AEAD open failures. Wrong key and
	// corrupted data are indistinguishable on purpose.
	ErrDecryptionFailed = errors.New("encrypt: decryption failed")
)

// Encryptor seals and opens byte payloads with a symmetric key. Encrypt
// appends the nonce after the ciphertext; Decrypt strips it back off.
// A nil nonce means generate a fresh random one, which is the only safe
// choice outside of tests.
type Encryptor interface {
	Method() uint8
	Name() string
	NonceSize() int
	Encrypt(plaintext []byte, key keyring.Key, nonce []byte) ([]byte, error)
	Decrypt(sealed []byte, key keyring.Key) ([]byte, error)
}

// MethodName resolves an encryptor method id for error messages about
// data written by a differently configured store.
func MethodName(method uint8) string {
	switch method {
	case MethodXChaCha20:
		return "xchacha20-poly1305"
	case MethodAESGCM:
		return "aes-256-gcm"
	default:
		return fmt.Sprintf("encryptor(%d)", method)
	}
}
