// Package keyring derives and holds the symmetric keys used by the
// encryption stage.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// KeySize is the byte length of every key: both supported ciphers take
// a 256-bit key.
const KeySize = 32

// deriveContext namespaces passphrase derivation so the same passphrase
// used by another tool yields an unrelated key.
const deriveContext = "ouroboros-seal 2025-01-10 record encryption key"

var ErrBadKeyLength = errors.New("keyring: key must be 32 bytes")

// Key is a 256-bit symmetric key.
type Key [KeySize]byte

// Random returns a fresh key from the system CSPRNG.
func Random() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return k, nil
}

// FromPassphrase derives a key from a human-supplied passphrase using
// BLAKE3's key derivation mode. The optional salt is mixed into the
// input material; a store opened with a salt must supply the same salt
// on every open, or its records become unreadable.
func FromPassphrase(passphrase string, salt []byte) Key {
	material := make([]byte, 0, len(salt)+len(passphrase))
	material = append(material, salt...)
	material = append(material, passphrase...)

	var k Key
	blake3.DeriveKey(deriveContext, material, k[:])
	return k
}

// FromBytes copies raw key material, rejecting wrong lengths.
func FromBytes(raw []byte) (Key, error) {
	if len(raw) != KeySize {
		return Key{}, fmt.Errorf("%w, got %d", ErrBadKeyLength, len(raw))
	}
	var k Key
	copy(k[:], raw)
	return k, nil
}

// FromHex parses a 64-character hex string, the form keys take in
// config files.
func FromHex(s string) (Key, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("failed to parse hex key: %w", err)
	}
	return FromBytes(raw)
}

func (k Key) Bytes() []byte { return k[:] }

// String redacts the key so it cannot leak through logging.
func (k Key) String() string { return "keyring.Key(redacted)" }
