// Package secrets stores API keys at rest. Values produced by a SecretBox are
// tagged with a prefix; untagged values are plaintext and pass through
// Decrypt unchanged, so settings written before encryption was enabled keep
// working.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// prefix tags values sealed by a SecretBox.
const prefix = "sb1:"

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

var (
	ErrNoPassphrase = errors.New("value is encrypted but no passphrase is configured")
	ErrDecrypt      = errors.New("could not decrypt value")
)

// Decrypter turns a stored value into a plaintext key.
type Decrypter interface {
	Decrypt(stored string) (string, error)
}

// Encrypter turns a plaintext key into a value suitable for storage.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// Codec both encrypts and decrypts.
type Codec interface {
	Encrypter
	Decrypter
}

// IsEncrypted reports whether stored was produced by a SecretBox.
func IsEncrypted(stored string) bool {
	return strings.HasPrefix(stored, prefix)
}

// Plain stores values as-is. It refuses to decrypt sealed values.
type Plain struct{}

// Encrypt implements Encrypter.
func (Plain) Encrypt(plaintext string) (string, error) { return plaintext, nil }

// Decrypt implements Decrypter.
func (Plain) Decrypt(stored string) (string, error) {
	if IsEncrypted(stored) {
		return "", ErrNoPassphrase
	}
	return stored, nil
}

// SecretBox seals values with NaCl secretbox under a key derived from a
// passphrase with scrypt. Each value carries its own salt and nonce.
type SecretBox struct {
	passphrase []byte
	rand       io.Reader
}

// NewSecretBox creates a SecretBox for passphrase.
func NewSecretBox(passphrase string) *SecretBox {
	return &SecretBox{passphrase: []byte(passphrase), rand: rand.Reader}
}

// Encrypt implements Encrypter.
func (s *SecretBox) Encrypt(plaintext string) (string, error) {
	var salt [saltSize]byte
	if _, err := io.ReadFull(s.rand, salt[:]); err != nil {
		return "", fmt.Errorf("could not generate salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return "", fmt.Errorf("could not generate nonce: %w", err)
	}

	key, err := s.deriveKey(salt[:])
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(plaintext), &nonce, key)

	return prefix + base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt implements Decrypter.
func (s *SecretBox) Decrypt(stored string) (string, error) {
	if !IsEncrypted(stored) {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: value too short", ErrDecrypt)
	}

	salt := raw[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])

	key, err := s.deriveKey(salt)
	if err != nil {
		return "", err
	}

	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", fmt.Errorf("%w: wrong passphrase or corrupted value", ErrDecrypt)
	}
	return string(plain), nil
}

func (s *SecretBox) deriveKey(salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key(s.passphrase, salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("could not derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}

// ForPassphrase returns a SecretBox when passphrase is set and Plain otherwise.
func ForPassphrase(passphrase string) Codec {
	if passphrase == "" {
		return Plain{}
	}
	return NewSecretBox(passphrase)
}
