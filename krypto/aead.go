package krypto

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the cipher key length in bytes.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the cipher nonce length in bytes.
	NonceSize = chacha20poly1305.NonceSize
	// TagSize is the authentication tag length in bytes.
	TagSize = chacha20poly1305.Overhead
)

// ErrAuth is returned by Decrypt when the authentication tag does not
// verify. It is the only signal distinguishing a wrong key from a tampered
// blob; callers decide which it means.
var ErrAuth = errors.New("authentication failed")

// Encrypt seals plaintext with ChaCha20-Poly1305, returning the ciphertext
// and tag separately. Associated data is always empty. The ciphertext has
// the same length as the plaintext.
func Encrypt(key, nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return sealed[:len(plaintext)], sealed[len(plaintext):], nil
}

// Decrypt opens ciphertext sealed by Encrypt. A tag that fails to verify
// yields ErrAuth and no plaintext.
func Decrypt(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	if len(tag) != TagSize {
		return nil, fmt.Errorf("tag must be %d bytes, got %d", TagSize, len(tag))
	}

	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuth
	}
	return plaintext, nil
}

func newAEAD(key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	return chacha20poly1305.New(key)
}
