package krypto_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pwmkit/pwm/krypto"
)

func testKey() []byte {
	key := make([]byte, krypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func testNonce() []byte {
	return bytes.Repeat([]byte{0x42}, krypto.NonceSize)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey()
	nonce := testNonce()
	plaintext := []byte("alice\nHunter2!hunter2!hunter2!A\nwork account")

	ciphertext, tag, err := krypto.Encrypt(key, nonce, plaintext)
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if len(ciphertext) != len(plaintext) {
		t.Fatalf("ciphertext length %d, want %d", len(ciphertext), len(plaintext))
	}
	if len(tag) != krypto.TagSize {
		t.Fatalf("tag length %d, want %d", len(tag), krypto.TagSize)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}

	recovered, err := krypto.Decrypt(key, nonce, ciphertext, tag)
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", recovered, plaintext)
	}
}

func TestDecryptRejectsFlippedCiphertext(t *testing.T) {
	key := testKey()
	nonce := testNonce()

	ciphertext, tag, err := krypto.Encrypt(key, nonce, []byte("some secret data"))
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	for i := range ciphertext {
		mutated := bytes.Clone(ciphertext)
		mutated[i] ^= 0x01

		if _, err := krypto.Decrypt(key, nonce, mutated, tag); !errors.Is(err, krypto.ErrAuth) {
			t.Fatalf("flipped ciphertext byte %d: got %v, want ErrAuth", i, err)
		}
	}
}

func TestDecryptRejectsFlippedTag(t *testing.T) {
	key := testKey()
	nonce := testNonce()

	ciphertext, tag, err := krypto.Encrypt(key, nonce, []byte("some secret data"))
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	for i := range tag {
		mutated := bytes.Clone(tag)
		mutated[i] ^= 0x80

		if _, err := krypto.Decrypt(key, nonce, ciphertext, mutated); !errors.Is(err, krypto.ErrAuth) {
			t.Fatalf("flipped tag byte %d: got %v, want ErrAuth", i, err)
		}
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	nonce := testNonce()

	ciphertext, tag, err := krypto.Encrypt(testKey(), nonce, []byte("some secret data"))
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	wrong := testKey()
	wrong[0] ^= 0xff
	if _, err := krypto.Decrypt(wrong, nonce, ciphertext, tag); !errors.Is(err, krypto.ErrAuth) {
		t.Fatalf("wrong key: got %v, want ErrAuth", err)
	}
}

func TestDecryptRejectsBadTagLength(t *testing.T) {
	key := testKey()
	nonce := testNonce()

	ciphertext, tag, err := krypto.Encrypt(key, nonce, []byte("data"))
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	if _, err := krypto.Decrypt(key, nonce, ciphertext, tag[:krypto.TagSize-1]); err == nil {
		t.Fatal("short tag accepted")
	}
	if _, err := krypto.Decrypt(key, nonce, ciphertext, append(tag, 0)); err == nil {
		t.Fatal("long tag accepted")
	}
}

func TestEncryptRejectsBadSizes(t *testing.T) {
	if _, _, err := krypto.Encrypt(make([]byte, 16), testNonce(), []byte("x")); err == nil {
		t.Fatal("short key accepted")
	}
	if _, _, err := krypto.Encrypt(testKey(), make([]byte, 8), []byte("x")); err == nil {
		t.Fatal("short nonce accepted")
	}
}
