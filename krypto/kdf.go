package krypto

import (
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of every KDF salt in bytes.
const SaltSize = 32

// Argon2id cost parameters. Deliberately slow: a derivation is meant to take
// on the order of a second.
const (
	argonTime    = 100
	argonMemory  = 8192 // KiB
	argonThreads = 4
)

// Labels separating the vault's key-derivation domains. Deriving with
// different labels from the same passphrase and salt yields independent
// keys.
const (
	LabelData  = "data"
	LabelNames = "names"
	LabelFiles = "files"
)

// DeriveKey derives outLen bytes from the passphrase using Argon2id. The
// label bytes are appended to the salt before derivation; the Argon2
// implementation here does not expose the associated-data input, and
// folding the label into the salt provides the same domain separation.
func DeriveKey(passphrase, salt []byte, label string, outLen uint32) []byte {
	input := make([]byte, 0, len(salt)+len(label))
	input = append(input, salt...)
	input = append(input, label...)

	return argon2.IDKey(passphrase, input, argonTime, argonMemory, argonThreads, outLen)
}

// DeriveName derives a lowercase hex name of hexLen characters. hexLen must
// be even; the underlying key material is hexLen/2 bytes of DeriveKey
// output.
func DeriveName(passphrase, salt []byte, label string, hexLen int) string {
	raw := DeriveKey(passphrase, salt, label, uint32(hexLen/2))
	name := hex.EncodeToString(raw)

	for i := range raw {
		raw[i] = 0
	}
	return name
}
