package krypto_test

import (
	"bytes"
	"testing"

	"github.com/pwmkit/pwm/krypto"
)

// The Argon2 parameters are deliberately expensive, so these tests keep the
// number of derivations small.

func TestDeriveKeyDeterministicAndLabelSeparated(t *testing.T) {
	passphrase := []byte("correct horse battery")
	salt := bytes.Repeat([]byte{0x5a}, krypto.SaltSize)

	data1 := krypto.DeriveKey(passphrase, salt, krypto.LabelData, krypto.KeySize)
	data2 := krypto.DeriveKey(passphrase, salt, krypto.LabelData, krypto.KeySize)
	names := krypto.DeriveKey(passphrase, salt, krypto.LabelNames, krypto.KeySize)

	if len(data1) != krypto.KeySize {
		t.Fatalf("derived key length %d, want %d", len(data1), krypto.KeySize)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatal("same inputs derived different keys")
	}
	if bytes.Equal(data1, names) {
		t.Fatal("distinct labels derived the same key")
	}
}

func TestDeriveNameStableHex(t *testing.T) {
	passphrase := []byte("correct horse battery")
	salt := bytes.Repeat([]byte{0x17}, krypto.SaltSize)

	name1 := krypto.DeriveName(passphrase, salt, "github"+krypto.LabelFiles, 64)
	name2 := krypto.DeriveName(passphrase, salt, "github"+krypto.LabelFiles, 64)
	other := krypto.DeriveName(passphrase, salt, "gitlab"+krypto.LabelFiles, 64)

	if name1 != name2 {
		t.Fatal("same inputs derived different names")
	}
	if name1 == other {
		t.Fatal("distinct item names derived the same filename")
	}
	if len(name1) != 64 {
		t.Fatalf("derived name length %d, want 64", len(name1))
	}
	for i := 0; i < len(name1); i++ {
		c := name1[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Fatalf("derived name contains non-hex character %q", c)
		}
	}
}
