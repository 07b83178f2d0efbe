package krypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Random fills buf with cryptographically strong random bytes. A short read
// is an error; callers must never proceed with partial randomness.
func Random(buf []byte) error {
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Errorf("read random bytes: %w", err)
	}
	return nil
}
