// Package sensitive tracks every heap buffer that ever holds secret
// material. Buffers are wiped on release, and the whole pool can be wiped
// from the shutdown path without visiting any dynamic structure: the
// accounting is a fixed array of slots.
package sensitive

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/pwmkit/pwm/internal/report"
)

// poolSlots bounds how many sensitive buffers may be live at once.
const poolSlots = 128

var (
	mu    sync.Mutex
	slots [poolSlots][]byte
)

// Acquire returns an n-byte buffer tracked by the pool. Exhaustion of the
// pool is an internal error and halts the process.
func Acquire(n int) []byte {
	buf, err := acquire(n)
	if err != nil {
		report.Internal(err)
	}
	return buf
}

// Release wipes and untracks a buffer obtained from Acquire. Releasing a
// buffer the pool does not know is an internal error and halts the process.
func Release(buf []byte) {
	if err := release(buf); err != nil {
		report.Internal(err)
	}
}

func acquire(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid sensitive buffer size %d", n)
	}

	mu.Lock()
	defer mu.Unlock()

	for i := range slots {
		if slots[i] == nil {
			slots[i] = make([]byte, n)
			return slots[i], nil
		}
	}
	return nil, errors.New("sensitive buffer pool exhausted")
}

func release(buf []byte) error {
	if len(buf) == 0 {
		return errors.New("release of empty sensitive buffer")
	}

	mu.Lock()
	defer mu.Unlock()

	// Match on the backing pointer so a caller may release a prefix
	// reslice of what Acquire returned; the full slot is wiped either way.
	for i := range slots {
		if slots[i] != nil && &slots[i][0] == &buf[0] {
			Zeroize(slots[i])
			slots[i] = nil
			return nil
		}
	}
	return errors.New("release of untracked sensitive buffer")
}

// ZeroizeAll wipes every live buffer in place without untracking it. It is
// the shutdown hook run on normal exit and on caught fatal signals.
func ZeroizeAll() {
	mu.Lock()
	defer mu.Unlock()

	for i := range slots {
		if slots[i] != nil {
			Zeroize(slots[i])
		}
	}
}

// Zeroize overwrites buf with zero bytes.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// Equal compares two buffers in time independent of the position of the
// first differing byte. Buffers of different lengths are unequal.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
