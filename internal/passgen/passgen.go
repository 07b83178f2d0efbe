// Package passgen generates passwords from a configurable symbol alphabet
// and owns the 4-byte serialized form of that configuration stored in the
// vault's system record.
package passgen

import (
	"errors"
	"fmt"

	"github.com/pwmkit/pwm/krypto"
)

// Password length rules, shared with the master passphrase.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 63
	// MaxPasswordSize is MaxPasswordLen plus room for a terminator in the
	// on-disk plaintext.
	MaxPasswordSize = MaxPasswordLen + 1
)

// ConfigSize is the serialized configuration length in bytes.
const ConfigSize = 4

// Symbol classes.
var (
	nums     = []byte("0123456789")
	letters  = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	specials = []byte(`!@#$%^&*()-_=+[{}]\|;:'",<.>/?`)
)

// Config holds the password-generation settings.
type Config struct {
	UseNums     bool
	UseLetters  bool
	UseSpecials bool
	Length      uint8
}

// DefaultConfig is what a fresh vault starts with.
func DefaultConfig() Config {
	return Config{
		UseNums:     true,
		UseLetters:  true,
		UseSpecials: true,
		Length:      25,
	}
}

// Marshal serializes the configuration into its fixed 4-byte form.
func (c Config) Marshal() []byte {
	buf := make([]byte, ConfigSize)
	buf[0] = flag(c.UseNums)
	buf[1] = flag(c.UseLetters)
	buf[2] = flag(c.UseSpecials)
	buf[3] = c.Length
	return buf
}

// ParseConfig deserializes a 4-byte configuration. A config no generator
// could have written is an error; the caller treats it as corruption.
func ParseConfig(data []byte) (Config, error) {
	if len(data) != ConfigSize {
		return Config{}, fmt.Errorf("config must be %d bytes, got %d", ConfigSize, len(data))
	}

	c := Config{
		UseNums:     data[0] != 0,
		UseLetters:  data[1] != 0,
		UseSpecials: data[2] != 0,
		Length:      data[3],
	}

	if !c.UseNums && !c.UseLetters && !c.UseSpecials {
		return Config{}, errors.New("config enables no symbol class")
	}
	if c.Length < MinPasswordLen || c.Length > MaxPasswordLen {
		return Config{}, fmt.Errorf("config length %d out of range", c.Length)
	}
	return c, nil
}

// Generator draws passwords from the alphabet selected by its Config.
type Generator struct {
	cfg      Config
	symbols  []byte
	maxIndex byte
}

// New builds a generator for the given configuration.
func New(cfg Config) (*Generator, error) {
	if _, err := ParseConfig(cfg.Marshal()); err != nil {
		return nil, err
	}

	g := &Generator{cfg: cfg}
	if cfg.UseNums {
		g.symbols = append(g.symbols, nums...)
	}
	if cfg.UseLetters {
		g.symbols = append(g.symbols, letters...)
	}
	if cfg.UseSpecials {
		g.symbols = append(g.symbols, specials...)
	}

	// Largest byte value that maps onto the alphabet without modulo bias.
	count := len(g.symbols)
	g.maxIndex = byte((256/count)*count - 1)

	return g, nil
}

// Config returns the generator's settings.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate fills buf with a freshly drawn password followed by a zero
// terminator; callers pass sensitive buffers. A buffer shorter than
// Length+1 bytes yields a password of len(buf)-1 characters. It returns the
// password length.
func (g *Generator) Generate(buf []byte) (int, error) {
	length := int(g.cfg.Length)
	if length > len(buf)-1 {
		length = len(buf) - 1
	}

	i := 0
	for i < length {
		var draw [MaxPasswordSize]byte
		if err := krypto.Random(draw[:]); err != nil {
			return 0, err
		}

		for _, b := range draw {
			if b > g.maxIndex {
				// Discard values that would bias the draw.
				continue
			}
			buf[i] = g.symbols[int(b)%len(g.symbols)]
			i++
			if i >= length {
				break
			}
		}

		for j := range draw {
			draw[j] = 0
		}
	}

	buf[length] = 0
	return length, nil
}

// Validate checks the password rules shared by item passwords and the
// master passphrase: printable characters only, bounded length. The
// returned error text is fit to show the user.
func Validate(pwd []byte) error {
	if !Printable(string(pwd)) {
		return errors.New("Only printable characters can be used.")
	}
	if len(pwd) < MinPasswordLen {
		return fmt.Errorf("Passwords must be at least %d characters.", MinPasswordLen)
	}
	if len(pwd) > MaxPasswordLen {
		return fmt.Errorf("Passwords must be at most %d characters.", MaxPasswordLen)
	}
	return nil
}

// Printable reports whether s consists entirely of printable ASCII.
func Printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
