package passgen

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigMarshalParseRoundTrip(t *testing.T) {
	cfg := Config{UseNums: true, UseLetters: false, UseSpecials: true, Length: 42}

	parsed, err := ParseConfig(cfg.Marshal())
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}
	if parsed != cfg {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, cfg)
	}
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	if _, err := ParseConfig([]byte{0, 0, 0, 25}); err == nil {
		t.Fatal("config with no symbol class accepted")
	}
	if _, err := ParseConfig([]byte{1, 1, 1, 7}); err == nil {
		t.Fatal("config with too-short length accepted")
	}
	if _, err := ParseConfig([]byte{1, 1, 1, 64}); err == nil {
		t.Fatal("config with too-long length accepted")
	}
	if _, err := ParseConfig([]byte{1, 1, 1}); err == nil {
		t.Fatal("short config accepted")
	}
}

func TestGenerateUsesOnlySelectedClasses(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		allowed string
	}{
		{"numsOnly", Config{UseNums: true, Length: 20}, "0123456789"},
		{"lettersOnly", Config{UseLetters: true, Length: 20},
			"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{"all", DefaultConfig(),
			"0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" +
				`!@#$%^&*()-_=+[{}]\|;:'",<.>/?`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			buf := make([]byte, MaxPasswordSize)
			n, err := gen.Generate(buf)
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if n != int(tc.cfg.Length) {
				t.Fatalf("generated %d characters, want %d", n, tc.cfg.Length)
			}
			if buf[n] != 0 {
				t.Fatal("generated password is not zero-terminated")
			}

			for i := 0; i < n; i++ {
				if !strings.ContainsRune(tc.allowed, rune(buf[i])) {
					t.Fatalf("character %q outside selected classes", buf[i])
				}
			}
		})
	}
}

func TestGenerateClampsToBuffer(t *testing.T) {
	gen, err := New(Config{UseLetters: true, Length: 63})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	buf := make([]byte, 17)
	n, err := gen.Generate(buf)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if n != 16 {
		t.Fatalf("generated %d characters into a 17-byte buffer, want 16", n)
	}
}

func TestGenerateVaries(t *testing.T) {
	gen, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	a := make([]byte, MaxPasswordSize)
	b := make([]byte, MaxPasswordSize)
	if _, err := gen.Generate(a); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := gen.Generate(b); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if bytes.Equal(a, b) {
		t.Fatal("two generated passwords are identical")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]byte("Hunter2!")); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := Validate([]byte("short")); err == nil {
		t.Fatal("too-short password accepted")
	}
	if err := Validate(bytes.Repeat([]byte{'a'}, MaxPasswordLen+1)); err == nil {
		t.Fatal("too-long password accepted")
	}
	if err := Validate([]byte("tab\tcharacter")); err == nil {
		t.Fatal("non-printable password accepted")
	}
}

func TestPrintable(t *testing.T) {
	if !Printable("all printable ASCII ~!") {
		t.Fatal("printable string rejected")
	}
	if Printable("newline\n") {
		t.Fatal("newline accepted")
	}
	if Printable("nul\x00byte") {
		t.Fatal("zero byte accepted")
	}
	if !Printable("") {
		t.Fatal("empty string rejected")
	}
}
