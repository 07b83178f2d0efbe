// Package vault implements the encrypted storage engine: the on-disk
// layout, the salt/key/label discipline, and every vault operation. All
// secrets flow through the sensitive-buffer pool; all persistence goes
// through the authenticated cipher.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/pwmkit/pwm/internal/debug"
	"github.com/pwmkit/pwm/internal/passgen"
	"github.com/pwmkit/pwm/internal/sensitive"
	"github.com/pwmkit/pwm/krypto"
	"github.com/pwmkit/pwm/store"
)

// Sentinel errors for the failure classes the command layer reports on.
var (
	// ErrCorrupt marks a record that is short, has an unknown version, or
	// failed tag verification.
	ErrCorrupt = errors.New("vault data corrupted")
	// ErrNotInitialized marks an operation run before init.
	ErrNotInitialized = errors.New("vault not initialized")
)

// UserError is a mistake the user can correct; its message is shown as-is.
type UserError struct {
	Msg string
}

func (e UserError) Error() string { return e.Msg }

// Console is the interactive surface the engine prompts through. The
// terminal implementation halts internally on unrecoverable read errors, so
// the methods return values only.
type Console interface {
	// Say prints a full message line.
	Say(format string, args ...any)
	// Ask prints a prompt without a trailing newline.
	Ask(format string, args ...any)
	// Line reads a line of at most max characters.
	Line(max int) string
	// YesNo reads a yes/no answer; empty input selects the default.
	YesNo(defaultYes bool) bool
	// Uint reads an unsigned integer within [min, max].
	Uint(min, max uint) uint
	// Secret reads a line of at most max characters with echo off.
	Secret(max int) []byte
}

// Vault binds the storage paths to a console for one command invocation.
type Vault struct {
	paths Paths
	con   Console
	gen   *passgen.Generator
}

// New returns a vault rooted at paths, prompting through con.
func New(paths Paths, con Console) *Vault {
	return &Vault{paths: paths, con: con}
}

// Generator exposes the password generator loaded by authenticate.
func (v *Vault) Generator() *passgen.Generator {
	return v.gen
}

// readSystemRecord loads and decodes the system file. A missing file means
// the vault was never initialized.
func (v *Vault) readSystemRecord() (*systemRecord, error) {
	data, err := store.ReadRecord(v.paths.System, systemFileSize)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		if errors.Is(err, store.ErrShortRead) {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil, err
	}

	rec, err := parseSystemRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return rec, nil
}

// authenticate proves the master passphrase against the encrypted config.
// Failed attempts back off exponentially and re-prompt; this path never
// terminates the process. On success the decrypted config is loaded into
// the password generator and the passphrase is returned in a sensitive
// buffer the caller must release.
func (v *Vault) authenticate() (*systemRecord, []byte, error) {
	rec, err := v.readSystemRecord()
	if err != nil {
		return nil, nil, err
	}

	delay := 1
	for {
		master := v.readPassphrase("Master passphrase: ")

		key := v.deriveKey(master, rec.configSalt[:], krypto.LabelData)
		plain, err := krypto.Decrypt(key, dataNonce[:], rec.configCipher[:], rec.configTag[:])
		sensitive.Release(key)

		if err != nil {
			if !errors.Is(err, krypto.ErrAuth) {
				sensitive.Release(master)
				return nil, nil, err
			}

			sensitive.Release(master)
			v.con.Say("Invalid passphrase.")
			for i := 0; i < delay; i++ {
				v.con.Ask(".")
				time.Sleep(time.Second)
			}
			v.con.Say("")
			delay *= 2
			continue
		}

		cfg, err := passgen.ParseConfig(plain)
		sensitive.Zeroize(plain)
		if err != nil {
			sensitive.Release(master)
			return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		gen, err := passgen.New(cfg)
		if err != nil {
			sensitive.Release(master)
			return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		v.gen = gen

		debug.Logf("authenticated against %s", v.paths.System)
		return rec, master, nil
	}
}

// readPassphrase reads a passphrase meeting the password rules into a
// sensitive buffer, re-prompting until it gets one.
func (v *Vault) readPassphrase(prompt string) []byte {
	for {
		v.con.Ask(prompt)
		raw := v.con.Secret(passgen.MaxPasswordLen)

		if err := passgen.Validate(raw); err != nil {
			sensitive.Zeroize(raw)
			v.con.Say(err.Error())
			continue
		}

		buf := sensitive.Acquire(len(raw))
		copy(buf, raw)
		sensitive.Zeroize(raw)
		return buf
	}
}

// deriveKey wraps the KDF so the derived key lives in the sensitive pool.
func (v *Vault) deriveKey(master, salt []byte, label string) []byte {
	raw := krypto.DeriveKey(master, salt, label, krypto.KeySize)

	key := sensitive.Acquire(krypto.KeySize)
	copy(key, raw)
	sensitive.Zeroize(raw)
	return key
}

// itemPath derives the on-disk path that hides name from directory
// listings: the filename is KDF output over the immutable file salt with
// the item name folded into the derivation label.
func (v *Vault) itemPath(rec *systemRecord, master []byte, name string) string {
	derived := krypto.DeriveName(master, rec.fileSalt[:], name+krypto.LabelFiles, fileNameHexLen)
	return filepath.Join(v.paths.Dir, derived)
}

// validateItemName enforces the item-name rules shared by every operation
// that takes a name argument.
func validateItemName(name string) error {
	if name == "" || len(name) > MaxItemName {
		return UserError{Msg: fmt.Sprintf("Item names must be 1 to %d characters.", MaxItemName)}
	}
	if !passgen.Printable(name) {
		return UserError{Msg: "Item names may only contain printable characters."}
	}
	return nil
}

// buildItemPlaintext joins the three fields with newlines and zero-pads to
// the fixed plaintext size, in a sensitive buffer.
func buildItemPlaintext(username, password, other []byte) []byte {
	buf := sensitive.Acquire(itemPlaintextSize)

	n := copy(buf, username)
	buf[n] = '\n'
	n++
	n += copy(buf[n:], password)
	buf[n] = '\n'
	n++
	copy(buf[n:], other)
	return buf
}

// splitItemPlaintext recovers the three fields: two newline-terminated
// tokens, then a token ending at the first zero byte of the padding. The
// fields are printable so the split is unambiguous; anything else is
// corruption.
func splitItemPlaintext(plain []byte) (username, password, other []byte, err error) {
	i := bytes.IndexByte(plain, '\n')
	if i < 0 {
		return nil, nil, nil, fmt.Errorf("%w: item plaintext has no username terminator", ErrCorrupt)
	}

	rest := plain[i+1:]
	j := bytes.IndexByte(rest, '\n')
	if j < 0 {
		return nil, nil, nil, fmt.Errorf("%w: item plaintext has no password terminator", ErrCorrupt)
	}

	tail := rest[j+1:]
	k := bytes.IndexByte(tail, 0)
	if k < 0 {
		return nil, nil, nil, fmt.Errorf("%w: item plaintext has no padding", ErrCorrupt)
	}

	return plain[:i], rest[:j], tail[:k], nil
}
