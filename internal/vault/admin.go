package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pwmkit/pwm/auth"
	"github.com/pwmkit/pwm/internal/debug"
	"github.com/pwmkit/pwm/internal/passgen"
	"github.com/pwmkit/pwm/internal/sensitive"
	"github.com/pwmkit/pwm/krypto"
	"github.com/pwmkit/pwm/store"
)

// Init creates the storage directory and the system record. It refuses to
// run against an already-initialized vault.
func (v *Vault) Init() error {
	exists, err := store.Exists(v.paths.System)
	if err != nil {
		return err
	}
	if exists {
		return UserError{Msg: "The vault is already initialized."}
	}

	master := v.readPassphrase("Create master passphrase: ")
	defer sensitive.Release(master)

	score, crackTime := auth.Strength(string(master))
	v.con.Say("Estimated time to crack: %s.", crackTime)
	if score < auth.WeakScore {
		v.con.Say("Warning: this passphrase is weak.  Consider a longer one.")
	}

	confirm := v.readPassphrase("Re-enter master passphrase: ")
	match := sensitive.Equal(master, confirm)
	sensitive.Release(confirm)
	if !match {
		return UserError{Msg: "Passphrases do not match."}
	}

	var rec systemRecord
	if err := krypto.Random(rec.fileSalt[:]); err != nil {
		return err
	}
	if err := krypto.Random(rec.nameSalt[:]); err != nil {
		return err
	}
	if err := krypto.Random(rec.configSalt[:]); err != nil {
		return err
	}

	cfg := passgen.DefaultConfig()
	gen, err := passgen.New(cfg)
	if err != nil {
		return err
	}
	v.gen = gen

	if err := v.sealConfig(&rec, master, cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(v.paths.Dir, 0o700); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	if err := store.Replace(v.paths.Temp, v.paths.System, rec.marshal(), 0o600); err != nil {
		return err
	}

	debug.Logf("initialized vault at %s", v.paths.Dir)
	v.con.Say("Vault initialized.")
	return nil
}

// Config authenticates, lets the user adjust the password-generation
// settings, and rewrites the system record under a fresh config salt. The
// file and name salts are preserved verbatim so every existing item stays
// addressable and decryptable.
func (v *Vault) Config() error {
	rec, master, err := v.authenticate()
	if err != nil {
		return err
	}
	defer sensitive.Release(master)

	cfg := v.promptConfig(v.gen.Config())

	gen, err := passgen.New(cfg)
	if err != nil {
		return err
	}
	v.gen = gen

	if err := krypto.Random(rec.configSalt[:]); err != nil {
		return err
	}
	if err := v.sealConfig(rec, master, cfg); err != nil {
		return err
	}

	return store.Replace(v.paths.Temp, v.paths.System, rec.marshal(), 0o600)
}

// promptConfig walks the user through the generation settings, refusing a
// configuration with every symbol class disabled.
func (v *Vault) promptConfig(current passgen.Config) passgen.Config {
	v.showConfig(current)

	for {
		next := passgen.Config{}

		v.con.Ask("Use numbers? %s ", defaultHint(current.UseNums))
		next.UseNums = v.con.YesNo(current.UseNums)

		v.con.Ask("Use letters? %s ", defaultHint(current.UseLetters))
		next.UseLetters = v.con.YesNo(current.UseLetters)

		v.con.Ask("Use special characters? %s ", defaultHint(current.UseSpecials))
		next.UseSpecials = v.con.YesNo(current.UseSpecials)

		if !next.UseNums && !next.UseLetters && !next.UseSpecials {
			v.con.Say("At least one symbol class must be enabled.")
			continue
		}

		v.con.Ask("Generated password length (%d-%d): ", passgen.MinPasswordLen, passgen.MaxPasswordLen)
		next.Length = uint8(v.con.Uint(passgen.MinPasswordLen, passgen.MaxPasswordLen))

		return next
	}
}

func (v *Vault) showConfig(cfg passgen.Config) {
	v.con.Say("Password generation uses:")
	v.con.Say("  Numbers: %s", yesNo(cfg.UseNums))
	v.con.Say("  Letters: %s", yesNo(cfg.UseLetters))
	v.con.Say("  Special characters: %s", yesNo(cfg.UseSpecials))
	v.con.Say("  Length: %d", cfg.Length)
}

// sealConfig encrypts cfg under a key derived from the record's config
// salt and stores the ciphertext and tag in the record.
func (v *Vault) sealConfig(rec *systemRecord, master []byte, cfg passgen.Config) error {
	key := v.deriveKey(master, rec.configSalt[:], krypto.LabelData)
	defer sensitive.Release(key)

	plain := cfg.Marshal()
	ct, tag, err := krypto.Encrypt(key, dataNonce[:], plain)
	sensitive.Zeroize(plain)
	if err != nil {
		return err
	}

	copy(rec.configCipher[:], ct)
	copy(rec.configTag[:], tag)
	return nil
}

// Destroy removes the storage directory and everything in it, after a
// double confirmation and authentication.
func (v *Vault) Destroy() error {
	exists, err := store.Exists(v.paths.System)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotInitialized
	}

	v.con.Ask("Destroy the vault and every stored item? (y/N) ")
	if !v.con.YesNo(false) {
		return UserError{Msg: "Aborted."}
	}
	v.con.Ask("Are you sure?  This cannot be undone. (y/N) ")
	if !v.con.YesNo(false) {
		return UserError{Msg: "Aborted."}
	}

	_, master, err := v.authenticate()
	if err != nil {
		return err
	}
	sensitive.Release(master)

	if err := store.RemoveTree(v.paths.Dir); err != nil {
		return err
	}

	v.con.Say("Vault destroyed.")
	return nil
}

// List prints every item name, sorted. Names are recovered by decrypting
// each record's name ciphertext; sorting after decryption hides any
// correspondence between on-disk filename order and item-name order.
func (v *Vault) List() error {
	rec, master, err := v.authenticate()
	if err != nil {
		return err
	}
	defer sensitive.Release(master)

	nameKey := v.deriveKey(master, rec.nameSalt[:], krypto.LabelNames)
	defer sensitive.Release(nameKey)

	entries, err := os.ReadDir(v.paths.Dir)
	if err != nil {
		return fmt.Errorf("read storage directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !isItemFileName(entry.Name()) {
			continue
		}

		item, err := v.readItemRecord(filepath.Join(v.paths.Dir, entry.Name()))
		if err != nil {
			return err
		}

		plain, err := krypto.Decrypt(nameKey, item.nameNonce[:], item.nameCipher[:], item.nameTag[:])
		if err != nil {
			return fmt.Errorf("%w: item name for %s", ErrCorrupt, entry.Name())
		}

		names = append(names, trimZeros(plain))
		sensitive.Zeroize(plain)
	}

	sort.Strings(names)
	for _, name := range names {
		v.con.Say("%s", name)
	}
	return nil
}

// isItemFileName reports whether a directory entry looks like a derived
// item filename: exactly 64 lowercase hex digits. The system file, the
// temp file, and any stray residue fail this.
func isItemFileName(name string) bool {
	if len(name) != fileNameHexLen {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func trimZeros(plain []byte) string {
	for i, b := range plain {
		if b == 0 {
			return string(plain[:i])
		}
	}
	return string(plain)
}

func defaultHint(yes bool) string {
	if yes {
		return "(Y/n)"
	}
	return "(y/N)"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
