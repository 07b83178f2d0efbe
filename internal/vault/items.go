package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/pwmkit/pwm/auth"
	"github.com/pwmkit/pwm/internal/passgen"
	"github.com/pwmkit/pwm/internal/sensitive"
	"github.com/pwmkit/pwm/krypto"
	"github.com/pwmkit/pwm/store"
)

// Create stores a new item. The item name is encrypted under the immutable
// name salt with a fresh random nonce; the data fields are encrypted under
// a fresh data salt with the fixed nonce.
func (v *Vault) Create(name string) error {
	if err := validateItemName(name); err != nil {
		return err
	}

	rec, master, err := v.authenticate()
	if err != nil {
		return err
	}
	defer sensitive.Release(master)

	path := v.itemPath(rec, master, name)
	exists, err := store.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return UserError{Msg: "An item with that name already exists."}
	}

	username := v.promptField("Username", MaxUsername)

	password, err := v.readItemPassword()
	if err != nil {
		return err
	}
	defer sensitive.Release(password)

	other := v.promptField("Other info", MaxOtherInfo)

	v.con.Say("")
	v.con.Say("Item name: %s", name)
	v.con.Say("Username: %s", username)
	v.con.Say("Password: %s", password)
	v.con.Say("Other info: %s", other)
	v.con.Ask("Save this item? (Y/n) ")
	if !v.con.YesNo(true) {
		return UserError{Msg: "Aborted."}
	}

	var item itemRecord
	if err := krypto.Random(item.dataSalt[:]); err != nil {
		return err
	}
	if err := v.sealItemData(&item, rec, master, []byte(username), password, []byte(other)); err != nil {
		return err
	}

	nameKey := v.deriveKey(master, rec.nameSalt[:], krypto.LabelNames)
	defer sensitive.Release(nameKey)

	if err := krypto.Random(item.nameNonce[:]); err != nil {
		return err
	}

	namePlain := sensitive.Acquire(MaxItemName)
	copy(namePlain, name)
	ct, tag, err := krypto.Encrypt(nameKey, item.nameNonce[:], namePlain)
	sensitive.Release(namePlain)
	if err != nil {
		return err
	}
	copy(item.nameCipher[:], ct)
	copy(item.nameTag[:], tag)

	if err := store.WriteFile(path, item.marshal(), 0o600); err != nil {
		return err
	}

	v.con.Say("Item created.")
	return nil
}

// Get decrypts and displays one item.
func (v *Vault) Get(name string) error {
	if err := validateItemName(name); err != nil {
		return err
	}

	rec, master, err := v.authenticate()
	if err != nil {
		return err
	}
	defer sensitive.Release(master)

	item, err := v.readItemRecord(v.itemPath(rec, master, name))
	if err != nil {
		return err
	}

	plain, err := v.openItemData(item, master)
	if err != nil {
		return err
	}
	defer sensitive.Release(plain)

	username, password, other, err := splitItemPlaintext(plain)
	if err != nil {
		return err
	}

	v.con.Say("Item name: %s", name)
	v.con.Say("Username: %s", username)
	v.con.Say("Password: %s", password)
	v.con.Say("Other info: %s", other)

	v.con.Ask("Copy password to clipboard? (y/N) ")
	if v.con.YesNo(false) {
		if err := clipboard.WriteAll(string(password)); err != nil {
			v.con.Say("Clipboard unavailable: %v", err)
		} else {
			v.con.Say("Password copied to clipboard.")
		}
	}
	return nil
}

// Update rewrites an item's data fields under a fresh data salt. The name
// nonce, tag, and ciphertext from the existing record are preserved
// byte-for-byte; the item name never changes.
func (v *Vault) Update(name string) error {
	if err := validateItemName(name); err != nil {
		return err
	}

	rec, master, err := v.authenticate()
	if err != nil {
		return err
	}
	defer sensitive.Release(master)

	path := v.itemPath(rec, master, name)
	item, err := v.readItemRecord(path)
	if err != nil {
		return err
	}

	plain, err := v.openItemData(item, master)
	if err != nil {
		return err
	}

	curUser, curPwd, curOther, err := splitItemPlaintext(plain)
	if err != nil {
		sensitive.Release(plain)
		return err
	}

	username := string(curUser)
	other := string(curOther)
	password := sensitive.Acquire(passgen.MaxPasswordSize)[:len(curPwd)]
	copy(password, curPwd)
	sensitive.Release(plain)
	defer func() { sensitive.Release(password) }()

	changed := false
	for done := false; !done; {
		v.con.Ask("Change [u]sername, [p]assword, [o]ther info, or [d]one: ")
		switch strings.ToLower(v.con.Line(10)) {
		case "u", "username":
			username = v.promptField("Username", MaxUsername)
			changed = true
		case "p", "password":
			next, err := v.readItemPassword()
			if err != nil {
				return err
			}
			sensitive.Release(password)
			password = next
			changed = true
		case "o", "other", "other info":
			other = v.promptField("Other info", MaxOtherInfo)
			changed = true
		case "d", "done":
			done = true
		default:
			v.con.Say("I don't understand.")
		}
	}

	if !changed {
		v.con.Say("Nothing to update.")
		return nil
	}

	if err := krypto.Random(item.dataSalt[:]); err != nil {
		return err
	}
	if err := v.sealItemData(item, rec, master, []byte(username), password, []byte(other)); err != nil {
		return err
	}

	if err := store.Replace(v.paths.Temp, path, item.marshal(), 0o600); err != nil {
		return err
	}

	v.con.Say("Item updated.")
	return nil
}

// Delete unlinks an item after confirmation.
func (v *Vault) Delete(name string) error {
	if err := validateItemName(name); err != nil {
		return err
	}

	rec, master, err := v.authenticate()
	if err != nil {
		return err
	}
	defer sensitive.Release(master)

	path := v.itemPath(rec, master, name)
	exists, err := store.Exists(path)
	if err != nil {
		return err
	}
	if !exists {
		return UserError{Msg: "Item not found."}
	}

	v.con.Ask("Delete item %q? (y/N) ", name)
	if !v.con.YesNo(false) {
		return UserError{Msg: "Aborted."}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("unlink item: %w", err)
	}

	v.con.Say("Item deleted.")
	return nil
}

// readItemRecord loads and decodes one item file.
func (v *Vault) readItemRecord(path string) (*itemRecord, error) {
	data, err := store.ReadRecord(path, itemFileSize)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, UserError{Msg: "Item not found."}
		}
		if errors.Is(err, store.ErrShortRead) {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil, err
	}

	item, err := parseItemRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return item, nil
}

// openItemData decrypts an item's data ciphertext into a sensitive buffer
// the caller must release. A tag mismatch is corruption, not a passphrase
// problem; the passphrase was already proven against the config.
func (v *Vault) openItemData(item *itemRecord, master []byte) ([]byte, error) {
	key := v.deriveKey(master, item.dataSalt[:], krypto.LabelData)
	defer sensitive.Release(key)

	plain, err := krypto.Decrypt(key, dataNonce[:], item.dataCipher[:], item.dataTag[:])
	if err != nil {
		return nil, fmt.Errorf("%w: item data", ErrCorrupt)
	}

	buf := sensitive.Acquire(itemPlaintextSize)
	copy(buf, plain)
	sensitive.Zeroize(plain)
	return buf, nil
}

// sealItemData encrypts the joined, zero-padded fields under a key derived
// from the record's (fresh) data salt.
func (v *Vault) sealItemData(item *itemRecord, rec *systemRecord, master, username, password, other []byte) error {
	plain := buildItemPlaintext(username, password, other)
	defer sensitive.Release(plain)

	key := v.deriveKey(master, item.dataSalt[:], krypto.LabelData)
	defer sensitive.Release(key)

	ct, tag, err := krypto.Encrypt(key, dataNonce[:], plain)
	if err != nil {
		return err
	}

	copy(item.dataCipher[:], ct)
	copy(item.dataTag[:], tag)
	return nil
}

// promptField reads a printable line of bounded length.
func (v *Vault) promptField(label string, max int) string {
	for {
		v.con.Ask("%s: ", label)
		line := v.con.Line(max)
		if passgen.Printable(line) {
			return line
		}
		v.con.Say("Only printable characters can be used.")
	}
}

// readItemPassword obtains an item password, generated or typed, in a
// sensitive buffer. A typed password can be checked against known breach
// corpora before being accepted.
func (v *Vault) readItemPassword() ([]byte, error) {
	for {
		v.con.Ask("Generate password? (Y/n) ")
		if v.con.YesNo(true) {
			buf := sensitive.Acquire(passgen.MaxPasswordSize)
			n, err := v.gen.Generate(buf)
			if err != nil {
				sensitive.Release(buf)
				return nil, err
			}
			v.con.Say("Generated password: %s", buf[:n])
			return buf[:n], nil
		}

		pwd := v.readPassphrase("Password: ")

		v.con.Ask("Check it against known breaches? (y/N) ")
		if !v.con.YesNo(false) {
			return pwd, nil
		}

		count, err := auth.PwnedCount(context.Background(), pwd)
		if err != nil {
			v.con.Say("Breach check failed: %v", err)
			return pwd, nil
		}
		if count == 0 {
			v.con.Say("Not found in known breaches.")
			return pwd, nil
		}

		v.con.Say("This password appears in %d known breaches.", count)
		v.con.Ask("Use it anyway? (y/N) ")
		if v.con.YesNo(false) {
			return pwd, nil
		}
		sensitive.Release(pwd)
	}
}
