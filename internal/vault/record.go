package vault

import (
	"fmt"

	"github.com/pwmkit/pwm/internal/passgen"
	"github.com/pwmkit/pwm/krypto"
)

// Field sizes of the on-disk records. Every offset below is load-bearing;
// changing any of them breaks every existing vault.
const (
	// MaxItemName bounds item names and the name ciphertext.
	MaxItemName = 100
	// MaxUsername bounds the username field.
	MaxUsername = 100
	// MaxOtherInfo bounds the free-form notes field.
	MaxOtherInfo = 300

	// itemPlaintextSize is the fixed length of the zero-padded plaintext
	// inside every item record.
	itemPlaintextSize = MaxItemName + MaxUsername + passgen.MaxPasswordSize + MaxOtherInfo

	// formatVersion leads both records; unknown versions are corruption.
	formatVersion = 1

	// systemFileSize is version + three salts + config tag + config bytes.
	systemFileSize = 1 + 3*krypto.SaltSize + krypto.TagSize + passgen.ConfigSize

	// itemFileSize is version + name nonce/tag/ciphertext + data
	// salt/tag/ciphertext. Identical for every item.
	itemFileSize = 1 + krypto.NonceSize + krypto.TagSize + MaxItemName +
		krypto.SaltSize + krypto.TagSize + itemPlaintextSize

	// itemNamePrefixSize covers the fields an update must preserve
	// byte-for-byte: version, name nonce, name tag, name ciphertext.
	itemNamePrefixSize = 1 + krypto.NonceSize + krypto.TagSize + MaxItemName

	// fileNameHexLen is the length of a derived item filename.
	fileNameHexLen = 64
)

// dataNonce is the fixed nonce for config and item-data encryption. Safe
// only because those keys are derived from a salt that is rotated on every
// write; never reuse one of those keys.
var dataNonce [krypto.NonceSize]byte

// systemRecord is the single per-vault record holding the salts and the
// encrypted password-generation config.
type systemRecord struct {
	fileSalt     [krypto.SaltSize]byte
	nameSalt     [krypto.SaltSize]byte
	configSalt   [krypto.SaltSize]byte
	configTag    [krypto.TagSize]byte
	configCipher [passgen.ConfigSize]byte
}

func (r *systemRecord) marshal() []byte {
	buf := make([]byte, 0, systemFileSize)
	buf = append(buf, formatVersion)
	buf = append(buf, r.fileSalt[:]...)
	buf = append(buf, r.nameSalt[:]...)
	buf = append(buf, r.configSalt[:]...)
	buf = append(buf, r.configTag[:]...)
	buf = append(buf, r.configCipher[:]...)
	return buf
}

func parseSystemRecord(data []byte) (*systemRecord, error) {
	if len(data) != systemFileSize {
		return nil, fmt.Errorf("system record is %d bytes, want %d", len(data), systemFileSize)
	}
	if data[0] != formatVersion {
		return nil, fmt.Errorf("unknown system record version %d", data[0])
	}

	var r systemRecord
	data = data[1:]
	data = take(r.fileSalt[:], data)
	data = take(r.nameSalt[:], data)
	data = take(r.configSalt[:], data)
	data = take(r.configTag[:], data)
	take(r.configCipher[:], data)
	return &r, nil
}

// itemRecord is one stored credential. The name fields are written once at
// creation and preserved verbatim by updates; the data fields are rewritten
// under a fresh salt on every write.
type itemRecord struct {
	nameNonce  [krypto.NonceSize]byte
	nameTag    [krypto.TagSize]byte
	nameCipher [MaxItemName]byte
	dataSalt   [krypto.SaltSize]byte
	dataTag    [krypto.TagSize]byte
	dataCipher [itemPlaintextSize]byte
}

func (r *itemRecord) marshal() []byte {
	buf := make([]byte, 0, itemFileSize)
	buf = append(buf, formatVersion)
	buf = append(buf, r.nameNonce[:]...)
	buf = append(buf, r.nameTag[:]...)
	buf = append(buf, r.nameCipher[:]...)
	buf = append(buf, r.dataSalt[:]...)
	buf = append(buf, r.dataTag[:]...)
	buf = append(buf, r.dataCipher[:]...)
	return buf
}

func parseItemRecord(data []byte) (*itemRecord, error) {
	if len(data) != itemFileSize {
		return nil, fmt.Errorf("item record is %d bytes, want %d", len(data), itemFileSize)
	}
	if data[0] != formatVersion {
		return nil, fmt.Errorf("unknown item record version %d", data[0])
	}

	var r itemRecord
	data = data[1:]
	data = take(r.nameNonce[:], data)
	data = take(r.nameTag[:], data)
	data = take(r.nameCipher[:], data)
	data = take(r.dataSalt[:], data)
	data = take(r.dataTag[:], data)
	take(r.dataCipher[:], data)
	return &r, nil
}

// take copies len(dst) bytes from the front of src and returns the rest.
func take(dst, src []byte) []byte {
	copy(dst, src)
	return src[len(dst):]
}
