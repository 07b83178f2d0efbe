package vault

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	storeDirName   = "PwmStore"
	systemFileName = "system"
	tempFileName   = "temp"
)

// Paths locates the vault on disk.
type Paths struct {
	Dir    string
	System string
	Temp   string
}

// ResolvePaths returns the storage paths. PWM_STORE overrides the default
// of $HOME/PwmStore; without an override, a missing HOME is fatal.
func ResolvePaths() (Paths, error) {
	dir := os.Getenv("PWM_STORE")
	if dir == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return Paths{}, errors.New("HOME is not set")
		}
		dir = filepath.Join(home, storeDirName)
	}

	return Paths{
		Dir:    dir,
		System: filepath.Join(dir, systemFileName),
		Temp:   filepath.Join(dir, tempFileName),
	}, nil
}
