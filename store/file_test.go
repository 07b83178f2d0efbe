package store_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pwmkit/pwm/store"
)

func TestWriteFileReadRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record")
	data := bytes.Repeat([]byte{0xab}, 117)

	if err := store.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	got, err := store.ReadRecord(path, len(data))
	if err != nil {
		t.Fatalf("ReadRecord returned error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("read data does not match written data")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("file mode %o, want 600", perm)
		}
	}
}

func TestReadRecordShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short")
	if err := store.WriteFile(path, []byte("abc"), 0o600); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	if _, err := store.ReadRecord(path, 100); !errors.Is(err, store.ErrShortRead) {
		t.Fatalf("short file: got %v, want ErrShortRead", err)
	}
}

func TestReadRecordMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")

	if _, err := store.ReadRecord(path, 10); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file: got %v, want fs.ErrNotExist", err)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	ok, err := store.Exists(path)
	if err != nil || ok {
		t.Fatalf("Exists on missing file: %v %v", ok, err)
	}

	if err := store.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	ok, err = store.Exists(path)
	if err != nil || !ok {
		t.Fatalf("Exists on present file: %v %v", ok, err)
	}
}

func TestReplaceSwapsContent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	temp := filepath.Join(dir, "temp")

	if err := store.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	if err := store.Replace(temp, target, []byte("new"), 0o600); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("target content %q, want %q", got, "new")
	}

	if _, err := os.Lstat(temp); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("temp file left behind after Replace")
	}
}

func TestRemoveTree(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "root")

	if err := os.MkdirAll(filepath.Join(root, "sub", "subsub"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := store.WriteFile(filepath.Join(root, "sub", "f"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	outside := filepath.Join(dir, "outside")
	if err := store.WriteFile(outside, []byte("keep"), 0o600); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := store.RemoveTree(root); err != nil {
		t.Fatalf("RemoveTree returned error: %v", err)
	}

	if _, err := os.Lstat(root); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("tree still exists after RemoveTree")
	}
	if _, err := os.Lstat(outside); err != nil {
		t.Fatal("RemoveTree followed a symlink out of the tree")
	}

	// Removing a path that is already gone is fine.
	if err := store.RemoveTree(root); err != nil {
		t.Fatalf("RemoveTree of missing path returned error: %v", err)
	}
}

func TestRemoveTreeUnlinksPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	if err := store.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	if err := store.RemoveTree(path); err != nil {
		t.Fatalf("RemoveTree returned error: %v", err)
	}
	if _, err := os.Lstat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("file still exists after RemoveTree")
	}
}
