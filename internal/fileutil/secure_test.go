package fileutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSecureWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := SecureWriteFile(path, []byte("policy: {}\n")); err != nil {
		t.Fatalf("SecureWriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "policy: {}\n" {
		t.Fatalf("got %q", data)
	}
	assertOwnerOnly(t, path)
}

func TestSecureWriteFile_TightensExisting(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits are ignored on Windows")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := SecureWriteFile(path, []byte("new")); err != nil {
		t.Fatalf("SecureWriteFile: %v", err)
	}
	assertOwnerOnly(t, path)
}

func TestSecureMkdirAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".shellgate")

	if err := SecureMkdirAll(path); err != nil {
		t.Fatalf("SecureMkdirAll: %v", err)
	}
	// Second call must not fail
	if err := SecureMkdirAll(path); err != nil {
		t.Fatalf("second SecureMkdirAll: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected directory")
	}
	assertOwnerOnly(t, path)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("got %q, want %q", data, "second")
	}
	assertOwnerOnly(t, path)

	// No temporary files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.yaml")
	if err := WriteFileAtomic(path, []byte("x")); err == nil {
		t.Error("WriteFileAtomic into a missing directory succeeded")
	}
}
