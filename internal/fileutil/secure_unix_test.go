//go:build !windows

package fileutil

import (
	"os"
	"testing"
)

// assertOwnerOnly verifies the mode bits exclude group and other access.
func assertOwnerOnly(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat %s: %v", path, err)
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		t.Errorf("%s has group/other permissions: %04o", path, mode)
	}
}
