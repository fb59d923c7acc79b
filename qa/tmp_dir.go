package qa

import (
	"os"
	"path/filepath"
	"testing"
)

// Root creates new test directory
func Root(t *testing.T, callback func(dir string)) {
	tmpDir, err := os.MkdirTemp("", "go-throttle")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Fatal(err)
		}
	}()

	callback(tmpDir)
}

// WriteFile writes body to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir string, name string, body string) string {
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return filename
}
