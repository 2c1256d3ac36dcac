package testsupport

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// mediaPattern stands in for encoded audio or video bytes.
var mediaPattern = []byte("factreel-media-")

// WriteFile creates path (and its parent directory) holding exactly size
// bytes of filler. Sizes below one are written as one byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	size = max(size, 1)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	filler := bytes.Repeat(mediaPattern, 1+int(size)/len(mediaPattern))
	if _, err := io.CopyN(f, bytes.NewReader(filler), size); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
