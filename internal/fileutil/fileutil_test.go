package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"factreel/internal/testsupport"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.srt")
	dst := filepath.Join(dir, "dst.srt")
	content := []byte("1\n00:00:00,000 --> 00:00:01,000\nhello\n")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestWriteAtomic(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "clip.mp4")
	n, err := WriteAtomic(dst, strings.NewReader("video-bytes"), 11)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if n != 11 {
		t.Fatalf("expected 11 bytes, got %d", n)
	}
	if _, err := os.Stat(dst + ".part"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file to be gone, stat err=%v", err)
	}
}

func TestWriteAtomic_SizeMismatch(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "clip.mp4")
	if _, err := WriteAtomic(dst, strings.NewReader("short"), 100); err == nil {
		t.Fatal("expected size mismatch error")
	}
	for _, path := range []string{dst, dst + ".part"} {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s to be removed, stat err=%v", path, err)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteAtomic_ReaderError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "clip.mp4")
	if _, err := WriteAtomic(dst, failingReader{}, -1); err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected reader error, got %v", err)
	}
	if _, err := os.Stat(dst); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no destination file, stat err=%v", err)
	}
}

func TestCopyFileLarge(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "narration.mp3")
	dst := filepath.Join(dir, "narration-copy.mp3")
	testsupport.WriteFile(t, src, 100*1024+7)

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 100*1024+7 {
		t.Fatalf("expected %d bytes, got %d", 100*1024+7, info.Size())
	}
}
