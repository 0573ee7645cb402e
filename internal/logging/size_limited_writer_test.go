package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSizeLimitedWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("earlier run\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	w, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("this run\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "earlier run\nthis run\n" {
		t.Fatalf("log contents = %q", data)
	}
}

func TestSizeLimitedWriterTruncatesPastLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()

	chunk := make([]byte, 700*1024)
	if _, err := w.Write(chunk); err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	// The second chunk would exceed 1MB; the file is truncated first so
	// only the latest write survives.
	if _, err := w.Write(chunk); err != nil {
		t.Fatalf("write chunk: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() != 700*1024 {
		t.Fatalf("expected only the latest chunk, got %d bytes", info.Size())
	}
}

func TestSizeLimitedWriterReopensAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newSizeLimitedWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if _, err := w.Write([]byte("before\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := w.Write([]byte("after\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	defer w.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "before\nafter\n" {
		t.Fatalf("log contents = %q", data)
	}
}

func TestSizeLimitedWriterDefaultsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newSizeLimitedWriter(path, 0)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()

	if w.maxBytes != 10*1024*1024 {
		t.Fatalf("maxBytes = %d, want 10MB default", w.maxBytes)
	}
}
