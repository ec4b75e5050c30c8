package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "table.json")
	testData := []byte(`{"version":1}`)

	if err := WriteFileAtomic(testFile, testData, 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("content mismatch: got %q, want %q", data, testData)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("permissions mismatch: got %o, want %o", info.Mode().Perm(), 0o644)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != "table.json" {
			t.Errorf("unexpected file in directory: %s", entry.Name())
		}
	}
}

func TestWriteAtomicCreatesParentDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs", "nested", "q.json.gz")
	err := WriteAtomic(path, 0o600, func(w io.Writer) error {
		_, err := w.Write([]byte("ok"))
		return err
	})
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file: %v", err)
	}
}

func TestWriteAtomicKeepsOldFileOnError(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "q.json")
	if err := WriteFileAtomic(path, []byte("initial"), 0o644); err != nil {
		t.Fatalf("initial write: %v", err)
	}

	boom := errors.New("boom")
	err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "initial" {
		t.Fatalf("old content should survive, got %q", data)
	}

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Fatalf("temp file leaked: %d entries", len(entries))
	}
}
