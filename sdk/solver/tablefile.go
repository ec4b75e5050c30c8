package solver

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lox/blackjackforbots/internal/fileutil"
	"github.com/lox/blackjackforbots/internal/game"
)

const tableFileVersion = 1

var (
	// ErrUnsupportedVersion is returned when a table or checkpoint file was
	// written by an incompatible format version.
	ErrUnsupportedVersion = errors.New("unsupported file version")

	// ErrKeySchemeMismatch reports that a table was trained with a different
	// counting setting than the caller intends to use it with.
	ErrKeySchemeMismatch = errors.New("key scheme mismatch")
)

// TableFile is the on-disk form of a trained QTable.
type TableFile struct {
	Version     int                     `json:"version"`
	GeneratedAt time.Time               `json:"generated_at"`
	Episodes    int                     `json:"episodes"`
	Counting    bool                    `json:"counting"`
	Values      map[string]ActionValues `json:"values"`
}

// NewTableFile snapshots q.
func NewTableFile(q *QTable, episodes int, counting bool, now time.Time) *TableFile {
	return &TableFile{
		Version:     tableFileVersion,
		GeneratedAt: now.UTC(),
		Episodes:    episodes,
		Counting:    counting,
		Values:      encodeValues(q),
	}
}

// Save writes the file as JSON, gzip-compressed when path ends in ".gz".
func (f *TableFile) Save(path string) error {
	if f == nil {
		return errors.New("nil table file")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	return saveJSON(path, f)
}

// LoadTableFile reads a table written by Save. Compression is detected from
// the content, not the file name.
func LoadTableFile(path string) (*TableFile, error) {
	var tf TableFile
	if err := loadJSON(path, &tf); err != nil {
		return nil, err
	}
	if tf.Version != tableFileVersion {
		return nil, fmt.Errorf("%w: table version %d", ErrUnsupportedVersion, tf.Version)
	}
	return &tf, nil
}

// Table rebuilds the in-memory table. Entries with unparseable keys are
// rejected.
func (f *TableFile) Table() (*QTable, error) {
	return decodeValues(f.Values)
}

// Check returns ErrKeySchemeMismatch when the file's counting setting differs
// from counting. Lookups with the wrong scheme never match and fall back to
// the zero vector, so callers usually warn rather than fail.
func (f *TableFile) Check(counting bool) error {
	if f.Counting != counting {
		return fmt.Errorf("%w: table counting=%t, requested counting=%t", ErrKeySchemeMismatch, f.Counting, counting)
	}
	return nil
}

func encodeValues(q *QTable) map[string]ActionValues {
	out := make(map[string]ActionValues, q.Len())
	for key, v := range q.values {
		out[key.String()] = v
	}
	return out
}

func decodeValues(in map[string]ActionValues) (*QTable, error) {
	q := NewQTable()
	for raw, v := range in {
		key, err := game.ParseStateKey(raw)
		if err != nil {
			return nil, err
		}
		q.Set(key, v)
	}
	return q, nil
}

func saveJSON(path string, v any) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		if !strings.HasSuffix(path, ".gz") {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
		zw := gzip.NewWriter(w)
		if err := json.NewEncoder(zw).Encode(v); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	})
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
