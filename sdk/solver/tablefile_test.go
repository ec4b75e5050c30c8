package solver

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackforbots/internal/game"
)

func sampleTable() *QTable {
	q := NewQTable()
	q.Set(key(20, 10, false), ActionValues{-0.8, 0.45})
	q.Set(key(13, 2, true), ActionValues{0.1, -0.2})
	q.Set(game.StateKey{PlayerTotal: 16, DealerUp: 10, Count: game.CountHigh}, ActionValues{-0.3, -0.5})
	return q
}

func TestTableFileRoundTrip(t *testing.T) {
	for _, name := range []string{"table.json", "table.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

			require.NoError(t, NewTableFile(sampleTable(), 1234, false, now).Save(path))

			tf, err := LoadTableFile(path)
			require.NoError(t, err)
			assert.Equal(t, 1234, tf.Episodes)
			assert.True(t, now.Equal(tf.GeneratedAt))
			assert.False(t, tf.Counting)

			q, err := tf.Table()
			require.NoError(t, err)
			want := sampleTable()
			assert.Equal(t, want.Keys(), q.Keys())
			for _, k := range want.Keys() {
				assert.Equal(t, want.Values(k), q.Values(k))
			}
		})
	}
}

func TestTableFileGzipOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json.gz")
	require.NoError(t, NewTableFile(sampleTable(), 1, false, time.Now()).Save(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = gzip.NewReader(f)
	assert.NoError(t, err)
}

func TestLoadTableFileRejectsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	tf := NewTableFile(sampleTable(), 1, false, time.Now())
	tf.Version = tableFileVersion + 1
	require.NoError(t, tf.Save(path))

	_, err := LoadTableFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoadTableFileRejectsCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadTableFile(path)
	assert.Error(t, err)
}

func TestTableFileRejectsBadKey(t *testing.T) {
	tf := &TableFile{Version: tableFileVersion, Values: map[string]ActionValues{"twenty_10_0": {}}}
	_, err := tf.Table()
	assert.Error(t, err)
}

func TestTableFileCheck(t *testing.T) {
	tf := NewTableFile(sampleTable(), 1, true, time.Now())
	assert.NoError(t, tf.Check(true))
	assert.ErrorIs(t, tf.Check(false), ErrKeySchemeMismatch)
}
