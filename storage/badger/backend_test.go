package badger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	t.Run("empty path is in memory", func(t *testing.T) {
		backend, err := OpenBackend("", nil)
		require.NoError(t, err)
		defer backend.Close()

		assert.True(t, backend.db.Opts().InMemory)
	})

	t.Run("missing directory is created", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "db")
		backend, err := OpenBackend(dir, nil)
		require.NoError(t, err)
		defer backend.Close()

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("regular file is rejected", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "todoey.db")
		require.NoError(t, os.WriteFile(file, []byte("sqlite"), 0o644))

		backend, err := OpenBackend(file, nil)
		if err == nil {
			backend.Close()
		}
		assert.ErrorContains(t, err, "database directory")
	})
}

func TestBackend_Close(t *testing.T) {
	backend, err := OpenBackend("", nil)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestBackend_Update(t *testing.T) {
	backend, err := OpenBackend("", nil)
	require.NoError(t, err)
	defer backend.Close()

	read := func(key string) error {
		return backend.View(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte(key))
			return err
		})
	}

	t.Run("commits on success", func(t *testing.T) {
		err := backend.Update(func(tx *badger.Txn) error {
			return tx.Set([]byte("cat:work"), []byte("Work"))
		})
		require.NoError(t, err)
		assert.NoError(t, read("cat:work"))
	})

	t.Run("discards on error", func(t *testing.T) {
		err := backend.Update(func(tx *badger.Txn) error {
			if err := tx.Set([]byte("cat:home"), []byte("Home")); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.ErrorIs(t, read("cat:home"), badger.ErrKeyNotFound)
	})
}

func TestBackend_Sequence(t *testing.T) {
	backend, err := OpenBackend("", nil)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.Sequence(orderSeq)
	require.NoError(t, err)
	defer seq.Release()

	prev, err := seq.Next()
	require.NoError(t, err)
	for range 5 {
		next, err := seq.Next()
		require.NoError(t, err)
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slogLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))}

	l.Infof("replaying %d entries\n", 3)
	assert.Empty(t, buf.String(), "info is demoted to debug")

	l.Warningf("value log %s is large\n", "000001.vlog")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `msg="value log 000001.vlog is large"`)
}
