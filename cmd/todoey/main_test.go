package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/todoey/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the app with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"todoey"}, args...))
	return out.String(), err
}

// firstField returns the leading tab-separated field of the first output line.
func firstField(t *testing.T, out string) string {
	t.Helper()
	line, _, _ := strings.Cut(out, "\n")
	id, _, ok := strings.Cut(line, "\t")
	require.True(t, ok, "unexpected output %q", out)
	return id
}

func TestGlobalFlags(t *testing.T) {
	app := newApp()

	find := func(name string) cli.Flag {
		for _, flag := range app.Flags {
			for _, n := range flag.Names() {
				if n == name {
					return flag
				}
			}
		}
		return nil
	}

	t.Run("backend defaults to sqlite and reads TODOEY_BACKEND", func(t *testing.T) {
		f, ok := find("backend").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "sqlite", f.Value)
		assert.Equal(t, []string{"TODOEY_BACKEND"}, f.EnvVars)
		assert.Contains(t, f.Names(), "b")
	})

	t.Run("path reads TODOEY_PATH", func(t *testing.T) {
		f, ok := find("path").(*cli.StringFlag)
		require.True(t, ok)
		assert.Empty(t, f.Value)
		assert.Equal(t, []string{"TODOEY_PATH"}, f.EnvVars)
	})

	t.Run("log level defaults to info", func(t *testing.T) {
		f, ok := find("l").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "info", f.Value)
	})

	t.Run("no-color exists", func(t *testing.T) {
		assert.NotNil(t, find("no-color"))
	})
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "categories", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestUnknownBackend(t *testing.T) {
	_, err := run(t, "-b", "realm", "categories", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestMissingArguments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoey.db")

	tests := [][]string{
		{"categories", "add"},
		{"categories", "rename", "abc"},
		{"categories", "rm"},
		{"items", "add"},
		{"items", "toggle"},
		{"items", "rename", "abc"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, append([]string{"-p", path}, args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing")
		})
	}
}

func TestCategoriesAndItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoey.db")
	global := []string{"-b", "sqlite", "-p", path}
	exec := func(args ...string) string {
		t.Helper()
		out, err := run(t, append(global, args...)...)
		require.NoError(t, err)
		return out
	}

	work := firstField(t, exec("categories", "add", "Work"))
	exec("categories", "add", "Home")

	out := exec("categories", "list")
	assert.Contains(t, out, "\tWork\t")
	assert.Less(t, strings.Index(out, "Work"), strings.Index(out, "Home"), "creation order")

	email := firstField(t, exec("items", "add", "-c", work, "Email", "team"))
	exec("items", "add", "-c", work, "Call Bob")

	out = exec("items", "toggle", email)
	assert.Contains(t, out, "[x] Email team")

	out = exec("items", "list", "-c", work)
	assert.Contains(t, out, "[x] Email team")
	assert.Contains(t, out, "[ ] Call Bob")

	out = exec("items", "search", "-c", work, "CA")
	assert.Contains(t, out, "Call Bob")
	assert.NotContains(t, out, "Email team")

	out = exec("items", "rename", email, "Email", "everyone")
	assert.Contains(t, out, "[x] Email everyone")

	out = exec("categories", "search", "wor")
	assert.Contains(t, out, "Work")
	assert.NotContains(t, out, "Home")

	out = exec("categories", "rename", work, "Office")
	assert.Contains(t, out, "\tOffice\t")

	exec("items", "rm", email)
	out = exec("items", "list", "-c", work)
	assert.NotContains(t, out, "Email")

	exec("categories", "rm", work)
	out = exec("categories", "list")
	assert.NotContains(t, out, "Office")
	assert.Contains(t, out, "Home")
}

func TestNoColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoey.db")

	out, err := run(t, "-p", path, "--no-color", "categories", "add", "Plain")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\tPlain\t\n"), "no color column value: %q", out)
}

func TestFlatListBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Items.plist")

	_, err := run(t, "-b", "plist", "-p", path, "items", "add", "Buy milk")
	require.NoError(t, err)

	out, err := run(t, "-b", "plist", "-p", path, "items", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Buy milk")

	_, err = run(t, "-b", "plist", "-p", path, "categories", "add", "Work")
	assert.ErrorIs(t, err, storage.ErrUnsupported)
}

func TestMigrate(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "todoey.db")
	target := filepath.Join(dir, "todoey.badger")

	out, err := run(t, "-p", source, "categories", "add", "Errands")
	require.NoError(t, err)
	errands := firstField(t, out)
	_, err = run(t, "-p", source, "items", "add", "-c", errands, "Post letter")
	require.NoError(t, err)

	_, err = run(t, "-p", source, "migrate", "--to-backend", "badger", "--to-path", target, "--batch-size", "1")
	require.NoError(t, err)

	out, err = run(t, "-b", "badger", "-p", target, "items", "list", "-c", errands)
	require.NoError(t, err)
	assert.Contains(t, out, "Post letter")
}

func TestMigrateWithCheckpoint(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "todoey.db")
	target := filepath.Join(dir, "copy.db")
	checkpoints := filepath.Join(dir, "checkpoints")

	out, err := run(t, "-p", source, "categories", "add", "Errands")
	require.NoError(t, err)
	errands := firstField(t, out)
	_, err = run(t, "-p", source, "items", "add", "-c", errands, "Post letter")
	require.NoError(t, err)

	_, err = run(t, "-p", source, "migrate", "--to-backend", "sqlite", "--to-path", target, "--checkpoint", checkpoints)
	require.NoError(t, err)
	assert.DirExists(t, checkpoints)

	out, err = run(t, "-p", target, "items", "list", "-c", errands)
	require.NoError(t, err)
	assert.Contains(t, out, "Post letter")
}

func TestMigrateFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoey.db")

	t.Run("to-backend is required", func(t *testing.T) {
		_, err := run(t, "-p", path, "migrate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "to-backend")
	})

	t.Run("batch size must be positive", func(t *testing.T) {
		_, err := run(t, "-p", path, "migrate", "--to-backend", "memory", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("same store is rejected", func(t *testing.T) {
		_, err := run(t, "-p", path, "migrate", "--to-backend", "sqlite", "--to-path", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same store")
	})
}

func TestServeFlags(t *testing.T) {
	cmd := serveCommand()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "addr" {
			assert.Equal(t, ":8080", f.Value)
			return
		}
	}
	t.Fatal("addr flag not found")
}
