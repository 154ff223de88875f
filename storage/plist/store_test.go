package plist

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

func newItem(title string, done bool) *core.Item {
	return &core.Item{
		ID:          core.NewID(),
		CategoryID:  core.DefaultCategoryID,
		Title:       title,
		Done:        done,
		DateCreated: core.Now(),
	}
}

func titlesOf(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "Items.plist")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	categories, err := store.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, core.DefaultCategoryID, categories[0].ID)
	assert.Equal(t, core.DefaultCategoryName, categories[0].Name)

	items, err := store.GetItems(context.Background(), core.DefaultCategoryID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "open must not create the document")
}

func TestOpenDirectory(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DefaultFileName), store.Path())
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Items.plist")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	items, err := store.GetItems(context.Background(), core.DefaultCategoryID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Items.plist")
	require.NoError(t, os.WriteFile(path, []byte("bplist00\x00\x01garbage"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, storage.ErrPersistence)
}

func TestRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name string
		opts []Option
	}{
		{"binary", nil},
		{"xml", []Option{WithXML()}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "Items.plist")

			store, err := Open(path, tt.opts...)
			require.NoError(t, err)

			items := []*core.Item{
				newItem("Find Mike", false),
				newItem("Buy Eggos", true),
				newItem("Destroy Demogorgon", false),
			}
			require.NoError(t, store.Persist(ctx, &storage.Changeset{PutItems: items}))
			require.NoError(t, store.Close())

			reopened, err := Open(path, tt.opts...)
			require.NoError(t, err)
			defer reopened.Close()

			loaded, err := reopened.GetItems(ctx, core.DefaultCategoryID)
			require.NoError(t, err)
			require.Len(t, loaded, len(items))
			for i, item := range items {
				assert.Equal(t, item.ID, loaded[i].ID)
				assert.Equal(t, item.Title, loaded[i].Title)
				assert.Equal(t, item.Done, loaded[i].Done)
				assert.WithinDuration(t, item.DateCreated, loaded[i].DateCreated, time.Second)
			}
		})
	}
}

func TestLegacyDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "Items.plist")

	legacy := []map[string]any{
		{"title": "Find Mike", "done": true},
		{"title": "Buy Eggos", "done": false},
	}
	data, err := plist.Marshal(legacy, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	store, err := Open(path)
	require.NoError(t, err)

	items, err := store.GetItems(ctx, core.DefaultCategoryID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"Find Mike", "Buy Eggos"}, titlesOf(items))
	assert.True(t, items[0].Done)
	assert.NotEmpty(t, items[0].ID)
	assert.NotEqual(t, items[0].ID, items[1].ID)

	// Assigned ids are written back on the next persist
	toggled := items[1].Clone()
	toggled.Done = true
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{toggled}}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	again, err := reopened.GetItems(ctx, core.DefaultCategoryID)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, items[0].ID, again[0].ID)
	assert.Equal(t, items[1].ID, again[1].ID)
	assert.True(t, again[1].Done)
}

func TestInterruptedWriteKeepsDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "Items.plist")

	failing := false
	store, err := Open(path, WithWriteFunc(func(w io.Writer, data []byte) error {
		if !failing {
			return writeAll(w, data)
		}
		if _, err := w.Write(data[:len(data)/2]); err != nil {
			return err
		}
		return errors.New("disk unplugged")
	}))
	require.NoError(t, err)
	defer store.Close()

	first := newItem("Find Mike", false)
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{first}}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	failing = true
	err = store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{newItem("Buy Eggos", false)}})
	require.ErrorIs(t, err, storage.ErrPersistence)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The in-memory view did not advance either
	items, err := store.GetItems(ctx, core.DefaultCategoryID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Find Mike"}, titlesOf(items))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestCategoriesUnsupported(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "Items.plist"))
	require.NoError(t, err)
	defer store.Close()

	err = store.Persist(ctx, &storage.Changeset{
		PutCategories: []*core.Category{{ID: core.NewID(), Name: "Work", DateCreated: core.Now()}},
	})
	assert.ErrorIs(t, err, storage.ErrUnsupported)

	err = store.Persist(ctx, &storage.Changeset{DeleteCategories: []core.ID{core.DefaultCategoryID}})
	assert.ErrorIs(t, err, storage.ErrUnsupported)

	orphan := newItem("Orphan", false)
	orphan.CategoryID = "elsewhere"
	err = store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{orphan}})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSearchAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "Items.plist"))
	require.NoError(t, err)
	defer store.Close()

	milk, bob, email := newItem("Buy milk", false), newItem("Call Bob", false), newItem("Email team", false)
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{milk, bob, email}}))

	found, err := store.FindItems(ctx, core.DefaultCategoryID, "CA")
	require.NoError(t, err)
	assert.Equal(t, []string{"Call Bob"}, titlesOf(found))

	require.NoError(t, store.Persist(ctx, &storage.Changeset{DeleteItems: []core.ID{bob.ID}}))
	_, err = store.GetItem(ctx, bob.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Persist(ctx, &storage.Changeset{DeleteItems: []core.ID{bob.ID}})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClosedStore(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "Items.plist"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.GetItems(context.Background(), core.DefaultCategoryID)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
