package migrate

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
	"github.com/poiesic/todoey/storage/badger"
	"github.com/poiesic/todoey/storage/memory"
	"github.com/poiesic/todoey/storage/plist"
	"github.com/poiesic/todoey/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	work, home, empty core.ID
	titles            []string
}

// seedSource fills a memory store with three categories and five items.
func seedSource(t *testing.T) (*memory.Store, fixture) {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cat := func(name string, n int) *core.Category {
		return &core.Category{ID: core.NewID(), Name: name, DateCreated: base.Add(time.Duration(n) * time.Minute), Color: "#3498DB"}
	}
	work, home, empty := cat("Work", 0), cat("Home", 1), cat("Someday", 2)

	var items []*core.Item
	add := func(c *core.Category, title string) {
		items = append(items, &core.Item{
			ID:          core.NewID(),
			CategoryID:  c.ID,
			Title:       title,
			DateCreated: base.Add(time.Duration(len(items)) * time.Hour),
		})
	}
	add(work, "Email team")
	add(work, "Call Bob")
	add(work, "Review PR")
	add(home, "Buy milk")
	add(home, "Water plants")
	items[1].Done = true

	require.NoError(t, store.Persist(context.Background(), &storage.Changeset{
		PutCategories: []*core.Category{work, home, empty},
		PutItems:      items,
	}))

	return store, fixture{
		work:   work.ID,
		home:   home.ID,
		empty:  empty.ID,
		titles: []string{"Email team", "Call Bob", "Review PR", "Buy milk", "Water plants"},
	}
}

func requireSameContents(t *testing.T, want, got storage.Store) {
	t.Helper()
	ctx := context.Background()

	wantCats, err := want.GetCategories(ctx)
	require.NoError(t, err)
	gotCats, err := got.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, gotCats, len(wantCats))

	for i, c := range wantCats {
		assert.Equal(t, c.ID, gotCats[i].ID)
		assert.Equal(t, c.Name, gotCats[i].Name)
		assert.True(t, c.DateCreated.Equal(gotCats[i].DateCreated))

		wantItems, err := want.GetItems(ctx, c.ID)
		require.NoError(t, err)
		gotItems, err := got.GetItems(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, gotItems, len(wantItems))
		for j, it := range wantItems {
			assert.Equal(t, it.ID, gotItems[j].ID)
			assert.Equal(t, it.Title, gotItems[j].Title)
			assert.Equal(t, it.Done, gotItems[j].Done)
		}
	}
}

func TestMigrator_MemoryToBadger(t *testing.T) {
	src, _ := seedSource(t)
	dst, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer dst.Close()

	var out bytes.Buffer
	m, err := NewMigrator(src, dst, &Config{BatchSize: 2, ReportInterval: 1}, &out)
	require.NoError(t, err)

	summary, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Categories)
	assert.Equal(t, 5, summary.Items)
	assert.Zero(t, summary.Skipped)

	requireSameContents(t, src, dst)
	assert.Contains(t, out.String(), "Migrating 8 entities (batch size: 2)")
	assert.Contains(t, out.String(), "8/8 (100.0%)")
	assert.Contains(t, out.String(), "Migration complete. Copied 3 categories and 5 items")
}

func TestMigrator_MemoryToSQLite(t *testing.T) {
	src, _ := seedSource(t)
	dst, err := sqlite.Open(filepath.Join(t.TempDir(), "todoey.db"), nil)
	require.NoError(t, err)
	defer dst.Close()

	m, err := NewMigrator(src, dst, nil, nil)
	require.NoError(t, err)
	_, err = m.Run(context.Background())
	require.NoError(t, err)

	requireSameContents(t, src, dst)
}

func TestMigrator_RunTwiceIsIdempotent(t *testing.T) {
	src, _ := seedSource(t)
	dst := memory.NewStore()
	defer dst.Close()

	m, err := NewMigrator(src, dst, nil, nil)
	require.NoError(t, err)

	_, err = m.Run(context.Background())
	require.NoError(t, err)
	summary, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Skipped)
	assert.Zero(t, summary.Categories)
	assert.Equal(t, 5, summary.Items)
	requireSameContents(t, src, dst)
}

func TestMigrator_FlatListToSQLite(t *testing.T) {
	src, err := plist.Open(filepath.Join(t.TempDir(), "Items.plist"))
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Persist(context.Background(), &storage.Changeset{
		PutItems: []*core.Item{
			{ID: core.NewID(), CategoryID: core.DefaultCategoryID, Title: "Find Mike", DateCreated: time.Unix(1700000000, 0)},
			{ID: core.NewID(), CategoryID: core.DefaultCategoryID, Title: "Buy eggs", DateCreated: time.Unix(1700000060, 0)},
		},
	}))

	dst, err := sqlite.Open(sqlite.MemoryPath, nil)
	require.NoError(t, err)
	defer dst.Close()

	m, err := NewMigrator(src, dst, nil, nil)
	require.NoError(t, err)
	summary, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Categories, "the implicit list becomes a real category")
	requireSameContents(t, src, dst)
}

func TestMigrator_IntoFlatList(t *testing.T) {
	t.Run("default category only", func(t *testing.T) {
		src := memory.NewStore()
		defer src.Close()
		require.NoError(t, src.Persist(context.Background(), &storage.Changeset{
			PutCategories: []*core.Category{{ID: core.DefaultCategoryID, Name: core.DefaultCategoryName}},
			PutItems:      []*core.Item{{ID: core.NewID(), CategoryID: core.DefaultCategoryID, Title: "Buy milk"}},
		}))

		dst, err := plist.Open(t.TempDir())
		require.NoError(t, err)
		defer dst.Close()

		m, err := NewMigrator(src, dst, nil, nil)
		require.NoError(t, err)
		summary, err := m.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Skipped)
		assert.Equal(t, 1, summary.Items)
	})

	t.Run("named categories are unsupported", func(t *testing.T) {
		src, _ := seedSource(t)
		dst, err := plist.Open(t.TempDir())
		require.NoError(t, err)
		defer dst.Close()

		m, err := NewMigrator(src, dst, &Config{MaxRetries: 3, RetryDelay: time.Millisecond}, nil)
		require.NoError(t, err)
		_, err = m.Run(context.Background())
		assert.ErrorIs(t, err, storage.ErrUnsupported)
	})
}

// flakyStore fails the first Persist calls with a persistence error.
type flakyStore struct {
	storage.Store
	failures int
	calls    int
}

func (f *flakyStore) Persist(ctx context.Context, changes *storage.Changeset) error {
	f.calls++
	if f.calls <= f.failures {
		return storage.ErrPersistence
	}
	return f.Store.Persist(ctx, changes)
}

func TestMigrator_RetriesPersistenceFailures(t *testing.T) {
	src, _ := seedSource(t)
	inner := memory.NewStore()
	defer inner.Close()
	dst := &flakyStore{Store: inner, failures: 2}

	m, err := NewMigrator(src, dst, &Config{BatchSize: 100, MaxRetries: 3, RetryDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	summary, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Items)
	requireSameContents(t, src, inner)
}

func TestMigrator_GivesUp(t *testing.T) {
	src, _ := seedSource(t)
	inner := memory.NewStore()
	defer inner.Close()
	dst := &flakyStore{Store: inner, failures: 10}

	m, err := NewMigrator(src, dst, &Config{MaxRetries: 2, RetryDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	summary, err := m.Run(context.Background())
	assert.ErrorIs(t, err, storage.ErrPersistence)
	require.NotNil(t, summary)
	assert.Zero(t, summary.Categories)
	assert.Equal(t, 2, dst.calls)
}

func TestMigrator_EmptySource(t *testing.T) {
	src := memory.NewStore()
	dst := memory.NewStore()
	defer src.Close()
	defer dst.Close()

	var out bytes.Buffer
	m, err := NewMigrator(src, dst, nil, &out)
	require.NoError(t, err)

	summary, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Categories+summary.Items)
	assert.Contains(t, out.String(), "Nothing to migrate")
}

func TestNewMigrator_Errors(t *testing.T) {
	store := memory.NewStore()
	defer store.Close()

	_, err := NewMigrator(nil, store, nil, nil)
	assert.True(t, errors.Is(err, ErrStoreRequired))

	_, err = NewMigrator(store, nil, nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewMigrator(store, store, nil, nil)
	assert.ErrorIs(t, err, ErrSameStore)
}

// cutoffStore accepts the first ok calls to Persist and fails the rest.
type cutoffStore struct {
	storage.Store
	ok    int
	calls int
}

func (c *cutoffStore) Persist(ctx context.Context, changes *storage.Changeset) error {
	c.calls++
	if c.calls > c.ok {
		return storage.ErrPersistence
	}
	return c.Store.Persist(ctx, changes)
}

func TestMigrator_ResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	src, fixture := seedSource(t)
	inner := memory.NewStore()
	defer inner.Close()

	checkpoints, err := badger.OpenCheckpointStore("", nil)
	require.NoError(t, err)
	defer checkpoints.Close()

	config := &Config{BatchSize: 2, MaxRetries: 1, Checkpoints: checkpoints, CheckpointKey: "memory>memory"}

	// Batches: two of categories, then [Email, Call], [Review, Milk], [Water]
	interrupted, err := NewMigrator(src, &cutoffStore{Store: inner, ok: 4}, config, nil)
	require.NoError(t, err)
	_, err = interrupted.Run(ctx)
	require.ErrorIs(t, err, storage.ErrPersistence)

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, "memory>memory")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, []core.ID{fixture.work}, checkpoint.Done)

	var out bytes.Buffer
	resumed, err := NewMigrator(src, inner, config, &out)
	require.NoError(t, err)
	summary, err := resumed.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Resumed)
	assert.Equal(t, 3, summary.Skipped)
	assert.Zero(t, summary.Categories)
	assert.Equal(t, 2, summary.Items, "only the unfinished categories are copied again")
	assert.Contains(t, out.String(), "Resuming: 1 categories already copied")
	requireSameContents(t, src, inner)

	checkpoint, err = checkpoints.LoadCheckpoint(ctx, "memory>memory")
	require.NoError(t, err)
	assert.Nil(t, checkpoint, "a finished run clears its checkpoint")
}

func TestMigrator_CancelledBeforeWriting(t *testing.T) {
	src, _ := seedSource(t)
	dst := memory.NewStore()
	defer dst.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := NewMigrator(src, dst, nil, nil)
	require.NoError(t, err)
	_, err = m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	categories, err := dst.GetCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)
}
