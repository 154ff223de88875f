// Package storetest provides a contract test suite shared by every two-level
// storage.Store implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens an empty store. The suite closes it when the test ends.
type Factory func(t *testing.T) storage.Store

// Run executes the contract suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store storage.Store)
	}{
		{"EmptyStore", testEmptyStore},
		{"PutAndGet", testPutAndGet},
		{"InsertionOrder", testInsertionOrder},
		{"UpsertKeepsPosition", testUpsertKeepsPosition},
		{"MoveItemAppends", testMoveItemAppends},
		{"FindCategories", testFindCategories},
		{"FindItems", testFindItems},
		{"DeleteItem", testDeleteItem},
		{"CascadeDelete", testCascadeDelete},
		{"AtomicFailure", testAtomicFailure},
		{"ItemNeedsCategory", testItemNeedsCategory},
		{"ReadsReturnCopies", testReadsReturnCopies},
		{"EmptyChangeset", testEmptyChangeset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := open(t)
			t.Cleanup(func() { store.Close() })
			tt.fn(t, store)
		})
	}
}

// fixture holds the entities seeded by seed.
type fixture struct {
	work, home       *core.Category
	milk, bob, email *core.Item
	lawn             *core.Item
}

func seed(t *testing.T, store storage.Store) *fixture {
	t.Helper()
	now := core.Now()
	f := &fixture{
		work: &core.Category{ID: core.NewID(), Name: "Work", DateCreated: now, Color: "#3498DB"},
		home: &core.Category{ID: core.NewID(), Name: "Home", DateCreated: now.Add(time.Second)},
	}
	f.milk = &core.Item{ID: core.NewID(), CategoryID: f.work.ID, Title: "Buy milk", DateCreated: now}
	f.bob = &core.Item{ID: core.NewID(), CategoryID: f.work.ID, Title: "Call Bob", DateCreated: now.Add(time.Millisecond)}
	f.email = &core.Item{ID: core.NewID(), CategoryID: f.work.ID, Title: "Email team", DateCreated: now.Add(2 * time.Millisecond)}
	f.lawn = &core.Item{ID: core.NewID(), CategoryID: f.home.ID, Title: "Mow lawn", DateCreated: now}

	err := store.Persist(context.Background(), &storage.Changeset{
		PutCategories: []*core.Category{f.work, f.home},
		PutItems:      []*core.Item{f.milk, f.bob, f.email, f.lawn},
	})
	require.NoError(t, err)
	return f
}

func titles(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func names(categories []*core.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.Name)
	}
	return out
}

func testEmptyStore(t *testing.T, store storage.Store) {
	ctx := context.Background()

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)

	_, err = store.GetCategory(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetItems(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	found, err := store.FindCategories(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testPutAndGet(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	got, err := store.GetCategory(ctx, f.work.ID)
	require.NoError(t, err)
	assert.Equal(t, f.work.ID, got.ID)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, "#3498DB", got.Color)
	assert.True(t, f.work.DateCreated.Equal(got.DateCreated), "dateCreated %v != %v", f.work.DateCreated, got.DateCreated)

	item, err := store.GetItem(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, item.ID)
	assert.Equal(t, f.work.ID, item.CategoryID)
	assert.Equal(t, "Call Bob", item.Title)
	assert.False(t, item.Done)
	assert.True(t, f.bob.DateCreated.Equal(item.DateCreated))
}

func testInsertionOrder(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Home"}, names(categories))

	// Same timestamp, later insert: must come after
	extra := &core.Item{ID: core.NewID(), CategoryID: f.work.ID, Title: "Another", DateCreated: f.milk.DateCreated}
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{extra}}))

	items, err := store.GetItems(ctx, f.work.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk", "Call Bob", "Email team", "Another"}, titles(items))

	items, err = store.GetItems(ctx, f.home.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mow lawn"}, titles(items))
}

func testUpsertKeepsPosition(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	updated := f.milk.Clone()
	updated.Done = true
	updated.Title = "Buy oat milk"
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{updated}}))

	renamed := f.home.Clone()
	renamed.Name = "House"
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutCategories: []*core.Category{renamed}}))

	items, err := store.GetItems(ctx, f.work.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Buy oat milk", items[0].Title)
	assert.True(t, items[0].Done)
	assert.False(t, items[1].Done)

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "House"}, names(categories))
}

func testMoveItemAppends(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	moved := f.milk.Clone()
	moved.CategoryID = f.home.ID
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{moved}}))

	items, err := store.GetItems(ctx, f.work.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Call Bob", "Email team"}, titles(items))

	items, err = store.GetItems(ctx, f.home.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mow lawn", "Buy milk"}, titles(items))

	got, err := store.GetItem(ctx, f.milk.ID)
	require.NoError(t, err)
	assert.Equal(t, f.home.ID, got.CategoryID)
}

func testFindCategories(t *testing.T, store storage.Store) {
	ctx := context.Background()
	seed(t, store)

	found, err := store.FindCategories(ctx, "OR")
	require.NoError(t, err)
	assert.Equal(t, []string{"Work"}, names(found))

	found, err = store.FindCategories(ctx, "o")
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Home"}, names(found))

	found, err = store.FindCategories(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testFindItems(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	found, err := store.FindItems(ctx, f.work.ID, "ca")
	require.NoError(t, err)
	assert.Equal(t, []string{"Call Bob"}, titles(found))

	found, err = store.FindItems(ctx, f.work.ID, "M")
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk", "Email team"}, titles(found))

	// Scoped to the category
	found, err = store.FindItems(ctx, f.home.ID, "milk")
	require.NoError(t, err)
	assert.Empty(t, found)

	// Wildcard characters are literal
	found, err = store.FindItems(ctx, f.work.ID, "%")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = store.FindItems(ctx, "missing", "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDeleteItem(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	require.NoError(t, store.Persist(ctx, &storage.Changeset{DeleteItems: []core.ID{f.bob.ID}}))

	_, err := store.GetItem(ctx, f.bob.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	items, err := store.GetItems(ctx, f.work.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk", "Email team"}, titles(items))

	err = store.Persist(ctx, &storage.Changeset{DeleteItems: []core.ID{f.bob.ID}})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testCascadeDelete(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	require.NoError(t, store.Persist(ctx, &storage.Changeset{DeleteCategories: []core.ID{f.work.ID}}))

	_, err := store.GetCategory(ctx, f.work.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetItems(ctx, f.work.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	for _, it := range []*core.Item{f.milk, f.bob, f.email} {
		_, err = store.GetItem(ctx, it.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}

	// The other category is untouched
	items, err := store.GetItems(ctx, f.home.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mow lawn"}, titles(items))
}

func testAtomicFailure(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	fresh := &core.Category{ID: core.NewID(), Name: "Errands", DateCreated: core.Now()}
	toggled := f.milk.Clone()
	toggled.Done = true

	err := store.Persist(ctx, &storage.Changeset{
		PutCategories: []*core.Category{fresh},
		PutItems:      []*core.Item{toggled},
		DeleteItems:   []core.ID{"missing"},
	})
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetCategory(ctx, fresh.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	item, err := store.GetItem(ctx, f.milk.ID)
	require.NoError(t, err)
	assert.False(t, item.Done)

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func testItemNeedsCategory(t *testing.T, store storage.Store) {
	ctx := context.Background()

	orphan := &core.Item{ID: core.NewID(), CategoryID: "missing", Title: "Orphan", DateCreated: core.Now()}
	err := store.Persist(ctx, &storage.Changeset{PutItems: []*core.Item{orphan}})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Category and item in one changeset is fine
	category := &core.Category{ID: core.NewID(), Name: "New", DateCreated: core.Now()}
	child := &core.Item{ID: core.NewID(), CategoryID: category.ID, Title: "Child", DateCreated: core.Now()}
	require.NoError(t, store.Persist(ctx, &storage.Changeset{
		PutCategories: []*core.Category{category},
		PutItems:      []*core.Item{child},
	}))

	items, err := store.GetItems(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Child"}, titles(items))
}

func testReadsReturnCopies(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := seed(t, store)

	items, err := store.GetItems(ctx, f.work.ID)
	require.NoError(t, err)
	items[0].Done = true
	items[0].Title = "changed"

	category, err := store.GetCategory(ctx, f.work.ID)
	require.NoError(t, err)
	category.Name = "changed"

	item, err := store.GetItem(ctx, f.milk.ID)
	require.NoError(t, err)
	assert.False(t, item.Done)
	assert.Equal(t, "Buy milk", item.Title)

	category, err = store.GetCategory(ctx, f.work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", category.Name)
}

func testEmptyChangeset(t *testing.T, store storage.Store) {
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.Persist(ctx, &storage.Changeset{}))
	require.NoError(t, store.Persist(ctx, nil))

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}
