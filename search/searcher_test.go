package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
	"github.com/poiesic/todoey/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedStore creates one category whose items were created in the listed order, one second apart.
func seedStore(t *testing.T, titles ...string) (*memory.Store, *core.Category) {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	category := &core.Category{ID: core.NewID(), Name: "Work", DateCreated: base}
	changes := &storage.Changeset{PutCategories: []*core.Category{category}}
	for i, title := range titles {
		changes.PutItems = append(changes.PutItems, &core.Item{
			ID:          core.NewID(),
			CategoryID:  category.ID,
			Title:       title,
			DateCreated: base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, store.Persist(context.Background(), changes))
	return store, category
}

func itemTitles(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestNewSearcher(t *testing.T) {
	store := memory.NewStore()
	defer store.Close()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(store)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(store, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(store, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.Equal(t, ErrStoreRequired, err)
	})
}

func TestItems(t *testing.T) {
	store, work := seedStore(t, "Email team", "Buy milk", "Call Bob", "call the plumber")
	searcher, err := NewSearcher(store)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query lists chronologically", "", []string{"Email team", "Buy milk", "Call Bob", "call the plumber"}},
		{"whitespace query is inactive", "  \t", []string{"Email team", "Buy milk", "Call Bob", "call the plumber"}},
		{"substring match", "ca", []string{"Call Bob", "call the plumber"}},
		{"case insensitive", "BOB", []string{"Call Bob"}},
		{"alphabetical when active", "l", []string{"Buy milk", "Call Bob", "call the plumber", "Email team"}},
		{"leading space is part of the query", " bob", []string{"Call Bob"}},
		{"trailing space is part of the query", "bob ", []string{}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := searcher.Items(ctx, work.ID, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, itemTitles(items))
		})
	}
}

func TestItems_EmptyQueryMatchesListing(t *testing.T) {
	store, work := seedStore(t, "Buy milk", "Call Bob", "Email team")
	searcher, err := NewSearcher(store)
	require.NoError(t, err)
	ctx := context.Background()

	listed, err := store.GetItems(ctx, work.ID)
	require.NoError(t, err)

	searched, err := searcher.Items(ctx, work.ID, "")
	require.NoError(t, err)
	assert.Equal(t, itemTitles(listed), itemTitles(searched))
}

func TestItems_UnknownCategory(t *testing.T) {
	store, _ := seedStore(t, "Buy milk")
	searcher, err := NewSearcher(store)
	require.NoError(t, err)

	_, err = searcher.Items(context.Background(), "missing", "milk")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = searcher.Items(context.Background(), "missing", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	defer store.Close()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var categories []*core.Category
	for i, name := range []string{"work", "Home", "Errands", "homework"} {
		categories = append(categories, &core.Category{ID: core.NewID(), Name: name, DateCreated: base.Add(time.Duration(i) * time.Minute)})
	}
	require.NoError(t, store.Persist(ctx, &storage.Changeset{PutCategories: categories}))

	searcher, err := NewSearcher(store)
	require.NoError(t, err)

	names := func(cs []*core.Category) []string {
		out := []string{}
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}

	all, err := searcher.Categories(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "Home", "Errands", "homework"}, names(all))

	found, err := searcher.Categories(ctx, "HOME")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "homework"}, names(found))

	found, err = searcher.Categories(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"Errands", "homework", "work"}, names(found))
}

func TestSortItems_StableOnTies(t *testing.T) {
	now := core.Now()
	items := []*core.Item{
		{ID: "1", Title: "second", DateCreated: now.Add(time.Second)},
		{ID: "2", Title: "first-a", DateCreated: now},
		{ID: "3", Title: "first-b", DateCreated: now},
	}

	SortItems(items, Chronological)
	assert.Equal(t, []string{"first-a", "first-b", "second"}, itemTitles(items))

	same := []*core.Item{
		{ID: "1", Title: "Same", DateCreated: now.Add(time.Second)},
		{ID: "2", Title: "same", DateCreated: now},
	}
	SortItems(same, Alphabetical)
	// Folded titles are equal, so the byte comparison decides
	assert.Equal(t, core.ID("1"), same[0].ID)
}

func TestOrderFor(t *testing.T) {
	assert.Equal(t, Chronological, OrderFor(""))
	assert.Equal(t, Chronological, OrderFor("   "))
	assert.Equal(t, Alphabetical, OrderFor("a"))
	assert.Equal(t, Alphabetical, OrderFor(" a "))
	assert.Equal(t, "alphabetical", Alphabetical.String())
	assert.False(t, IsActive("\n"))
}
