package migrate

import (
	"context"
	"testing"

	"github.com/poiesic/todoey/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIterator_Batches(t *testing.T) {
	src, fixture := seedSource(t)

	it := NewEntityIterator(src, 2)
	batches, err := it.Batches(context.Background(), nil, nil)
	require.NoError(t, err)

	// 3 categories then 5 items, never mixed in one batch
	require.Len(t, batches, 5)
	assert.Len(t, batches[0].PutCategories, 2)
	assert.Len(t, batches[1].PutCategories, 1)
	for _, batch := range batches[2:] {
		assert.Empty(t, batch.PutCategories)
		assert.NotEmpty(t, batch.PutItems)
	}
	assert.Empty(t, batches[2].Completes)
	assert.Equal(t, []core.ID{fixture.work}, batches[3].Completes, "work ends in the batch holding its third item")
	assert.Equal(t, []core.ID{fixture.home, fixture.empty}, batches[4].Completes)

	var titles []string
	for _, batch := range batches {
		for _, item := range batch.PutItems {
			titles = append(titles, item.Title)
		}
	}
	assert.Equal(t, fixture.titles, titles, "items follow category then insertion order")
}

func TestEntityIterator_Skip(t *testing.T) {
	src, fixture := seedSource(t)

	it := NewEntityIterator(src, 0)
	batches, err := it.Batches(context.Background(), map[core.ID]bool{fixture.work: true}, nil)
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0].PutCategories, 2)
	assert.Len(t, batches[1].PutItems, 5, "items of skipped categories are still copied")
}

func TestEntityIterator_Done(t *testing.T) {
	src, fixture := seedSource(t)

	it := NewEntityIterator(src, 10)
	batches, err := it.Batches(context.Background(), nil, map[core.ID]bool{fixture.work: true})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0].PutCategories, 3, "categories are still written")
	var titles []string
	for _, item := range batches[1].PutItems {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"Buy milk", "Water plants"}, titles)
	assert.Equal(t, []core.ID{fixture.home, fixture.empty}, batches[1].Completes)
}

func TestEntityIterator_TrailingEmptyCategory(t *testing.T) {
	src, fixture := seedSource(t)

	// Five items fill the item batch exactly, so home and the empty category finish after it
	batches, err := NewEntityIterator(src, 5).Batches(context.Background(), nil, nil)
	require.NoError(t, err)

	last := batches[len(batches)-1]
	assert.True(t, last.IsEmpty())
	assert.Equal(t, []core.ID{fixture.home, fixture.empty}, last.Completes)
}
