package plist

import (
	"fmt"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
	"howett.net/plist"
)

// record is one entry of the document. Older documents only carry title and done.
type record struct {
	Title       string     `plist:"title"`
	Done        bool       `plist:"done"`
	ID          string     `plist:"id,omitempty"`
	DateCreated *time.Time `plist:"dateCreated,omitempty"`
}

func fromItem(item *core.Item) record {
	created := item.DateCreated.UTC()
	return record{
		Title:       item.Title,
		Done:        item.Done,
		ID:          item.ID.String(),
		DateCreated: &created,
	}
}

// toItem converts a record, filling in what legacy records lack.
func (r record) toItem(fallback time.Time) *core.Item {
	item := &core.Item{
		ID:          core.ID(r.ID),
		CategoryID:  core.DefaultCategoryID,
		Title:       r.Title,
		Done:        r.Done,
		DateCreated: fallback,
	}
	if item.ID == "" {
		item.ID = core.NewID()
	}
	if r.DateCreated != nil {
		item.DateCreated = r.DateCreated.UTC()
	}
	return item
}

func encode(items []*core.Item, format int) ([]byte, error) {
	records := make([]record, 0, len(items))
	for _, item := range items {
		records = append(records, fromItem(item))
	}
	data, err := plist.Marshal(records, format)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", storage.ErrPersistence, err)
	}
	return data, nil
}

func decode(data []byte) ([]record, error) {
	var records []record
	if _, err := plist.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", storage.ErrPersistence, err)
	}
	return records, nil
}
