package badger

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/todoey/core"
)

var errCorruptRecord = errors.New("corrupt record")

// categoryRecord is the stored form of a category. The ID lives in the key.
type categoryRecord struct {
	Seq            uint64
	Name           string
	DateCreated    time.Time
	ColorHexString string
}

// itemRecord is the stored form of an item. The ID lives in the key.
type itemRecord struct {
	Seq         uint64
	CategoryID  core.ID
	Title       string
	Done        bool
	DateCreated time.Time
}

// Unix micro timestamps
func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

// categoryRecordMUS serializes categoryRecord in field order.
var categoryRecordMUS = categoryRecordMUSSer{}

type categoryRecordMUSSer struct{}

func (s categoryRecordMUSSer) Marshal(v categoryRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.Seq, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += marshalTime(v.DateCreated, bs[n:])
	return n + ord.String.Marshal(v.ColorHexString, bs[n:])
}

func (s categoryRecordMUSSer) Unmarshal(bs []byte) (v categoryRecord, n int, err error) {
	var n1 int
	v.Seq, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DateCreated, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ColorHexString, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s categoryRecordMUSSer) Size(v categoryRecord) (size int) {
	size = varint.Uint64.Size(v.Seq)
	size += ord.String.Size(v.Name)
	size += sizeTime(v.DateCreated)
	return size + ord.String.Size(v.ColorHexString)
}

// itemRecordMUS serializes itemRecord in field order.
var itemRecordMUS = itemRecordMUSSer{}

type itemRecordMUSSer struct{}

func (s itemRecordMUSSer) Marshal(v itemRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.Seq, bs)
	n += ord.String.Marshal(string(v.CategoryID), bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.Bool.Marshal(v.Done, bs[n:])
	return n + marshalTime(v.DateCreated, bs[n:])
}

func (s itemRecordMUSSer) Unmarshal(bs []byte) (v itemRecord, n int, err error) {
	var (
		n1         int
		categoryID string
	)
	v.Seq, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	categoryID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CategoryID = core.ID(categoryID)
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Done, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DateCreated, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s itemRecordMUSSer) Size(v itemRecord) (size int) {
	size = varint.Uint64.Size(v.Seq)
	size += ord.String.Size(string(v.CategoryID))
	size += ord.String.Size(v.Title)
	size += ord.Bool.Size(v.Done)
	return size + sizeTime(v.DateCreated)
}

func marshalCategory(seq uint64, category *core.Category) []byte {
	record := categoryRecord{
		Seq:            seq,
		Name:           category.Name,
		DateCreated:    category.DateCreated,
		ColorHexString: category.Color,
	}
	buf := make([]byte, categoryRecordMUS.Size(record))
	categoryRecordMUS.Marshal(record, buf)
	return buf
}

func unmarshalCategory(id core.ID, data []byte) (*core.Category, uint64, error) {
	record, _, err := categoryRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	return &core.Category{
		ID:          id,
		Name:        record.Name,
		DateCreated: record.DateCreated,
		Color:       record.ColorHexString,
	}, record.Seq, nil
}

func marshalItem(seq uint64, item *core.Item) []byte {
	record := itemRecord{
		Seq:         seq,
		CategoryID:  item.CategoryID,
		Title:       item.Title,
		Done:        item.Done,
		DateCreated: item.DateCreated,
	}
	buf := make([]byte, itemRecordMUS.Size(record))
	itemRecordMUS.Marshal(record, buf)
	return buf
}

func unmarshalItem(id core.ID, data []byte) (*core.Item, uint64, error) {
	record, _, err := itemRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, 0, err
	}
	return &core.Item{
		ID:          id,
		CategoryID:  record.CategoryID,
		Title:       record.Title,
		Done:        record.Done,
		DateCreated: record.DateCreated,
	}, record.Seq, nil
}

// checkpointRecord is the stored form of a checkpoint. The key lives in the key.
type checkpointRecord struct {
	Done      []string
	UpdatedAt time.Time
}

// checkpointRecordMUS serializes checkpointRecord as a length-prefixed id list
// followed by the update time.
var checkpointRecordMUS = checkpointRecordMUSSer{}

type checkpointRecordMUSSer struct{}

func (s checkpointRecordMUSSer) Marshal(v checkpointRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v.Done)), bs)
	for _, id := range v.Done {
		n += ord.String.Marshal(id, bs[n:])
	}
	return n + marshalTime(v.UpdatedAt, bs[n:])
}

func (s checkpointRecordMUSSer) Unmarshal(bs []byte) (v checkpointRecord, n int, err error) {
	var (
		n1    int
		count uint64
	)
	count, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	// Every id takes at least one byte
	if count > uint64(len(bs)) {
		err = errCorruptRecord
		return
	}
	v.Done = make([]string, count)
	for i := range v.Done {
		v.Done[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s checkpointRecordMUSSer) Size(v checkpointRecord) (size int) {
	size = varint.Uint64.Size(uint64(len(v.Done)))
	for _, id := range v.Done {
		size += ord.String.Size(id)
	}
	return size + sizeTime(v.UpdatedAt)
}

func marshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	record := checkpointRecord{
		Done:      make([]string, len(checkpoint.Done)),
		UpdatedAt: checkpoint.UpdatedAt,
	}
	for i, id := range checkpoint.Done {
		record.Done[i] = string(id)
	}
	buf := make([]byte, checkpointRecordMUS.Size(record))
	checkpointRecordMUS.Marshal(record, buf)
	return buf
}

func unmarshalCheckpoint(key string, data []byte) (*core.Checkpoint, error) {
	record, _, err := checkpointRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	checkpoint := &core.Checkpoint{
		Key:       key,
		Done:      make([]core.ID, len(record.Done)),
		UpdatedAt: record.UpdatedAt,
	}
	for i, id := range record.Done {
		checkpoint.Done[i] = core.ID(id)
	}
	return checkpoint, nil
}
