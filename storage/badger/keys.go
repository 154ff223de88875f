package badger

import (
	"encoding/binary"

	"github.com/poiesic/todoey/core"
)

// Key prefixes for different data types
const (
	categoryPrefix      = "cat"
	itemPrefix          = "itm"
	categoryOrderPrefix = "catord"
	itemOrderPrefix     = "itmord"
	orderSeq            = "ordseq"
	checkpointPrefix    = "ckpt"
)

// makeCategoryKey generates a key for a category by ID.
func makeCategoryKey(id core.ID) []byte {
	return []byte(categoryPrefix + ":" + string(id))
}

// makeItemKey generates a key for an item by ID.
func makeItemKey(id core.ID) []byte {
	return []byte(itemPrefix + ":" + string(id))
}

// makeCategoryOrderKey generates a key for the category insertion order index.
// Format: prefix:seq
func makeCategoryOrderKey(seq uint64) []byte {
	prefix := makeCategoryOrderPrefix()
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeCategoryOrderPrefix generates the prefix shared by all category order keys.
func makeCategoryOrderPrefix() []byte {
	return []byte(categoryOrderPrefix + ":")
}

// makeItemOrderKey generates a composite key for the per-category item order index.
// Format: prefix:categoryID:seq
func makeItemOrderKey(categoryID core.ID, seq uint64) []byte {
	prefix := makeItemOrderPrefix(categoryID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeItemOrderPrefix generates a partial key covering the items of one category.
// Format: prefix:categoryID:
func makeItemOrderPrefix(categoryID core.ID) []byte {
	return []byte(itemOrderPrefix + ":" + string(categoryID) + ":")
}

// makeCheckpointKey generates a key for a migration checkpoint.
func makeCheckpointKey(key string) []byte {
	return []byte(checkpointPrefix + ":" + key)
}
