package identifiers

import "github.com/maegy2011/yt-sub000/internal/admission/domain"

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// approximator is implemented by filters that can estimate their key count.
type approximator interface {
	Approximate() uint32
}

// BloomFactory builds filters sized for a dataset.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// Store is the persistent identifier index (bbolt in production).
type Store interface {
	InsertItem(list domain.ListKind, it domain.ListedItem) error
	GetItem(list domain.ListKind, itemID string, typ domain.ItemType) (domain.ListedItem, error)
	HasItem(list domain.ListKind, itemID string, typ domain.ItemType) (bool, error)
	DeleteItem(list domain.ListKind, itemID string, typ domain.ItemType) error
	ListItems(list domain.ListKind, q domain.ListQuery) (domain.Page, error)
	PutChunk(list domain.ListKind, items []domain.ListedItem, skipDuplicates bool) (domain.ChunkResult, error)
	ForEachKey(list domain.ListKind, fn func(key string) bool) error
	CountItems(list domain.ListKind) (int, error)
}
