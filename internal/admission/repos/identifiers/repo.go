// Package identifiers composes the exact-identifier lists: a Bloom filter per
// list in front of the persistent store. It is the exact-match resolver of
// the admission path and the write path for manual edits and bulk imports.
package identifiers

import (
	"sync"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/common/utils"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

var lists = []domain.ListKind{domain.Whitelist, domain.Blacklist}

// Repository applies a bloom → store pipeline on reads and keeps the
// filters in step with writes. Filters only ever gain keys; removals leave a
// stale bit that the store lookup resolves, and Rebuild clears them.
type Repository struct {
	mu       sync.RWMutex
	store    Store
	factory  BloomFactory
	capacity uint64
	fpRate   float64
	blooms   map[domain.ListKind]BloomFilter
	logger   log.Logger
}

// New constructs a Repository. capacity is the minimum number of keys a
// filter is sized for; filters grow to twice the stored count on Rebuild.
// Until Rebuild runs every lookup goes to the store.
func New(store Store, factory BloomFactory, capacity uint64, fpRate float64, logger log.Logger) *Repository {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Repository{
		store:    store,
		factory:  factory,
		capacity: capacity,
		fpRate:   fpRate,
		blooms:   map[domain.ListKind]BloomFilter{},
		logger:   logger,
	}
}

// Rebuild repopulates both filters from the store and swaps them in.
func (r *Repository) Rebuild() error {
	fresh := make(map[domain.ListKind]BloomFilter, len(lists))
	for _, list := range lists {
		n, err := r.store.CountItems(list)
		if err != nil {
			return err
		}
		bf := r.factory.New(max(r.capacity, uint64(n)*2), r.fpRate)
		if err := r.store.ForEachKey(list, func(key string) bool {
			bf.Add([]byte(key))
			return true
		}); err != nil {
			return err
		}
		fresh[list] = bf
		fields := map[string]any{"list": list.String(), "keys": n}
		if a, ok := bf.(approximator); ok {
			fields["approxKeys"] = a.Approximate()
		}
		r.logger.Info(fields, "bloom_rebuilt")
	}

	r.mu.Lock()
	r.blooms = fresh
	r.mu.Unlock()
	return nil
}

// Lookup resolves (itemID, typ) against the whitelist, then the blacklist.
// It never fails: a store error is logged and reported as absent.
func (r *Repository) Lookup(itemID string, typ domain.ItemType) domain.Membership {
	id := utils.CanonicalItemID(itemID)
	return domain.Membership{
		OnWhitelist: r.contains(domain.Whitelist, id, typ),
		OnBlacklist: r.contains(domain.Blacklist, id, typ),
	}
}

func (r *Repository) contains(list domain.ListKind, id string, typ domain.ItemType) bool {
	if id == "" {
		return false
	}
	if !r.checkBloom(list, domain.ItemKey(id, typ)) {
		return false
	}
	ok, err := r.store.HasItem(list, id, typ)
	if err != nil {
		r.logger.Error(map[string]any{"list": list.String(), "itemId": id, "type": typ.String(), "error": err}, "identifier_lookup_failed")
		return false
	}
	return ok
}

// checkBloom returns true if the store must be consulted, false when the key
// is definitely absent. With no filter loaded the store is always consulted.
func (r *Repository) checkBloom(list domain.ListKind, key string) bool {
	r.mu.RLock()
	bf := r.blooms[list]
	r.mu.RUnlock()
	if bf == nil {
		return true
	}
	return bf.MightContain([]byte(key))
}

func (r *Repository) addToBloom(list domain.ListKind, keys ...string) {
	r.mu.RLock()
	bf := r.blooms[list]
	r.mu.RUnlock()
	if bf == nil {
		return
	}
	for _, k := range keys {
		bf.Add([]byte(k))
	}
}

// Add inserts one item; a duplicate (itemId, type) is a ConflictError.
// The key reaches the filter before the store so no reader can see the row
// while the filter still says absent.
func (r *Repository) Add(list domain.ListKind, it domain.ListedItem) error {
	r.addToBloom(list, it.Key())
	return r.store.InsertItem(list, it)
}

func (r *Repository) Get(list domain.ListKind, itemID string, typ domain.ItemType) (domain.ListedItem, error) {
	return r.store.GetItem(list, utils.CanonicalItemID(itemID), typ)
}

// Remove deletes one item; NotFoundError if absent.
func (r *Repository) Remove(list domain.ListKind, itemID string, typ domain.ItemType) error {
	return r.store.DeleteItem(list, utils.CanonicalItemID(itemID), typ)
}

func (r *Repository) List(list domain.ListKind, q domain.ListQuery) (domain.Page, error) {
	return r.store.ListItems(list, q)
}

func (r *Repository) Count(list domain.ListKind) (int, error) {
	return r.store.CountItems(list)
}

// PutChunk writes one import chunk and registers its keys with the filter.
func (r *Repository) PutChunk(list domain.ListKind, items []domain.ListedItem, skipDuplicates bool) (domain.ChunkResult, error) {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key()
	}
	r.addToBloom(list, keys...)
	return r.store.PutChunk(list, items, skipDuplicates)
}
