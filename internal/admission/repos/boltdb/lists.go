package boltdb

import (
	"slices"

	bbolt "go.etcd.io/bbolt"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// InsertItem adds a row to list. A row with the same (itemId, type) is a
// conflict.
func (s *Store) InsertItem(list domain.ListKind, it domain.ListedItem) error {
	name, err := listBucket(list)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		key := it.Key()
		if b.Get([]byte(key)) != nil {
			return domain.ConflictError("%s %s already on the %s", it.Type, it.ItemID, list)
		}
		return putJSON(b, key, it)
	})
}

// GetItem returns the row for (itemID, typ) in list.
func (s *Store) GetItem(list domain.ListKind, itemID string, typ domain.ItemType) (domain.ListedItem, error) {
	name, err := listBucket(list)
	if err != nil {
		return domain.ListedItem{}, err
	}
	var out domain.ListedItem
	err = s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		it, found, err := getJSON[domain.ListedItem](b, domain.ItemKey(itemID, typ))
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError("%s %s not on the %s", typ, itemID, list)
		}
		out = it
		return nil
	})
	return out, err
}

// HasItem reports whether (itemID, typ) is on list without decoding the row.
func (s *Store) HasItem(list domain.ListKind, itemID string, typ domain.ItemType) (bool, error) {
	name, err := listBucket(list)
	if err != nil {
		return false, err
	}
	var present bool
	err = s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		present = b.Get([]byte(domain.ItemKey(itemID, typ))) != nil
		return nil
	})
	return present, err
}

// DeleteItem removes (itemID, typ) from list.
func (s *Store) DeleteItem(list domain.ListKind, itemID string, typ domain.ItemType) error {
	name, err := listBucket(list)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		key := []byte(domain.ItemKey(itemID, typ))
		if b.Get(key) == nil {
			return domain.NotFoundError("%s %s not on the %s", typ, itemID, list)
		}
		return b.Delete(key)
	})
}

// ListItems filters, sorts and pages list.
func (s *Store) ListItems(list domain.ListKind, q domain.ListQuery) (domain.Page, error) {
	name, err := listBucket(list)
	if err != nil {
		return domain.Page{}, err
	}
	q = q.Normalize()
	var matched []domain.ListedItem
	err = s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		return scanJSON(b, func(it domain.ListedItem) bool {
			if q.Matches(it) {
				matched = append(matched, it)
			}
			return true
		})
	})
	if err != nil {
		return domain.Page{}, err
	}

	slices.SortFunc(matched, q.Compare)

	page := domain.Page{
		Items: []domain.ListedItem{},
		Total: len(matched),
		Page:  q.Page,
		Limit: q.Limit,
	}
	page.TotalPages = (page.Total + q.Limit - 1) / q.Limit
	// compare page numbers before multiplying; a huge page would overflow
	if q.Page <= page.TotalPages {
		start := (q.Page - 1) * q.Limit
		end := min(start+q.Limit, len(matched))
		page.Items = matched[start:end]
	}
	return page, nil
}

// PutChunk writes items to list in one transaction. With skipDuplicates an
// existing (itemId, type) is left alone and counted as skipped; otherwise it
// is overwritten, keeping its row id and AddedAt. Duplicates inside the chunk
// see the earlier write.
func (s *Store) PutChunk(list domain.ListKind, items []domain.ListedItem, skipDuplicates bool) (domain.ChunkResult, error) {
	var res domain.ChunkResult
	name, err := listBucket(list)
	if err != nil {
		return res, err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		for _, it := range items {
			key := it.Key()
			prev, found, err := getJSON[domain.ListedItem](b, key)
			if err != nil {
				return err
			}
			if found {
				if skipDuplicates {
					res.Skipped++
					continue
				}
				it.ID = prev.ID
				it.AddedAt = prev.AddedAt
				if err := putJSON(b, key, it); err != nil {
					return err
				}
				res.Updated++
				continue
			}
			if err := putJSON(b, key, it); err != nil {
				return err
			}
			res.Inserted++
		}
		return nil
	})
	if err != nil {
		return domain.ChunkResult{}, err
	}
	return res, nil
}

// ForEachKey visits the (itemId, type) of every row in list without decoding
// values. fn returning false stops the walk.
func (s *Store) ForEachKey(list domain.ListKind, fn func(key string) bool) error {
	name, err := listBucket(list)
	if err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if !fn(string(k)) {
				return nil
			}
		}
		return nil
	})
}

// CountItems returns the number of rows in list.
func (s *Store) CountItems(list domain.ListKind) (int, error) {
	name, err := listBucket(list)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
