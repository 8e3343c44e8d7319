package boltdb

import (
	"cmp"
	"slices"

	bbolt "go.etcd.io/bbolt"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

func (s *Store) CreateCategory(c domain.Category) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketCategories)
		if err != nil {
			return err
		}
		if b.Get([]byte(c.ID)) != nil {
			return domain.ConflictError("category %s already exists", c.ID)
		}
		return putJSON(b, c.ID, c)
	})
}

func (s *Store) GetCategory(id string) (domain.Category, error) {
	var out domain.Category
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketCategories)
		if err != nil {
			return err
		}
		c, found, err := getJSON[domain.Category](b, id)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError("category %s", id)
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Store) UpdateCategory(c domain.Category) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketCategories)
		if err != nil {
			return err
		}
		if b.Get([]byte(c.ID)) == nil {
			return domain.NotFoundError("category %s", c.ID)
		}
		return putJSON(b, c.ID, c)
	})
}

// DeleteCategory removes a category in one transaction: its children move
// up to its parent and its patterns become uncategorized.
func (s *Store) DeleteCategory(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		cb, err := bucket(tx, bucketCategories)
		if err != nil {
			return err
		}
		pb, err := bucket(tx, bucketPatterns)
		if err != nil {
			return err
		}
		gone, found, err := getJSON[domain.Category](cb, id)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError("category %s", id)
		}

		var children []domain.Category
		if err := scanJSON(cb, func(c domain.Category) bool {
			if c.ParentID == id {
				children = append(children, c)
			}
			return true
		}); err != nil {
			return err
		}
		for _, c := range children {
			c.ParentID = gone.ParentID
			if err := putJSON(cb, c.ID, c); err != nil {
				return err
			}
		}

		var orphans []domain.Pattern
		if err := scanJSON(pb, func(p domain.Pattern) bool {
			if p.CategoryID == id {
				orphans = append(orphans, p)
			}
			return true
		}); err != nil {
			return err
		}
		for _, p := range orphans {
			p.CategoryID = ""
			if err := putJSON(pb, p.ID, p); err != nil {
				return err
			}
		}
		return cb.Delete([]byte(id))
	})
}

// ListCategories returns every category ordered by priority, then name.
func (s *Store) ListCategories() ([]domain.Category, error) {
	var out []domain.Category
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketCategories)
		if err != nil {
			return err
		}
		return scanJSON(b, func(c domain.Category) bool {
			out = append(out, c)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Category) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}
