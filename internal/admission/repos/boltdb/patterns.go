package boltdb

import (
	"cmp"
	"slices"

	bbolt "go.etcd.io/bbolt"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

func (s *Store) CreatePattern(p domain.Pattern) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPatterns)
		if err != nil {
			return err
		}
		if b.Get([]byte(p.ID)) != nil {
			return domain.ConflictError("pattern %s already exists", p.ID)
		}
		return putJSON(b, p.ID, p)
	})
}

func (s *Store) GetPattern(id string) (domain.Pattern, error) {
	var out domain.Pattern
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPatterns)
		if err != nil {
			return err
		}
		p, found, err := getJSON[domain.Pattern](b, id)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError("pattern %s", id)
		}
		out = p
		return nil
	})
	return out, err
}

// UpdatePattern replaces an existing pattern. Match statistics are kept from
// the stored row so concurrent RecordMatches flushes are not lost.
func (s *Store) UpdatePattern(p domain.Pattern) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPatterns)
		if err != nil {
			return err
		}
		prev, found, err := getJSON[domain.Pattern](b, p.ID)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError("pattern %s", p.ID)
		}
		p.MatchCount = prev.MatchCount
		p.LastMatchedAt = prev.LastMatchedAt
		p.CreatedAt = prev.CreatedAt
		return putJSON(b, p.ID, p)
	})
}

func (s *Store) DeletePattern(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPatterns)
		if err != nil {
			return err
		}
		if b.Get([]byte(id)) == nil {
			return domain.NotFoundError("pattern %s", id)
		}
		return b.Delete([]byte(id))
	})
}

// ListPatterns returns every pattern by precedence: priority ascending, then
// newest first.
func (s *Store) ListPatterns() ([]domain.Pattern, error) {
	var out []domain.Pattern
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPatterns)
		if err != nil {
			return err
		}
		return scanJSON(b, func(p domain.Pattern) bool {
			out = append(out, p)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Pattern) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// RecordMatches folds accumulated statistics into the stored patterns.
// Patterns deleted since the matches were counted are ignored.
func (s *Store) RecordMatches(stats map[string]domain.MatchStat) error {
	if len(stats) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketPatterns)
		if err != nil {
			return err
		}
		for id, st := range stats {
			p, found, err := getJSON[domain.Pattern](b, id)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			p.MatchCount += st.Count
			if p.LastMatchedAt == nil || st.LastMatchedAt.After(*p.LastMatchedAt) {
				last := st.LastMatchedAt
				p.LastMatchedAt = &last
			}
			if err := putJSON(b, id, p); err != nil {
				return err
			}
		}
		return nil
	})
}
