package boltdb

import (
	"slices"

	bbolt "go.etcd.io/bbolt"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// PutBatch creates or replaces a batch snapshot.
func (s *Store) PutBatch(b domain.Batch) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bk, err := bucket(tx, bucketBatches)
		if err != nil {
			return err
		}
		return putJSON(bk, b.ID, b)
	})
}

func (s *Store) GetBatch(id string) (domain.Batch, error) {
	var out domain.Batch
	err := s.db.View(func(tx *bbolt.Tx) error {
		bk, err := bucket(tx, bucketBatches)
		if err != nil {
			return err
		}
		b, found, err := getJSON[domain.Batch](bk, id)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError("batch %s", id)
		}
		out = b
		return nil
	})
	return out, err
}

// ListBatches returns batches newest first.
func (s *Store) ListBatches() ([]domain.Batch, error) {
	var out []domain.Batch
	err := s.db.View(func(tx *bbolt.Tx) error {
		bk, err := bucket(tx, bucketBatches)
		if err != nil {
			return err
		}
		return scanJSON(bk, func(b domain.Batch) bool {
			out = append(out, b)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Batch) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
