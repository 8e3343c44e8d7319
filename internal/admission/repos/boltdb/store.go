// Package boltdb persists identifier lists, patterns, categories and import
// batches in a single bbolt file. Values are JSON documents keyed by their
// natural key: "type:itemId" for list rows, the id for everything else.
package boltdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

var (
	bucketBlacklist  = []byte("blacklist")
	bucketWhitelist  = []byte("whitelist")
	bucketPatterns   = []byte("patterns")
	bucketCategories = []byte("categories")
	bucketBatches    = []byte("batches")
)

var allBuckets = [][]byte{bucketBlacklist, bucketWhitelist, bucketPatterns, bucketCategories, bucketBatches}

// errBucketMissing is returned when a bucket vanished after Open; it is a
// store failure, not a lookup miss.
var errBucketMissing = errors.New("bucket missing")

// Store implements every persistence port of the admission engine on bbolt.
type Store struct {
	db *bbolt.DB
}

// Stats reports row counts per collection.
type Stats struct {
	Blacklist  int `json:"blacklist"`
	Whitelist  int `json:"whitelist"`
	Patterns   int `json:"patterns"`
	Categories int `json:"categories"`
	Batches    int `json:"batches"`
}

// ensureBuckets is swapped in tests to simulate bucket creation failures.
var ensureBuckets = func(tx *bbolt.Tx) error {
	for _, name := range allBuckets {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("create bucket %s: %w", name, err)
		}
	}
	return nil
}

// Open opens (or creates) the database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(ensureBuckets); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping runs an empty read transaction; it fails once the store is closed.
func (s *Store) Ping() error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

// Stats counts rows in a read-only transaction.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		counts := make([]int, len(allBuckets))
		for i, name := range allBuckets {
			b := tx.Bucket(name)
			if b == nil {
				return fmt.Errorf("%w: %s", errBucketMissing, name)
			}
			counts[i] = b.Stats().KeyN
		}
		st = Stats{
			Blacklist:  counts[0],
			Whitelist:  counts[1],
			Patterns:   counts[2],
			Categories: counts[3],
			Batches:    counts[4],
		}
		return nil
	})
	return st, err
}

func bucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", errBucketMissing, name)
	}
	return b, nil
}

func listBucket(list domain.ListKind) ([]byte, error) {
	switch list {
	case domain.Blacklist:
		return bucketBlacklist, nil
	case domain.Whitelist:
		return bucketWhitelist, nil
	default:
		return nil, fmt.Errorf("unknown list %s", list)
	}
}

// getJSON decodes the value at key. found is false when the key is absent.
func getJSON[T any](b *bbolt.Bucket, key string) (v T, found bool, err error) {
	raw := b.Get([]byte(key))
	if raw == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

func putJSON(b *bbolt.Bucket, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.Put([]byte(key), raw)
}

// scanJSON decodes every value in the bucket in key order. fn returning false
// stops the scan.
func scanJSON[T any](b *bbolt.Bucket, fn func(T) bool) error {
	c := b.Cursor()
	for k, raw := c.First(); k != nil; k, raw = c.Next() {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		if !fn(v) {
			return nil
		}
	}
	return nil
}
