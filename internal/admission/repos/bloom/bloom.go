// Package bloom provides the Bloom filters the identifier repository keeps in
// front of the store so that lookups for unlisted content skip bbolt.
package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/maegy2011/yt-sub000/internal/admission/repos/identifiers"
)

const defaultFPRate = 0.01

type factory struct{}

// NewFactory returns a BloomFactory backed by bits-and-blooms.
func NewFactory() identifiers.BloomFactory { return factory{} }

// New constructs a filter sized for capacity keys at fpRate. A zero
// capacity is treated as one key and an out-of-range rate falls back to 1%.
func (factory) New(capacity uint64, fpRate float64) identifiers.BloomFilter {
	m, k := params(capacity, fpRate)
	return &filter{bf: bitsbloom.New(m, k)}
}

func params(capacity uint64, fpRate float64) (m, k uint) {
	if capacity == 0 {
		capacity = 1
	}
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = defaultFPRate
	}
	return bitsbloom.EstimateParameters(uint(capacity), fpRate)
}

// filter serializes Add against readers. A torn read can only turn a
// negative into a positive, which the store lookup behind it resolves.
type filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(key)
}

// Approximate estimates how many distinct keys were added.
func (f *filter) Approximate() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.ApproximatedSize()
}
