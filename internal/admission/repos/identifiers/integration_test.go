package identifiers_test

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/bloom"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/boltdb"
	"github.com/maegy2011/yt-sub000/internal/admission/repos/identifiers"
)

func TestRepository_BoltAndBloom(t *testing.T) {
	st, err := boltdb.Open(filepath.Join(t.TempDir(), "ids.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	var chunk []domain.ListedItem
	for i := 0; i < 200; i++ {
		it, err := domain.NewListedItem(fmt.Sprintf("vid%08d", i), domain.ItemVideo, "t", "", 0, "b", now)
		require.NoError(t, err)
		chunk = append(chunk, it)
	}
	_, err = st.PutChunk(domain.Blacklist, chunk, true)
	require.NoError(t, err)

	repo := identifiers.New(st, bloom.NewFactory(), 100, 0.01, log.NewNoopLogger())
	require.NoError(t, repo.Rebuild())

	for _, it := range chunk {
		require.True(t, repo.Lookup(it.ItemID, domain.ItemVideo).OnBlacklist)
	}
	assert.Equal(t, domain.Membership{}, repo.Lookup("vid99999999", domain.ItemVideo))

	wl, err := domain.NewListedItem("vid00000001", domain.ItemVideo, "t", "", 0, "", now)
	require.NoError(t, err)
	require.NoError(t, repo.Add(domain.Whitelist, wl))
	assert.Equal(t, domain.Membership{OnWhitelist: true, OnBlacklist: true}, repo.Lookup("vid00000001", domain.ItemVideo))
}
