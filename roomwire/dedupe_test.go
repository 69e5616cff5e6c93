package roomwire

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedupCacheSeenAfterRecord(t *testing.T) {
	req := require.New(t)
	c := NewDedupCache(200)

	req.False(c.Seen("m1"))
	c.Record("m1")
	req.True(c.Seen("m1"))

	// Re-recording the same id must not grow the cache.
	c.Record("m1")
	req.Equal(1, c.Len())
}

func TestDedupCacheEvictsOldestBeyondBound(t *testing.T) {
	req := require.New(t)
	c := NewDedupCache(200)

	for i := 0; i < 201; i++ {
		c.Record(fmt.Sprintf("id-%d", i))
	}
	req.False(c.Seen("id-0"), "oldest id must be evicted after 201 inserts")
	req.True(c.Seen("id-1"))
	req.True(c.Seen("id-200"))
	req.Equal(200, c.Len())
}

func TestDedupCacheClear(t *testing.T) {
	req := require.New(t)
	c := NewDedupCache(200)
	c.Record("m1")
	c.Record("m2")

	c.Clear()

	req.False(c.Seen("m1"))
	req.False(c.Seen("m2"))
	req.Equal(0, c.Len())

	// Cache keeps working after a clear.
	c.Record("m1")
	req.True(c.Seen("m1"))
}

func TestDedupCacheDefaultLimit(t *testing.T) {
	c := NewDedupCache(0)
	require.Equal(t, defaultDedupeLimit, c.limit)
}
