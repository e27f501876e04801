package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mystenlabs/seal-go/pkg/curve"
)

func TestCacheGetPut(t *testing.T) {
	c := New()
	var serverID [32]byte
	serverID[0] = 1

	_, ok := c.Get("deadbeef", serverID)
	require.False(t, ok)

	usk := curve.G1Generator()
	c.Put("deadbeef", serverID, usk)

	got, ok := c.Get("deadbeef", serverID)
	require.True(t, ok)
	require.Equal(t, usk.ToBytes(), got.ToBytes())
	require.True(t, c.Has("deadbeef", serverID))
	require.Equal(t, 1, c.Len())
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New()
	usk := curve.G1Generator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var id [32]byte
			id[0] = byte(i)
			c.Put("id", id, usk)
			c.Get("id", id)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 50, c.Len())
}
