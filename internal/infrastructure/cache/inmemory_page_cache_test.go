package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northwind/backend/internal/domain/shared"
)

func TestInMemoryPageCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		c := NewInMemoryPageCache()
		require.NoError(t, c.Set(ctx, "products", "k1", []byte("page-1"), time.Minute))

		payload, hit, err := c.Get(ctx, "products", "k1")
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, []byte("page-1"), payload)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		c := NewInMemoryPageCache()
		_, hit, err := c.Get(ctx, "products", "nope")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		c := NewInMemoryPageCache()
		current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return current }

		require.NoError(t, c.Set(ctx, "products", "k1", []byte("x"), time.Minute))
		current = current.Add(2 * time.Minute)

		_, hit, err := c.Get(ctx, "products", "k1")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("invalidation is entity-wide and entity-scoped", func(t *testing.T) {
		c := NewInMemoryPageCache()
		require.NoError(t, c.Set(ctx, "products", "k1", []byte("a"), time.Minute))
		require.NoError(t, c.Set(ctx, "products", "k2", []byte("b"), time.Minute))
		require.NoError(t, c.Set(ctx, "customers", "k1", []byte("c"), time.Minute))

		require.NoError(t, c.Invalidate(ctx, "products"))

		_, hit, _ := c.Get(ctx, "products", "k1")
		assert.False(t, hit)
		_, hit, _ = c.Get(ctx, "products", "k2")
		assert.False(t, hit)
		_, hit, _ = c.Get(ctx, "customers", "k1")
		assert.True(t, hit)
	})
}

func TestQueryKey(t *testing.T) {
	specA := shared.Spec{
		Filters: map[string]shared.FilterValue{"category_id": shared.Equals(2)},
		Page:    1,
		Limit:   20,
	}
	specB := shared.Spec{
		Filters: map[string]shared.FilterValue{"category_id": shared.Equals(2)},
		Page:    1,
		Limit:   20,
	}
	specC := shared.Spec{
		Filters: map[string]shared.FilterValue{"category_id": shared.Equals(3)},
		Page:    1,
		Limit:   20,
	}

	keyA, err := QueryKey(specA)
	require.NoError(t, err)
	keyB, err := QueryKey(specB)
	require.NoError(t, err)
	keyC, err := QueryKey(specC)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
	assert.NotEqual(t, keyA, keyC)

	t.Run("sort direction changes the key", func(t *testing.T) {
		asc, err := QueryKey(shared.Spec{Sort: []shared.SortField{{Field: "unit_price"}}})
		require.NoError(t, err)
		desc, err := QueryKey(shared.Spec{Sort: []shared.SortField{{Field: "unit_price", Desc: true}}})
		require.NoError(t, err)
		assert.NotEqual(t, asc, desc)
	})
}
