package testfixtures

import (
	"sync"
	"testing"

	"github.com/Skotchmaster/shopcarts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyGenerator_Unique(t *testing.T) {
	t.Parallel()

	g := NewKeyGenerator(1)
	seen := map[[2]int64]bool{}
	for range 2000 {
		o, i := g.Next()
		k := [2]int64{o, i}
		require.False(t, seen[k], "duplicate key %v", k)
		seen[k] = true
	}
	assert.Equal(t, 2000, g.Len())
}

func TestKeyGenerator_Concurrent(t *testing.T) {
	t.Parallel()

	g := NewKeyGenerator(2)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				g.NextItem(5)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, g.Len())
}

func TestKeyGenerator_Reserve(t *testing.T) {
	t.Parallel()

	g := NewKeyGenerator(3)
	assert.True(t, g.Reserve(1, 1))
	assert.False(t, g.Reserve(1, 1))
	assert.True(t, g.Reserve(1, 2))
}

func TestFactory_ItemsAreValid(t *testing.T) {
	t.Parallel()

	f := NewFactory(4)
	for _, it := range append(f.Cart(9, 20), f.Item()) {
		require.NoError(t, models.Validate(&it))
	}

	cart := f.Cart(9, 5)
	for _, it := range cart {
		assert.Equal(t, int64(9), it.OwnerID)
	}
}
