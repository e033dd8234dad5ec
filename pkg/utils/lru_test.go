package utils_test

import (
	"strconv"
	"testing"

	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	t.Run("basic set and get", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, int](4)
		c.Set("a", 1)

		value, exists := c.Get("a")
		assert.True(t, exists)
		assert.Equal(t, 1, value)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, int](4)

		_, exists := c.Get("missing")
		assert.False(t, exists)
	})

	t.Run("evicts oldest entry when full", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, int](3)
		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("c", 3)
		c.Set("d", 4)

		_, exists := c.Get("a")
		assert.False(t, exists, "oldest entry should be evicted")

		for i, key := range []string{"b", "c", "d"} {
			value, ok := c.Get(key)
			assert.True(t, ok)
			assert.Equal(t, i+2, value)
		}

		assert.Equal(t, 3, c.Len())
	})

	t.Run("reads do not refresh eviction order", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, int](2)
		c.Set("a", 1)
		c.Set("b", 2)

		// Reading the oldest entry must not save it from eviction.
		_, _ = c.Get("a")
		c.Set("c", 3)

		_, exists := c.Get("a")
		assert.False(t, exists)
	})

	t.Run("update keeps insertion position", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, int](2)
		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("a", 10)
		c.Set("c", 3)

		_, exists := c.Get("a")
		assert.False(t, exists, "updated entry keeps its original slot in the eviction order")

		value, ok := c.Get("b")
		assert.True(t, ok)
		assert.Equal(t, 2, value)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, int](2)
		c.Set("a", 1)
		c.Delete("a")

		_, exists := c.Get("a")
		assert.False(t, exists)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("capacity floor of one", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, string](0)
		c.Set("a", "first")
		c.Set("b", "second")

		_, exists := c.Get("a")
		assert.False(t, exists)

		value, ok := c.Get("b")
		assert.True(t, ok)
		assert.Equal(t, "second", value)
	})
}

func TestLRUConcurrent(t *testing.T) {
	t.Parallel()

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()

		c := utils.NewLRU[string, int](64)
		done := make(chan bool)

		go func() {
			for i := range 200 {
				c.Set("key"+strconv.Itoa(i%100), i)
			}

			done <- true
		}()

		go func() {
			for i := range 200 {
				c.Get("key" + strconv.Itoa(i%100))
			}

			done <- true
		}()

		<-done
		<-done
	})
}
