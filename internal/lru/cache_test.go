package lru

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// statsKey mirrors the shape the narrative suggestion cache stores under.
type statsKey struct {
	win, lose int
	focusMin  int64
}

func TestGetPut(t *testing.T) {
	c := New[statsKey, string](4)

	k := statsKey{win: 2, lose: 1, focusMin: 150}
	_, ok := c.Get(k)
	assert.False(t, ok)

	c.Put(k, "keep the streak")
	got, ok := c.Get(k)
	assert.True(t, ok)
	assert.Equal(t, "keep the streak", got)
	assert.Equal(t, 1, c.Len())
}

func TestPut_UpdatesExisting(t *testing.T) {
	c := New[string, int](2)

	c.Put("a", 1)
	c.Put("a", 2)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, c.Len())
}

func TestEviction_DropsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts a

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestGet_RefreshesRecency(t *testing.T) {
	c := New[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")    // a is now the fresher entry
	c.Put("c", 3) // evicts b, not a

	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestLen_NeverExceedsCapacity(t *testing.T) {
	c := New[int, int](8)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
	}
	assert.Equal(t, 8, c.Len())
}

func TestNew_RejectsZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0) })
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](32)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa(i % 50)
				c.Put(key, g*1000+i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 32)
}
