package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by one second per call so interaction times are
// strictly ordered.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestStore_GetOrCreate(t *testing.T) {
	store := NewStore(10)

	sc := store.GetOrCreate("sess-1")
	require.NotNil(t, sc)
	assert.Equal(t, "sess-1", sc.ID)
	assert.False(t, sc.GreetedThisSession)
	assert.Equal(t, 1, store.Len())

	// Second call returns the same session, not a new one.
	again := store.GetOrCreate("sess-1")
	assert.Equal(t, sc.ID, again.ID)
	assert.Equal(t, 1, store.Len())
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore(10)

	sc := store.GetOrCreate("sess-1")
	sc.Suggestions = append(sc.Suggestions, "the Thames")
	sc.LastResponse = "mutated locally"

	fresh := store.GetOrCreate("sess-1")
	assert.Empty(t, fresh.Suggestions, "local mutation must not leak into the store")
	assert.Empty(t, fresh.LastResponse)
}

func TestStore_Update(t *testing.T) {
	store := NewStore(10)

	store.Update("sess-1", func(sc *Context) {
		sc.LastSuggestedTopic = "Tyburn"
		sc.AddTopic("the Thames")
	})

	sc, ok := store.Snapshot("sess-1")
	require.True(t, ok)
	assert.Equal(t, "Tyburn", sc.LastSuggestedTopic)
	assert.Equal(t, []string{"the Thames"}, sc.TopicsDiscussed)
	assert.Equal(t, "the Thames", sc.CurrentTopic)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(3, WithClock(clock.Now))

	store.Touch("a")
	store.Touch("b")
	store.Touch("c")

	// Refresh "a" so "b" is now the oldest.
	store.Touch("a")

	// Inserting a fourth session evicts exactly "b".
	store.Touch("d")
	assert.Equal(t, 3, store.Len())

	_, ok := store.Snapshot("b")
	assert.False(t, ok, "least recently used session should be evicted")
	for _, id := range []string{"a", "c", "d"} {
		_, ok := store.Snapshot(id)
		assert.True(t, ok, "session %s should survive", id)
	}

	// The evicted session comes back as a fresh context.
	fresh := store.GetOrCreate("b")
	assert.Empty(t, fresh.TopicsDiscussed)
	assert.False(t, fresh.GreetedThisSession)
}

func TestStore_CapacityFloor(t *testing.T) {
	store := NewStore(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		store.Touch(fmt.Sprintf("sess-%d", i))
	}
	assert.Equal(t, DefaultCapacity, store.Len())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", n%10)
			for j := 0; j < 50; j++ {
				store.Update(id, func(sc *Context) {
					sc.TurnsSinceNameUsed++
				})
				store.GetOrCreate(id)
				store.Touch(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, store.Len())
	sc, ok := store.Snapshot("sess-0")
	require.True(t, ok)
	assert.Equal(t, 100, sc.TurnsSinceNameUsed, "updates on one session must not be lost")
}

func TestContext_AddEntityDedupes(t *testing.T) {
	sc := &Context{}
	sc.AddEntity(Entity{Name: "Christopher Wren", Type: "person"})
	sc.AddEntity(Entity{Name: "Christopher Wren", Type: "person"})
	assert.Len(t, sc.Entities, 1)
}
