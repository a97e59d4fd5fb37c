package cart

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_DispatchAndSnapshot(t *testing.T) {
	st := NewStore(New(), nil)

	got := st.Dispatch(add(dish("a", 10, 1), "r1", "b1", "t1"))
	require.Len(t, got.Items, 1)

	// mutating a snapshot must not leak into the store
	got.Items[0].Quantity = 99
	got.Remarks["a"] = "leak"

	cur := st.State()
	assert.Equal(t, 1, cur.Items[0].Quantity)
	assert.Empty(t, cur.Remarks)
}

func TestStore_Subscribe(t *testing.T) {
	st := NewStore(New(), nil)

	var seen []int
	unsubscribe := st.Subscribe(func(s State) { seen = append(seen, len(s.Items)) })

	st.Dispatch(add(dish("a", 10, 1), "r1", "b1", "t1"))
	st.Dispatch(add(dish("b", 10, 1), "r1", "b1", "t1"))
	unsubscribe()
	st.Dispatch(ClearCart{})

	assert.Equal(t, []int{1, 2}, seen)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	st := NewStore(New(), nil)
	st.Dispatch(add(dish("seed", 1, 1), "r1", "b1", "t1"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.Dispatch(add(dish(fmt.Sprintf("d%d", i), 1, 1), "r1", "b1", "t1"))
		}(i)
	}
	wg.Wait()

	s := st.State()
	assert.Len(t, s.Items, 51)
	seen := map[string]bool{}
	for _, it := range s.Items {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
	}
}

func TestStore_Hydrate(t *testing.T) {
	st := NewStore(New(), nil)
	st.Dispatch(add(dish("a", 10, 1), "r1", "b1", "t1"))

	remote := Reduce(New(), add(dish("b", 20, 3), "r2", "b2", "t2"))
	got := st.Dispatch(Hydrate(remote))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "b", got.Items[0].ID)
	assert.Equal(t, "r2", got.RestaurantID)

	// an empty server cart still comes back fully reset
	stale := remote.Clone()
	stale.Items = nil
	got = st.Dispatch(Hydrate(stale))
	assert.False(t, got.IsBound())
	assert.NotNil(t, got.Items)
}

func TestStore_ListenersSeeDispatchOrder(t *testing.T) {
	st := NewStore(New(), nil)

	var mu sync.Mutex
	var counts []int
	st.Subscribe(func(s State) {
		mu.Lock()
		counts = append(counts, len(s.Items))
		mu.Unlock()
	})
	st.Subscribe(func(State) { _ = st.State() })

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.Dispatch(add(dish(fmt.Sprintf("d%d", i), 1, 1), "r1", "b1", "t1"))
		}(i)
	}
	wg.Wait()

	require.Len(t, counts, 40)
	for i, n := range counts {
		assert.Equal(t, i+1, n)
	}
}
