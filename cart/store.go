package cart

import (
	"sync"

	"go.uber.org/zap"
)

// Listener is called after every dispatched action with the new state.
type Listener func(State)

// Store owns a single cart State. Dispatch is safe for concurrent use and
// applies actions one at a time in the order they are received. Listeners
// see the snapshots in that same order. A listener may read State but must
// not call Dispatch.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
	log       *zap.Logger

	// tickets order listener delivery by dispatch order
	turn      *sync.Cond
	issued    uint64
	delivered uint64
}

// NewStore returns a Store holding initial. Pass New() for an empty cart.
func NewStore(initial State, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		state:     initial.Clone(),
		listeners: map[int]Listener{},
		log:       log,
		turn:      sync.NewCond(&sync.Mutex{}),
	}
}

// State returns a snapshot of the current cart.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Clone()
}

// Dispatch applies a and returns the resulting snapshot.
func (st *Store) Dispatch(a Action) State {
	st.mu.Lock()
	prev := st.state
	st.state = Reduce(st.state, a)
	snapshot := st.state.Clone()
	listeners := make([]Listener, 0, len(st.listeners))
	for _, l := range st.listeners {
		listeners = append(listeners, l)
	}
	st.issued++
	ticket := st.issued
	st.mu.Unlock()

	st.turn.L.Lock()
	for st.delivered != ticket-1 {
		st.turn.Wait()
	}
	st.turn.L.Unlock()
	defer func() {
		st.turn.L.Lock()
		st.delivered = ticket
		st.turn.Broadcast()
		st.turn.L.Unlock()
	}()

	if snapshot.Error != "" && snapshot.Error != prev.Error {
		st.log.Warn("cart action rejected",
			zap.String("error", snapshot.Error),
			zap.String("restaurant_id", snapshot.RestaurantID),
			zap.String("branch_id", snapshot.BranchID))
	}
	for _, l := range listeners {
		l(snapshot.Clone())
	}
	return snapshot
}

// Subscribe registers l and returns a function that removes it.
func (st *Store) Subscribe(l Listener) (unsubscribe func()) {
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = l
	st.mu.Unlock()
	return func() {
		st.mu.Lock()
		delete(st.listeners, id)
		st.mu.Unlock()
	}
}
