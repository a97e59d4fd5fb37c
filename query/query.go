// Package query caches the result of a remote fetch and refetches it after a
// shared Clock was invalidated, typically by a successful Mutation.
//
// There is no request dedupe, retry or cross-instance cache: every Query owns
// its own data and every Fetch hits the fetch function.
package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("query closed")

// Clock is the invalidation signal shared by queries and mutations.
type Clock struct {
	stamp atomic.Uint64
}

func NewClock() *Clock { return &Clock{} }

// Invalidate marks every query reading this clock as stale.
func (c *Clock) Invalidate() { c.stamp.Add(1) }

// Stamp is the current invalidation generation.
func (c *Clock) Stamp() uint64 { return c.stamp.Load() }

// Fetcher loads the data of a query.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Result is a snapshot of a query.
type Result[T any] struct {
	Data    T
	Err     error
	HasData bool
	// IsLoading: the first fetch is running and nothing is cached.
	IsLoading bool
	// IsPending: a refetch is running while older data is still served.
	IsPending bool
	// Stale: the clock moved since Data was fetched.
	Stale     bool
	UpdatedAt time.Time
}

type Query[T any] struct {
	key   string
	fetch Fetcher[T]
	clock *Clock
	log   *zap.Logger

	mu        sync.Mutex
	data      T
	hasData   bool
	err       error
	inflight  int
	seq       uint64 // last started fetch
	applied   uint64 // fetch whose outcome is stored
	stamp     uint64 // clock stamp when the stored data was requested
	updatedAt time.Time
	closed    bool
}

// New builds a query identified by key.
func New[T any](key string, clock *Clock, fetch Fetcher[T]) *Query[T] {
	return &Query[T]{
		key:   key,
		fetch: fetch,
		clock: clock,
		log:   zap.L().Named("query").With(zap.String("key", key)),
	}
}

func (q *Query[T]) Key() string { return q.key }

// Fetch always runs the fetch function. An outcome older than one already
// stored, or landing after Close, is returned to the caller but not kept.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		var zero T
		return zero, ErrClosed
	}
	q.seq++
	seq := q.seq
	stamp := q.clock.Stamp()
	q.inflight++
	q.mu.Unlock()

	data, err := q.fetch(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if q.closed || seq < q.applied {
		return data, err
	}
	q.applied = seq
	if err != nil {
		q.err = err
		q.log.Debug("fetch failed", zap.Error(err))
		return data, err
	}
	q.data, q.hasData, q.err = data, true, nil
	q.stamp = stamp
	q.updatedAt = time.Now()
	return data, nil
}

// Get serves the cached data unless nothing is cached or the clock moved
// since it was fetched.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	q.mu.Lock()
	fresh := q.hasData && q.stamp == q.clock.Stamp()
	data := q.data
	q.mu.Unlock()
	if fresh {
		return data, nil
	}
	return q.Fetch(ctx)
}

func (q *Query[T]) Result() Result[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Result[T]{
		Data:      q.data,
		Err:       q.err,
		HasData:   q.hasData,
		IsLoading: q.inflight > 0 && !q.hasData,
		IsPending: q.inflight > 0 && q.hasData,
		Stale:     q.hasData && q.stamp != q.clock.Stamp(),
		UpdatedAt: q.updatedAt,
	}
}

// Close stops the query from storing further results.
func (q *Query[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Mutation runs a write and invalidates the clock when it succeeds.
type Mutation[In, Out any] struct {
	call  func(context.Context, In) (Out, error)
	clock *Clock

	mu      sync.Mutex
	running int
	err     error
}

func NewMutation[In, Out any](clock *Clock, call func(context.Context, In) (Out, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{call: call, clock: clock}
}

func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	m.running++
	m.mu.Unlock()

	out, err := m.call(ctx, in)

	m.mu.Lock()
	m.running--
	m.err = err
	m.mu.Unlock()
	if err == nil {
		m.clock.Invalidate()
	}
	return out, err
}

// IsPending reports whether a Run is in progress.
func (m *Mutation[In, Out]) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running > 0
}

// Err is the outcome of the last finished Run.
func (m *Mutation[In, Out]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
