package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gated returns a fetcher that blocks until release receives, reporting each
// call on started.
func gated(calls *atomic.Int32, started chan<- struct{}, release <-chan string) Fetcher[string] {
	return func(ctx context.Context) (string, error) {
		calls.Add(1)
		started <- struct{}{}
		return <-release, nil
	}
}

func TestQuery_LoadingThenPending(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan string)
	q := New("tables", NewClock(), gated(&calls, started, release))

	done := make(chan struct{})
	go func() { _, _ = q.Fetch(context.Background()); close(done) }()
	<-started
	r := q.Result()
	assert.True(t, r.IsLoading)
	assert.False(t, r.IsPending)
	release <- "v1"
	<-done

	r = q.Result()
	assert.False(t, r.IsLoading)
	assert.Equal(t, "v1", r.Data)
	assert.True(t, r.HasData)

	done = make(chan struct{})
	go func() { _, _ = q.Fetch(context.Background()); close(done) }()
	<-started
	r = q.Result()
	assert.False(t, r.IsLoading)
	assert.True(t, r.IsPending)
	assert.Equal(t, "v1", r.Data, "stale data stays visible")
	release <- "v2"
	<-done
	assert.Equal(t, "v2", q.Result().Data)
	assert.EqualValues(t, 2, calls.Load())
}

func TestQuery_GetRefetchesOnlyAfterInvalidate(t *testing.T) {
	var calls atomic.Int32
	clock := NewClock()
	q := New("menus", clock, func(context.Context) (int32, error) {
		return calls.Add(1), nil
	})
	ctx := context.Background()

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	v, _ = q.Get(ctx)
	assert.EqualValues(t, 1, v)
	assert.EqualValues(t, 1, calls.Load())

	clock.Invalidate()
	assert.True(t, q.Result().Stale)
	v, _ = q.Get(ctx)
	assert.EqualValues(t, 2, v)
	assert.False(t, q.Result().Stale)
}

func TestQuery_ErrorKeepsData(t *testing.T) {
	boom := errors.New("boom")
	fail := false
	q := New("orders", NewClock(), func(context.Context) (string, error) {
		if fail {
			return "", boom
		}
		return "ok", nil
	})

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)
	fail = true
	_, err = q.Fetch(context.Background())
	assert.ErrorIs(t, err, boom)

	r := q.Result()
	assert.ErrorIs(t, r.Err, boom)
	assert.Equal(t, "ok", r.Data)
}

func TestQuery_OlderResultDoesNotOverwriteNewer(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan string)
	q := New("cart", NewClock(), gated(&calls, started, release))

	first := make(chan struct{})
	go func() { _, _ = q.Fetch(context.Background()); close(first) }()
	<-started
	second := make(chan string, 1)
	go func() {
		v, _ := q.Fetch(context.Background())
		second <- v
	}()
	<-started

	// whichever fetch returns first, the later-started one wins
	release <- "a"
	release <- "b"
	<-first
	assert.Equal(t, <-second, q.Result().Data)
	assert.False(t, q.Result().IsPending)
}

func TestQuery_CloseDiscardsLateResult(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan string)
	q := New("posts", NewClock(), gated(&calls, started, release))

	done := make(chan string)
	go func() {
		v, _ := q.Fetch(context.Background())
		done <- v
	}()
	<-started
	q.Close()
	release <- "late"
	assert.Equal(t, "late", <-done)
	assert.False(t, q.Result().HasData)

	_, err := q.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMutation_InvalidatesOnSuccess(t *testing.T) {
	clock := NewClock()
	boom := errors.New("rejected")
	m := NewMutation(clock, func(_ context.Context, code string) (string, error) {
		if code == "" {
			return "", boom
		}
		return "MAI-" + code, nil
	})

	_, err := m.Run(context.Background(), "")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Err(), boom)
	assert.Zero(t, clock.Stamp())

	out, err := m.Run(context.Background(), "002")
	require.NoError(t, err)
	assert.Equal(t, "MAI-002", out)
	assert.NoError(t, m.Err())
	assert.EqualValues(t, 1, clock.Stamp())
	assert.False(t, m.IsPending())
}
