package fetchcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// FetchFunc performs the underlying request for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is what a caller sees for a key.
//
// A zero Result means "no request": the key was empty, nothing was fetched
// and nothing is loading.
type Result[T any] struct {
	// Data is the last successfully fetched value, if any. It may be set
	// together with Err when a refetch failed after an earlier success.
	Data *T

	Err       error
	IsError   bool
	IsLoading bool

	// FetchedAt is when Data was fetched.
	FetchedAt time.Time
}

// Config configures a Query.
type Config struct {
	// Name identifies the query in logs.
	Name string

	// TTL is the staleness window. Entries older than this are refetched.
	TTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time

	Logger logrus.FieldLogger
}

type entry[T any] struct {
	data      *T
	fetchedAt time.Time
	err       error
}

// Query caches the results of one kind of request by key. Concurrent
// requests for the same key share a single underlying call. Errors are kept
// and surfaced but never retried on their own; the next Fetch for that key
// tries again.
type Query[T any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	entries  map[string]entry[T]
	inflight map[string]bool

	calls atomic.Int64
	log   logrus.FieldLogger
}

// NewQuery returns an empty Query.
func NewQuery[T any](cfg Config) *Query[T] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Query[T]{
		name:     cfg.Name,
		ttl:      cfg.TTL,
		now:      now,
		entries:  make(map[string]entry[T]),
		inflight: make(map[string]bool),
		log: logger.WithFields(logrus.Fields{
			"component": "fetchcache",
			"query":     cfg.Name,
		}),
	}
}

// Fetch returns the value for key, calling fetch only when there is no fresh
// entry. An empty key short-circuits to a zero Result without calling fetch.
//
// The underlying call is detached from ctx cancellation so one impatient
// caller cannot fail the request for everyone sharing it; ctx still bounds
// how long this caller waits.
func (q *Query[T]) Fetch(ctx context.Context, key string, fetch FetchFunc[T]) Result[T] {
	if key == "" {
		return Result[T]{}
	}
	if res, ok := q.fresh(key); ok {
		return res
	}

	callCtx := context.WithoutCancel(ctx)
	ch := q.group.DoChan(key, func() (any, error) {
		// A call that finished between the freshness check and here already
		// filled the entry.
		if res, ok := q.fresh(key); ok {
			return res, nil
		}
		return q.run(callCtx, key, fetch), nil
	})

	select {
	case r := <-ch:
		return r.Val.(Result[T])
	case <-ctx.Done():
		res := q.Peek(key)
		res.Err = ctx.Err()
		res.IsError = true
		return res
	}
}

func (q *Query[T]) run(ctx context.Context, key string, fetch FetchFunc[T]) Result[T] {
	q.mu.Lock()
	q.inflight[key] = true
	q.mu.Unlock()

	q.calls.Add(1)
	start := q.now()
	v, err := fetch(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, key)

	prev := q.entries[key]
	log := q.log.WithField("key", key)
	if err != nil {
		log.WithError(err).Warn("Fetch failed")
		prev.err = err
		q.entries[key] = prev
		return Result[T]{Data: prev.data, FetchedAt: prev.fetchedAt, Err: err, IsError: true}
	}

	e := entry[T]{data: &v, fetchedAt: q.now()}
	q.entries[key] = e
	log.WithField("duration", e.fetchedAt.Sub(start)).Debug("Fetched")
	return Result[T]{Data: e.data, FetchedAt: e.fetchedAt}
}

func (q *Query[T]) fresh(key string) (Result[T], bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	e, ok := q.entries[key]
	if !ok || e.err != nil || e.data == nil || q.expired(e) {
		return Result[T]{}, false
	}
	return Result[T]{Data: e.data, FetchedAt: e.fetchedAt}, true
}

func (q *Query[T]) expired(e entry[T]) bool {
	return q.now().Sub(e.fetchedAt) >= q.ttl
}

// Peek reports the cached state of key without fetching. Data is only set
// while it is within the staleness window.
func (q *Query[T]) Peek(key string) Result[T] {
	if key == "" {
		return Result[T]{}
	}
	q.mu.RLock()
	defer q.mu.RUnlock()

	res := Result[T]{IsLoading: q.inflight[key]}
	e, ok := q.entries[key]
	if !ok {
		return res
	}
	if e.data != nil && !q.expired(e) {
		res.Data = e.data
		res.FetchedAt = e.fetchedAt
	}
	if e.err != nil {
		res.Err = e.err
		res.IsError = true
	}
	return res
}

// Invalidate drops the entry for key so the next Fetch goes upstream.
// A call already in flight is not interrupted.
func (q *Query[T]) Invalidate(key string) {
	q.mu.Lock()
	delete(q.entries, key)
	q.mu.Unlock()
}

// Purge drops every expired entry and returns how many were removed.
func (q *Query[T]) Purge() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0
	for key, e := range q.entries {
		if q.expired(e) {
			delete(q.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired ones included.
func (q *Query[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Calls returns how many times a fetch function has been invoked.
func (q *Query[T]) Calls() int64 {
	return q.calls.Load()
}

// TTL returns the staleness window.
func (q *Query[T]) TTL() time.Duration {
	return q.ttl
}
