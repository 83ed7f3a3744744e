package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Snapshot is one result of a feed query: the value or the error that replaced it.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Query reads the current state for a feed key.
type Query[T any] func(ctx context.Context) (T, error)

// Match decides whether a change can affect a key. Nil matches everything.
type Match func(Change) bool

// Feed shares one backend listener per key among all of its subscribers. The
// listener opens with the first subscriber, re-runs the query on every matching
// change, and is torn down when the last subscriber leaves.
type Feed[T any] struct {
	Name   string
	Source Source

	mu        sync.Mutex
	listeners map[string]*listener[T]
}

type listener[T any] struct {
	subs   map[*Subscription[T]]struct{}
	latest *Snapshot[T]
	cancel context.CancelFunc
}

// Subscription receives snapshots for one key. Slow readers only ever see the
// latest snapshot.
type Subscription[T any] struct {
	feed   *Feed[T]
	key    string
	events chan Snapshot[T]
	done   chan struct{}
	once   sync.Once
}

// Events is closed after Close, or after the subscribe context ends.
func (s *Subscription[T]) Events() <-chan Snapshot[T] {
	return s.events
}

// Close detaches the subscriber. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		close(s.done)
		s.feed.unsubscribe(s)
	})
}

func (s *Subscription[T]) deliver(snap Snapshot[T]) {
	for {
		select {
		case s.events <- snap:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// Subscribe attaches to key, opening the listener if this is the first subscriber.
// A listener that already has a snapshot hands it over immediately. The
// subscription closes itself when ctx ends.
func (f *Feed[T]) Subscribe(ctx context.Context, key string, query Query[T], match Match) *Subscription[T] {
	sub := &Subscription[T]{
		feed:   f,
		key:    key,
		events: make(chan Snapshot[T], 1),
		done:   make(chan struct{}),
	}

	f.mu.Lock()
	if f.listeners == nil {
		f.listeners = make(map[string]*listener[T])
	}
	l, ok := f.listeners[key]
	if !ok {
		lctx, cancel := context.WithCancel(context.Background())
		l = &listener[T]{subs: make(map[*Subscription[T]]struct{}), cancel: cancel}
		f.listeners[key] = l
		go f.run(lctx, key, l, query, match)
		log.Debug().Str("feed", f.Name).Str("key", key).Msg("realtime: listener opened")
	}
	l.subs[sub] = struct{}{}
	if l.latest != nil {
		sub.deliver(*l.latest)
	}
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub
}

// Listeners reports how many keys currently hold an open backend listener.
func (f *Feed[T]) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *Feed[T]) unsubscribe(sub *Subscription[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listeners[sub.key]
	if !ok {
		return
	}
	if _, ok := l.subs[sub]; !ok {
		return
	}
	delete(l.subs, sub)
	close(sub.events)
	if len(l.subs) == 0 {
		l.cancel()
		delete(f.listeners, sub.key)
		log.Debug().Str("feed", f.Name).Str("key", sub.key).Msg("realtime: listener closed")
	}
}

func (f *Feed[T]) run(ctx context.Context, key string, l *listener[T], query Query[T], match Match) {
	changes, stop, err := f.Source.Listen(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Str("feed", f.Name).Str("key", key).Msg("realtime: listen failed")
			var zero T
			f.broadcast(key, l, Snapshot[T]{Value: zero, Err: err})
		}
		return
	}
	defer func() {
		if err := stop(); err != nil {
			log.Warn().Err(err).Str("feed", f.Name).Str("key", key).Msg("realtime: listener stop")
		}
	}()

	f.refresh(ctx, key, l, query)
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if match == nil || match(ch) {
				f.refresh(ctx, key, l, query)
			}
		}
	}
}

func (f *Feed[T]) refresh(ctx context.Context, key string, l *listener[T], query Query[T]) {
	v, err := query(ctx)
	if ctx.Err() != nil {
		return
	}
	f.broadcast(key, l, Snapshot[T]{Value: v, Err: err})
}

func (f *Feed[T]) broadcast(key string, l *listener[T], snap Snapshot[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listeners[key] != l {
		return
	}
	l.latest = &snap
	for sub := range l.subs {
		sub.deliver(snap)
	}
}
