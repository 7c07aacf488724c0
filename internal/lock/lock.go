// Package lock serialises work on a single screening.  The booking
// coordinator holds the lock for a (movie, showtime) key across the seat
// conflict check and the ticket insert.
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker acquires an exclusive lock on key.  The returned release func is
// safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ScreeningKey is the lock key for one screening.
func ScreeningKey(movieName string, showtime time.Time) string {
	return "screening:" + movieName + "|" + showtime.UTC().Format(time.RFC3339Nano)
}

type slot struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker.  Slots are created on demand and
// dropped once no goroutine holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.unref(key, s)
		})
	}, nil
}

func (m *KeyedMutex) unref(key string, s *slot) {
	m.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
	m.mu.Unlock()
}

// held reports how many keys currently have a slot.
func (m *KeyedMutex) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
