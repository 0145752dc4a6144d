// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package eventbus is a small in-memory pub/sub used to fan vessel
// state out to the web layer. Subscriber channels hold a single slot;
// a publish replaces any undelivered older event so slow consumers
// always see the most recent state rather than a backlog.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

type Topic string
type Event = any

type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]chan Event
	last   map[Topic]Event
	nextID uint64
	closed atomic.Bool
}

func New() *Bus {
	return &Bus{
		subs: make(map[Topic]map[uint64]chan Event),
		last: make(map[Topic]Event),
	}
}

// Publish stores ev as the topic's last event and delivers it to every
// subscriber with replace-oldest semantics.
func (b *Bus) Publish(topic Topic, ev Event) {
	if b.closed.Load() {
		return
	}

	b.mu.Lock()
	b.last[topic] = ev
	var chans []chan Event
	if m, ok := b.subs[topic]; ok {
		chans = make([]chan Event, 0, len(m))
		for _, ch := range m {
			chans = append(chans, ch)
		}
	}
	b.mu.Unlock()

	for _, ch := range chans {
		deliverReplace(ch, ev)
	}
}

// deliverReplace sends ev to ch without blocking. If the channel is
// full the stale value is discarded first.
func deliverReplace(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}

// Subscribe returns a receive-only channel for the topic and an
// unsubscribe func. With withLast set, the stored last event (if any)
// is delivered immediately. The subscription is removed and the
// channel closed when ctx is canceled or unsubscribe is called.
func (b *Bus) Subscribe(ctx context.Context, topic Topic, withLast bool) (<-chan Event, func()) {
	if b.closed.Load() {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Event, 1)
	id := atomic.AddUint64(&b.nextID, 1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]chan Event)
	}
	b.subs[topic][id] = ch

	var last Event
	var hasLast bool
	if withLast {
		last, hasLast = b.last[topic]
	}
	b.mu.Unlock()

	if hasLast {
		deliverReplace(ch, last)
	}

	done := make(chan struct{})
	var once sync.Once
	unsub := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		// Close owns the channel once the bus shuts down
		removed := false
		b.mu.Lock()
		if m, ok := b.subs[topic]; ok {
			if _, ok := m[id]; ok {
				delete(m, id)
				removed = true
			}
			if len(m) == 0 {
				delete(b.subs, topic)
			}
		}
		b.mu.Unlock()
		if removed {
			close(ch)
		}
	}()

	return ch, unsub
}

// GetLast returns the last published event for a topic, if any.
func (b *Bus) GetLast(topic Topic) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.last[topic]
	return v, ok
}

// Close shuts the bus down. After Close, Publish is a no-op and
// Subscribe returns a closed channel.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.mu.Lock()
	for _, m := range b.subs {
		for _, ch := range m {
			close(ch)
		}
	}
	b.subs = nil
	b.last = nil
	b.mu.Unlock()
}
