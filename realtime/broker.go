// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindMemberJoined Kind = "member_joined"
	KindRatingSaved  Kind = "rating_saved"
)

// Event announces a row change for a group. Subscribers treat it as a hint
// and re-read the store rather than trusting the payload.
type Event struct {
	Kind      Kind      `json:"kind"`
	GroupID   string    `json:"group_id"`
	ProfileID string    `json:"profile_id"`
	VillaID   string    `json:"villa_id,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher receives a copy of every event published on a Broker
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// DefaultBufferSize is the per-subscription channel capacity
const DefaultBufferSize = 16

const mirrorTimeout = 5 * time.Second

// Broker fans events out to in-process subscribers by group id.
// Delivery never blocks the publisher: a full subscriber drops the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	mirror Publisher
	wg     sync.WaitGroup
}

// NewBroker creates a broker. mirror may be nil.
func NewBroker(mirror Publisher) *Broker {
	return &Broker{
		subs:   make(map[string]map[*Subscription]struct{}),
		mirror: mirror,
	}
}

// Subscribe registers for events on groupID. With no kinds every kind is
// delivered.
func (b *Broker) Subscribe(groupID string, kinds ...Kind) *Subscription {
	sub := &Subscription{
		broker:  b,
		groupID: groupID,
		ch:      make(chan Event, DefaultBufferSize),
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.subs[groupID]
	if !ok {
		group = make(map[*Subscription]struct{})
		b.subs[groupID] = group
	}
	group[sub] = struct{}{}

	return sub
}

// Publish delivers e to matching subscribers and hands it to the mirror
func (b *Broker) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	for sub := range b.subs[e.GroupID] {
		if !sub.wants(e.Kind) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			slog.Warn("Dropped event for slow subscriber", "group_id", e.GroupID, "kind", e.Kind)
		}
	}
	b.mu.RUnlock()

	if b.mirror == nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
		defer cancel()

		if err := b.mirror.Publish(mctx, e); err != nil {
			slog.Error("Failed to mirror event", "group_id", e.GroupID, "kind", e.Kind, "error", err)
		}
	}()
}

// SubscriberCount reports live subscriptions for groupID
func (b *Broker) SubscriberCount(groupID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[groupID])
}

// Close waits for in-flight mirror writes and closes the mirror
func (b *Broker) Close() error {
	b.wg.Wait()
	if b.mirror != nil {
		return b.mirror.Close()
	}
	return nil
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.subs[sub.groupID]
	if !ok {
		return
	}
	if _, ok := group[sub]; !ok {
		return
	}
	delete(group, sub)
	if len(group) == 0 {
		delete(b.subs, sub.groupID)
	}
	close(sub.ch)
}

// Subscription is one listener's view of a group's events
type Subscription struct {
	broker  *Broker
	groupID string
	kinds   map[Kind]struct{}
	ch      chan Event
	once    sync.Once
}

// Events is closed when the subscription is closed
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

func (s *Subscription) wants(k Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}
