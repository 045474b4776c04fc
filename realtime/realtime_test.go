// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func receive(t *testing.T, sub *Subscription) (Event, bool) {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		return e, ok
	case <-time.After(200 * time.Millisecond):
		return Event{}, false
	}
}

func TestBrokerFiltersByGroupAndKind(t *testing.T) {
	b := NewBroker(nil)
	ctx := context.Background()

	joins := b.Subscribe("g1", KindMemberJoined)
	defer joins.Close()
	all := b.Subscribe("g1")
	defer all.Close()
	other := b.Subscribe("g2")
	defer other.Close()

	b.Publish(ctx, Event{Kind: KindRatingSaved, GroupID: "g1", ProfileID: "p1", VillaID: "v1"})
	b.Publish(ctx, Event{Kind: KindMemberJoined, GroupID: "g1", ProfileID: "p2"})

	e, ok := receive(t, joins)
	if !ok || e.Kind != KindMemberJoined || e.ProfileID != "p2" {
		t.Errorf("joins got %+v (ok=%v), want member_joined for p2", e, ok)
	}
	if e.At.IsZero() {
		t.Error("Expected Publish to stamp the event time")
	}

	first, _ := receive(t, all)
	second, _ := receive(t, all)
	if first.Kind != KindRatingSaved || second.Kind != KindMemberJoined {
		t.Errorf("all got %s then %s, want rating_saved then member_joined", first.Kind, second.Kind)
	}

	if e, ok := receive(t, other); ok {
		t.Errorf("Subscriber for g2 received %+v", e)
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker(nil)
	sub := b.Subscribe("g1")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < DefaultBufferSize*3; i++ {
			b.Publish(context.Background(), Event{Kind: KindRatingSaved, GroupID: "g1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if n := len(sub.Events()); n != DefaultBufferSize {
		t.Errorf("Buffered %d events, want %d", n, DefaultBufferSize)
	}
}

func TestSubscriptionClose(t *testing.T) {
	b := NewBroker(nil)
	sub := b.Subscribe("g1")

	if n := b.SubscriberCount("g1"); n != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", n)
	}

	sub.Close()
	sub.Close()

	if n := b.SubscriberCount("g1"); n != 0 {
		t.Errorf("SubscriberCount after close = %d, want 0", n)
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("Expected events channel to be closed")
	}

	// Publishing after close must not panic
	b.Publish(context.Background(), Event{Kind: KindMemberJoined, GroupID: "g1"})
}

// fakeWriter records messages written to it
type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := Event{Kind: KindRatingSaved, GroupID: "g1", ProfileID: "p1", VillaID: "v1", At: at}
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "g1" {
		t.Errorf("Key = %q, want g1", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != string(KindRatingSaved) {
		t.Errorf("Unexpected headers: %+v", msg.Headers)
	}

	var got Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("Failed to decode message value: %v", err)
	}
	if got != e {
		t.Errorf("Decoded event = %+v, want %+v", got, e)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close() error = %v, closed = %v", err, w.closed)
	}
}

func TestKafkaPublisherError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: boom})

	err := p.Publish(context.Background(), Event{Kind: KindMemberJoined, GroupID: "g1"})
	if !errors.Is(err, boom) {
		t.Errorf("Publish error = %v, want wrapped %v", err, boom)
	}
}

func TestBrokerMirrorsEvents(t *testing.T) {
	w := &fakeWriter{}
	b := NewBroker(NewKafkaPublisherWithWriter(w))

	b.Publish(context.Background(), Event{Kind: KindMemberJoined, GroupID: "g1", ProfileID: "p1"})
	b.Publish(context.Background(), Event{Kind: KindRatingSaved, GroupID: "g1", ProfileID: "p1", VillaID: "v1"})

	// Close drains in-flight mirror writes
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) != 2 {
		t.Errorf("Mirrored %d events, want 2", len(w.msgs))
	}
	if !w.closed {
		t.Error("Expected mirror writer to be closed")
	}
}
