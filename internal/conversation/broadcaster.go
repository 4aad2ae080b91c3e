// ABOUTME: In-memory fan-out of session events to subscribers
// ABOUTME: Non-blocking publish; lifecycle events evict buffered chatter instead of being dropped

package conversation

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

type subscriber struct {
	mu     sync.Mutex // serializes sends so eviction sees a stable buffer
	ch     chan Event
	types  map[EventType]struct{} // empty means every type
	done   chan struct{}
	closed bool
}

func (s *subscriber) wants(t EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Broadcaster provides pub/sub for the events of one session. Subscribers
// choose the event types they receive and get them in publish order.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber // subID -> subscriber
	closed      bool
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]*subscriber),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for the given event types, or for every
// type when none are given. Returns the event channel and a subscription ID
// for Unsubscribe. The subscription is removed automatically when ctx is
// cancelled. Subscribing to a closed broadcaster returns a closed channel.
func (b *Broadcaster) Subscribe(ctx context.Context, types ...EventType) (<-chan Event, string) {
	subID := uuid.New().String()
	sub := &subscriber{
		ch:    make(chan Event, subscriberBufferSize),
		types: make(map[EventType]struct{}, len(types)),
		done:  make(chan struct{}),
	}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, subID
	}
	b.subscribers[subID] = sub
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID, "types", len(types))

	// Auto-cleanup on context cancellation
	go func() {
		select {
		case <-ctx.Done():
			b.Unsubscribe(subID)
		case <-sub.done:
		}
	}()

	return sub.ch, subID
}

// Publish delivers event to every interested subscriber without blocking.
// When a subscriber's buffer is full, stateChange, message and response events
// are dropped for it. Lifecycle events (conversationStart, conversationEnd,
// error) evict the oldest buffered non-lifecycle event instead.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		if !sub.wants(event.Type) {
			continue
		}
		switch sub.deliver(event) {
		case deliverDropped:
			b.logger.Debug("dropped event for slow subscriber",
				"sub_id", id,
				"event_type", event.Type)
		case deliverEvicted:
			b.logger.Debug("evicted buffered event for slow subscriber",
				"sub_id", id,
				"event_type", event.Type)
		case deliverEvictedLifecycle:
			b.logger.Warn("subscriber buffer holds only lifecycle events, evicted oldest",
				"sub_id", id,
				"event_type", event.Type)
		}
	}
}

type deliverOutcome int

const (
	deliverSent deliverOutcome = iota
	deliverDropped
	deliverEvicted
	deliverEvictedLifecycle
)

// isLifecycle reports whether t marks a session boundary or failure. These
// are emitted once per occurrence, so they are never dropped.
func isLifecycle(t EventType) bool {
	switch t {
	case EventConversationStart, EventConversationEnd, EventError:
		return true
	}
	return false
}

// deliver must be called with the broadcaster read lock held, which keeps the
// channel open. Only the reader can run concurrently and it only frees space,
// so the refill sends below never block.
func (s *subscriber) deliver(event Event) deliverOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.ch <- event:
		return deliverSent
	default:
	}
	if !isLifecycle(event.Type) {
		return deliverDropped
	}

	held := make([]Event, 0, cap(s.ch))
drain:
	for {
		select {
		case e := <-s.ch:
			held = append(held, e)
		default:
			break drain
		}
	}

	// The reader may have freed space between the failed send and the drain.
	outcome := deliverSent
	if len(held) == cap(s.ch) {
		if i := slices.IndexFunc(held, func(e Event) bool { return !isLifecycle(e.Type) }); i >= 0 {
			held = slices.Delete(held, i, i+1)
			outcome = deliverEvicted
		} else {
			held = held[1:]
			outcome = deliverEvictedLifecycle
		}
	}

	for _, e := range held {
		s.ch <- e
	}
	s.ch <- event
	return outcome
}

// Unsubscribe removes a subscription and closes its channel. Returns false if
// the subscription does not exist.
func (b *Broadcaster) Unsubscribe(subID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscribers[subID]
	if !exists {
		return false
	}
	delete(b.subscribers, subID)
	sub.close()

	b.logger.Debug("subscriber removed", "sub_id", subID)
	return true
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel. Later subscriptions receive closed
// channels. Safe to call multiple times.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscribers {
		sub.close()
		delete(b.subscribers, id)
	}

	b.logger.Debug("broadcaster closed")
}

// close must be called with the broadcaster lock held.
func (s *subscriber) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	close(s.done)
}
