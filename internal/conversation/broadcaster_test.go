// ABOUTME: Tests for the session event broadcaster
// ABOUTME: Covers type filtering, slow consumers, unsubscribe, context cancellation, close

package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(t EventType) Event {
	return Event{Type: t, ConversationID: "conv-1", Timestamp: time.Now()}
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_SubscriberReceivesEvent(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context())
	b.Publish(makeEvent(EventMessage))

	assert.Equal(t, EventMessage, recv(t, ch).Type)
}

func TestBroadcaster_TypeFilter(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ends, _ := b.Subscribe(t.Context(), EventConversationEnd)
	all, _ := b.Subscribe(t.Context())

	b.Publish(makeEvent(EventStateChange))
	b.Publish(makeEvent(EventConversationEnd))

	assert.Equal(t, EventConversationEnd, recv(t, ends).Type)
	assert.Equal(t, EventStateChange, recv(t, all).Type)
	assert.Equal(t, EventConversationEnd, recv(t, all).Type)

	select {
	case e := <-ends:
		t.Fatalf("filtered subscriber got unexpected %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_PreservesOrder(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context())
	order := []EventType{EventStateChange, EventMessage, EventResponse, EventConversationEnd}
	for _, typ := range order {
		b.Publish(makeEvent(typ))
	}
	for _, want := range order {
		assert.Equal(t, want, recv(t, ch).Type)
	}
}

func TestBroadcaster_SlowConsumerDoesNotBlockPublisher(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	// Never read from the first subscriber.
	_, _ = b.Subscribe(t.Context())
	fast, _ := b.Subscribe(t.Context())

	done := make(chan struct{})
	go func() {
		for range subscriberBufferSize * 3 {
			b.Publish(makeEvent(EventMessage))
		}
		close(done)
	}()

	received := 0
	for {
		select {
		case <-fast:
			received++
		case <-done:
			assert.Positive(t, received+len(fast))
			return
		case <-time.After(2 * time.Second):
			t.Fatal("publisher blocked by slow subscriber")
		}
	}
}

func TestBroadcaster_ContextCancellationCleansUp(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(t.Context())
	ch, _ := b.Subscribe(ctx)
	assert.Equal(t, 1, b.SubscriberCount())

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after context cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
	assert.Eventually(t, func() bool { return b.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroadcaster_ManualUnsubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, subID := b.Subscribe(t.Context())
	assert.True(t, b.Unsubscribe(subID))
	assert.False(t, b.Unsubscribe(subID), "second unsubscribe is a no-op")

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.SubscriberCount())

	// Publishing after unsubscribe must not panic.
	b.Publish(makeEvent(EventMessage))
}

func TestBroadcaster_CloseClosesChannels(t *testing.T) {
	b := NewBroadcaster(nil)

	ch1, _ := b.Subscribe(t.Context())
	ch2, _ := b.Subscribe(t.Context())
	b.Close()
	b.Close()

	for _, ch := range []<-chan Event{ch1, ch2} {
		_, ok := <-ch
		assert.False(t, ok)
	}

	late, _ := b.Subscribe(t.Context())
	_, ok := <-late
	assert.False(t, ok, "subscribe after close returns a closed channel")
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroadcaster_ConcurrentPublishSubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			ch, subID := b.Subscribe(ctx)
			for range 20 {
				b.Publish(makeEvent(EventMessage))
			}
			b.Unsubscribe(subID)
			for range ch {
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroadcaster_LifecycleEventEvictsOldestChatter(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context())
	b.Publish(makeEvent(EventConversationStart))
	for i := range subscriberBufferSize {
		e := makeEvent(EventStateChange)
		e.State = State(fmt.Sprintf("s%d", i))
		b.Publish(e)
	}
	b.Publish(makeEvent(EventConversationEnd))
	b.Publish(makeEvent(EventMessage)) // full again: dropped

	events := drain(ch)
	require.Len(t, events, subscriberBufferSize)
	assert.Equal(t, EventConversationStart, events[0].Type, "lifecycle events are not evicted")
	assert.Equal(t, State("s1"), events[1].State, "oldest stateChange evicted")
	assert.Equal(t, EventConversationEnd, events[len(events)-1].Type)
}

func TestBroadcaster_LifecycleOnlyBufferEvictsOldest(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context(), EventError)
	for i := range subscriberBufferSize + 1 {
		e := makeEvent(EventError)
		e.Err = fmt.Errorf("failure %d", i)
		b.Publish(e)
	}

	events := drain(ch)
	require.Len(t, events, subscriberBufferSize)
	assert.EqualError(t, events[0].Err, "failure 1")
	assert.EqualError(t, events[len(events)-1].Err, fmt.Sprintf("failure %d", subscriberBufferSize))
}
