package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusSubscribeReceivesPublishedEvent(t *testing.T) {
	b := New()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())

	b.Publish(SystemEvent{Kind: EventServiceStarted, NodeID: "n1"})

	select {
	case ev := <-sub:
		assert.Equal(t, EventServiceStarted, ev.Kind)
		assert.Equal(t, "n1", ev.NodeID)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("did not receive published event")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, ok := <-sub
	assert.False(t, ok)
}

func TestBusBroadcastsToAllSubscribers(t *testing.T) {
	b := New()
	b.Start()
	defer b.Stop()

	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish(SystemEvent{Kind: EventServiceCrashed, NodeID: "n2"})

	for _, s := range []Subscriber{s1, s2} {
		select {
		case ev := <-s:
			assert.Equal(t, "n2", ev.NodeID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive broadcast")
		}
	}
}

// A slow subscriber that never drains its buffer must not block delivery
// to other subscribers, nor stall the publisher.
func TestBusSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	b := NewWithCapacity(subscriberBuffer * 4)
	b.Start()
	defer b.Stop()

	slow := b.Subscribe()
	_ = slow
	fast := b.Subscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(SystemEvent{Kind: EventError, Message: "x"})
	}

	select {
	case <-fast:
	case <-time.After(2 * time.Second):
		t.Fatal("fast subscriber starved by slow one")
	}
}

// A slow subscriber that never drains must still end up holding the most
// recent window of events, with the oldest ones evicted to make room —
// not whichever events happened to arrive while its buffer was full.
func TestBusSlowSubscriberEvictsOldestNotNewest(t *testing.T) {
	b := NewWithCapacity(subscriberBuffer * 4)
	b.Start()
	defer b.Stop()

	slow := b.Subscribe()

	total := subscriberBuffer + 10
	for i := 0; i < total; i++ {
		b.Publish(SystemEvent{Kind: EventError, ExitCode: i})
	}

	require.Eventually(t, func() bool {
		return len(slow) == subscriberBuffer
	}, 2*time.Second, 10*time.Millisecond)

	got := make([]int, 0, subscriberBuffer)
	for i := 0; i < subscriberBuffer; i++ {
		ev := <-slow
		got = append(got, ev.ExitCode)
	}

	require.Len(t, got, subscriberBuffer)
	assert.Equal(t, total-subscriberBuffer, got[0], "oldest surviving event should be the start of the most recent window")
	assert.Equal(t, total-1, got[len(got)-1], "newest published event must survive, not be dropped")
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1]+1, got[i], "surviving events must be contiguous and in order")
	}
}

func TestBusUnsubscribeUnknownIsNoop(t *testing.T) {
	b := New()
	other := make(Subscriber, 1)
	require.NotPanics(t, func() { b.Unsubscribe(other) })
}
