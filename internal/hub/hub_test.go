package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event: %+v", e)
	default:
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	t.Parallel()

	h := New()
	ch1, cancel1 := h.Subscribe(1)
	defer cancel1()
	ch2, cancel2 := h.Subscribe(1)
	defer cancel2()

	h.Publish(Event{OrderID: 1, Status: "PREPARING", Title: "Order is Being Prepared"})

	e1 := recvEvent(t, ch1)
	e2 := recvEvent(t, ch2)
	assert.Equal(t, e1, e2)
	assert.Equal(t, uint(1), e1.OrderID)
	assert.Equal(t, "PREPARING", e1.Status)
}

func TestPublishIsScopedToOrder(t *testing.T) {
	t.Parallel()

	h := New()
	chX, cancelX := h.Subscribe(1)
	defer cancelX()
	chY, cancelY := h.Subscribe(2)
	defer cancelY()

	h.Publish(Event{OrderID: 1, Status: "READY"})

	e := recvEvent(t, chX)
	assert.Equal(t, uint(1), e.OrderID)
	assertNoEvent(t, chY)
}

func TestCancelReleasesOnlyOneSubscriber(t *testing.T) {
	t.Parallel()

	h := New()
	ch1, cancel1 := h.Subscribe(1)
	ch2, cancel2 := h.Subscribe(1)
	defer cancel2()

	cancel1()
	cancel1() // second call is a no-op

	h.Publish(Event{OrderID: 1, Status: "READY"})
	e := recvEvent(t, ch2)
	assert.Equal(t, "READY", e.Status)

	_, ok := <-ch1
	assert.False(t, ok, "cancelled subscription should be closed")
	assert.Equal(t, 1, h.Subscribers(1))
}

func TestCloseTopicClosesSubscribers(t *testing.T) {
	t.Parallel()

	h := New()
	ch, cancel := h.Subscribe(7)
	defer cancel()

	h.Publish(Event{OrderID: 7, Status: "COMPLETED"})
	h.CloseTopic(7)

	// Buffered event is still readable, then the channel reports closed.
	e := recvEvent(t, ch)
	assert.Equal(t, "COMPLETED", e.Status)
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers(7))
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	t.Parallel()

	h := New()
	_, cancel := h.Subscribe(3)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish(Event{OrderID: 3, Status: "PREPARING"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}
