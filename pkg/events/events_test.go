package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marintech/deckhand/pkg/types"
)

func receive(t *testing.T, sub Subscriber) *types.RunEvent {
	t.Helper()
	select {
	case ev := <-sub:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishSubscribe(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())

	b.Publish(&types.RunEvent{Type: types.RunEventStarted, Logger: "gyro", Pid: 42})

	ev := receive(t, sub)
	assert.Equal(t, types.RunEventStarted, ev.Type)
	assert.Equal(t, "gyro", ev.Logger)
	assert.Equal(t, 42, ev.Pid)
	assert.NotEmpty(t, ev.ID, "broker stamps an ID")
	assert.False(t, ev.Timestamp.IsZero(), "broker stamps a timestamp")
}

func TestMultipleSubscribers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Publish(&types.RunEvent{Type: types.RunEventDied, Logger: "depth"})

	assert.Equal(t, "depth", receive(t, sub1).Logger)
	assert.Equal(t, "depth", receive(t, sub2).Logger)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)
}

func TestPublishPreservesExistingStamps(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	ts := time.Date(2026, 2, 14, 3, 0, 0, 0, time.UTC)
	b.Publish(&types.RunEvent{ID: "fixed-id", Type: types.RunEventModeSet, Timestamp: ts})

	ev := receive(t, sub)
	require.Equal(t, "fixed-id", ev.ID)
	assert.True(t, ev.Timestamp.Equal(ts))
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe() // never drained past its buffer

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			b.Publish(&types.RunEvent{Type: types.RunEventError})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
	_ = sub
}
