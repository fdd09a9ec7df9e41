package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster[ReceiverEvent]()
	sub1 := b.Subscribe(4)
	sub2 := b.Subscribe(4)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	assert.Equal(t, 2, b.SubscriberCount())

	b.Publish(ReceiverEvent{Kind: ReceiverVolumeChanged, VolumeDB: -20})

	select {
	case e := <-sub1.C():
		assert.Equal(t, ReceiverVolumeChanged, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("subscriber 1 never received event")
	}
	select {
	case e := <-sub2.C():
		assert.Equal(t, ReceiverVolumeChanged, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("subscriber 2 never received event")
	}
}

func TestBroadcasterDropsOnFullBufferWithoutBlocking(t *testing.T) {
	b := NewBroadcaster[ReceiverEvent]()
	sub := b.Subscribe(1)
	defer sub.Unsubscribe()

	b.Publish(ReceiverEvent{Kind: ReceiverBufferUnderrun})
	b.Publish(ReceiverEvent{Kind: ReceiverBufferUnderrun}) // must not block

	<-sub.C()
	select {
	case <-sub.C():
		t.Fatal("expected the second publish to have been dropped")
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster[ClientEvent]()
	sub := b.Subscribe(1)
	require.Equal(t, 1, b.SubscriberCount())

	sub.Unsubscribe()
	assert.Equal(t, 0, b.SubscriberCount())

	_, ok := <-sub.C()
	assert.False(t, ok)
}
