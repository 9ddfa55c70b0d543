package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	h := NewHub()
	s1 := h.Subscribe()
	s2 := h.Subscribe()
	assert.Equal(t, 2, h.SubscriberCount())

	h.Unsubscribe(s1)
	assert.Equal(t, 1, h.SubscriberCount())
	select {
	case <-s1.Done():
	default:
		t.Fatal("done not closed after unsubscribe")
	}

	h.Unsubscribe(s1) // second call is harmless
	h.Unsubscribe(s2)
	assert.Equal(t, 0, h.SubscriberCount())
}

func TestPublishDelivers(t *testing.T) {
	h := NewHub()
	s := h.Subscribe()
	defer h.Unsubscribe(s)

	h.Publish(Event{Type: ShowStarted, Show: &ShowRef{ID: "1", Name: "Bruce"}})

	select {
	case ev := <-s.C:
		assert.Equal(t, ShowStarted, ev.Type)
		assert.Equal(t, "Bruce", ev.Show.Name)
		assert.False(t, ev.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe()
	defer h.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(Event{Type: QueueChanged, QueueSize: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	assert.Equal(t, cap(slow.C), len(slow.C))
}

type failingForwarder struct{ calls atomic.Int32 }

func (f *failingForwarder) Forward(context.Context, Event) error {
	f.calls.Add(1)
	return errors.New("down")
}

func TestForwarderErrorsAreNotFatal(t *testing.T) {
	h := NewHub()
	f := &failingForwarder{}
	h.AddForwarder(f)
	h.Publish(Event{Type: ShowEnded})
	h.Publish(Event{Type: ShowEnded})
	h.Close()
	assert.Equal(t, int32(2), f.calls.Load())
}

// stalledForwarder blocks every call until released.
type stalledForwarder struct {
	release chan struct{}
	calls   atomic.Int32
}

func (f *stalledForwarder) Forward(ctx context.Context, _ Event) error {
	f.calls.Add(1)
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPublishDoesNotWaitForForwarder(t *testing.T) {
	h := NewHub()
	f := &stalledForwarder{release: make(chan struct{})}
	h.AddForwarder(f)
	s := h.Subscribe()
	defer h.Unsubscribe(s)

	start := time.Now()
	for i := 0; i < 3*ForwardBuffer; i++ {
		h.Publish(Event{Type: QueueChanged, QueueSize: i})
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	select {
	case ev := <-s.C:
		assert.Equal(t, 0, ev.QueueSize)
	default:
		t.Fatal("subscriber starved by stalled forwarder")
	}

	close(f.release)
	h.Close()
	assert.LessOrEqual(t, int(f.calls.Load()), ForwardBuffer+1, "overflow is dropped")
	assert.Positive(t, f.calls.Load())
}

func TestCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	f := &failingForwarder{}
	h.AddForwarder(f)
	h.Close()
	h.Close()

	s := h.Subscribe()
	defer h.Unsubscribe(s)
	h.Publish(Event{Type: ShowEnded})
	assert.Len(t, s.C, 1, "subscribers still served after Close")
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestRedisForwarderPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	fwd, err := DialRedis(ctx, "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer fwd.Close()

	listener := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer listener.Close()
	sub := listener.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	h := NewHub()
	h.AddForwarder(fwd)
	h.Publish(Event{Type: ShowStarted, Show: &ShowRef{ID: "abc", Name: "Wizards"}, QueueSize: 2})

	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, ShowStarted, ev.Type)
		assert.Equal(t, "abc", ev.Show.ID)
		assert.Equal(t, 2, ev.QueueSize)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for redis message")
	}
}

func TestDialRedisFailures(t *testing.T) {
	_, err := DialRedis(context.Background(), "not a url", "")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = DialRedis(ctx, "redis://"+addr, "")
	assert.Error(t, err)
}
