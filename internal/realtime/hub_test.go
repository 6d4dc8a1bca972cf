package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan SessionUpdate) SessionUpdate {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return SessionUpdate{}
	}
}

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := hub.Subscribe(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, SessionUpdate{SessionID: "s1", Status: "running", Progress: 40}))

	u := receive(t, ch)
	assert.Equal(t, "running", u.Status)
	assert.Equal(t, 40, u.Progress)
	assert.False(t, u.At.IsZero(), "publish should stamp the update time")
}

func TestHub_IsolatesSessions(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := hub.Subscribe(ctx, "a")
	require.NoError(t, err)
	b, err := hub.Subscribe(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, SessionUpdate{SessionID: "b", Status: "completed"}))

	assert.Equal(t, "completed", receive(t, b).Status)
	select {
	case u := <-a:
		t.Fatalf("session a received update for b: %+v", u)
	default:
	}
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := hub.Subscribe(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("s1"))

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, 0, hub.Subscribers("s1"))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := hub.Subscribe(ctx, "s1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			_ = hub.Publish(ctx, SessionUpdate{SessionID: "s1", Progress: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := hub.Subscribe(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	_, ok := <-ch
	assert.False(t, ok)

	_, err = hub.Subscribe(ctx, "s1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, hub.Publish(ctx, SessionUpdate{SessionID: "s1"}), ErrClosed)
}

func TestHub_ConcurrentPublish(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, cancelSub := context.WithCancel(ctx)
			ch, err := hub.Subscribe(sub, "shared")
			if err != nil {
				cancelSub()
				return
			}
			_ = hub.Publish(ctx, SessionUpdate{SessionID: "shared"})
			cancelSub()
			for range ch {
			}
		}()
	}
	wg.Wait()
}

func TestSessionUpdate_Terminal(t *testing.T) {
	assert.True(t, SessionUpdate{Status: "completed"}.Terminal())
	assert.True(t, SessionUpdate{Status: "failed"}.Terminal())
	assert.False(t, SessionUpdate{Status: "running"}.Terminal())
	assert.Equal(t, "study_session:abc", Channel("abc"))
}
