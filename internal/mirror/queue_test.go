package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(10)

	require.NoError(t, q.Enqueue(ctx, "a"))
	require.NoError(t, q.Enqueue(ctx, "b"))
	require.NoError(t, q.Enqueue(ctx, "c"))
	q.Close()

	var got []string
	for key := range q.Items() {
		got = append(got, key)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueueEnqueueBlocksWhenFull(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(1)
	require.NoError(t, q.Enqueue(ctx, "a"))

	done := make(chan struct{})
	go func() {
		_ = q.Enqueue(ctx, "b")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("enqueue should block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, "a", <-q.Items())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue should complete once space frees up")
	}
	assert.Equal(t, "b", <-q.Items())
}

func TestQueueEnqueueCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue(1)
	require.NoError(t, q.Enqueue(ctx, "a"))

	cancel()
	err := q.Enqueue(ctx, "b")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueueCloseEndsConsumers(t *testing.T) {
	q := NewQueue(1)
	q.Close()

	_, ok := <-q.Items()
	assert.False(t, ok, "closed queue should end worker receive loops")
}

func TestQueueDepth(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(5)
	assert.Equal(t, 0, q.Depth())

	require.NoError(t, q.Enqueue(ctx, "a"))
	require.NoError(t, q.Enqueue(ctx, "b"))
	assert.Equal(t, 2, q.Depth())
}
