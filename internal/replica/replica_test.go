package replica

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePushPop(t *testing.T) {
	q := NewQueue()
	q.Push([]byte("a"))
	q.Push([]byte("b"))

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte("a"), v)

	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte("b"), v)
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	done := make(chan []byte, 1)
	go func() {
		v, ok := q.Pop()
		if ok {
			done <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push([]byte("hello"))

	select {
	case v := <-done:
		assert.Equal(t, []byte("hello"), v)
	case <-time.After(time.Second):
		t.Fatal("Pop never returned after Push")
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := NewQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop never unblocked after Close")
	}
}

func TestQueuePushAfterCloseIsNoop(t *testing.T) {
	q := NewQueue()
	q.Close()
	q.Push([]byte("dropped"))

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestRegistryBroadcastReachesAllPeers(t *testing.T) {
	r := NewRegistry()
	p1 := r.Add("127.0.0.1:1")
	p2 := r.Add("127.0.0.1:2")

	r.Broadcast([]byte("payload"))

	assert.Equal(t, 2, r.Len())
	for _, p := range []*Peer{p1, p2} {
		v, ok := p.Queue.Pop()
		require.True(t, ok)
		assert.Equal(t, []byte("payload"), v)
	}
}

func TestRegistryRemoveClosesQueue(t *testing.T) {
	r := NewRegistry()
	p := r.Add("127.0.0.1:1")
	r.Remove("127.0.0.1:1")

	_, ok := p.Queue.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCountAcked(t *testing.T) {
	r := NewRegistry()
	p1 := r.Add("127.0.0.1:1")
	p2 := r.Add("127.0.0.1:2")

	p1.SetAcked(100)
	p2.SetAcked(50)

	assert.Equal(t, 1, r.CountAcked(100))
	assert.Equal(t, 2, r.CountAcked(50))
	assert.Equal(t, 0, r.CountAcked(200))
}
