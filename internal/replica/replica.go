// Package replica tracks the set of connected replicas for broadcast
// fan-out and WAIT accounting.
//
// Grounded in the teacher's internal/replication.ReplicationManager,
// which keeps a map[string]*ReplicaInfo under a sync.RWMutex
// (AddReplica/RemoveReplica/GetReplica/UpdateReplicaOffset). This repo
// reshapes the send path: the teacher's propagateToReplicas writes
// straight to each replica's socket, holding that replica's own mutex,
// from inside the broadcasting goroutine. spec.md requires broadcast
// enqueue to never block on a slow replica and requires socket writes to
// happen only on that peer's own goroutine, so each Peer here owns a
// send queue drained by a dedicated writer instead.
package replica

import (
	"sync"
	"sync/atomic"
)

// Queue is an unbounded FIFO of byte slices. Go has no built-in
// unbounded channel, so this backs one with a slice and a condition
// variable: Push never blocks the caller, and Pop blocks only until
// something is available or the queue is closed.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  [][]byte
	closed bool
}

// NewQueue returns an empty, open Queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends b to the queue. It never blocks and is a no-op once the
// queue is closed.
func (q *Queue) Push(b []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, b)
	q.cond.Signal()
}

// Pop removes and returns the oldest item, blocking until one is
// available. ok is false once the queue is closed and drained.
func (q *Queue) Pop() (item []byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Close marks the queue closed and wakes any blocked Pop. Items already
// queued are still returned by Pop until the queue drains.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Peer is one connected replica: its outbound send queue, the running
// count of bytes written to its socket, and the last offset it
// acknowledged via REPLCONF ACK.
type Peer struct {
	Addr string

	Queue *Queue

	bytesSent atomic.Int64

	mu          sync.Mutex
	ackedOffset int64
}

func newPeer(addr string) *Peer {
	return &Peer{Addr: addr, Queue: NewQueue()}
}

// AddBytesSent advances the peer's sent-byte counter by n, called by
// the connection's drain loop after each successful write (both
// broadcasted writes and this peer's own periodic GETACK pings flow
// through that one write path).
func (p *Peer) AddBytesSent(n int) int64 {
	return p.bytesSent.Add(int64(n))
}

// BytesSent returns the running count of bytes written to this peer's
// socket since it was registered.
func (p *Peer) BytesSent() int64 {
	return p.bytesSent.Load()
}

// SetAcked records the offset carried by a REPLCONF ACK from the peer.
// Only the highest offset seen is kept: an ACK carrying a lower offset
// than one already recorded leaves it unchanged.
func (p *Peer) SetAcked(offset int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if offset > p.ackedOffset {
		p.ackedOffset = offset
	}
}

// Acked returns the highest acknowledged offset.
func (p *Peer) Acked() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ackedOffset
}

// Registry is the set of currently connected replicas, guarded by a
// single RWMutex the way the teacher's ReplicationManager guards its map.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]*Peer)}
}

// Add registers a new replica connection and returns its Peer handle.
func (r *Registry) Add(addr string) *Peer {
	p := newPeer(addr)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[addr] = p
	return p
}

// Remove unregisters a replica and closes its send queue so its writer
// goroutine exits.
func (r *Registry) Remove(addr string) {
	r.mu.Lock()
	p, ok := r.peers[addr]
	delete(r.peers, addr)
	r.mu.Unlock()

	if ok {
		p.Queue.Close()
	}
}

// Broadcast enqueues payload on every connected replica's send queue.
// It takes the read lock only long enough to snapshot the peer list, so
// a slow or blocked peer can never stall the broadcaster or other peers.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.RLock()
	peers := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		peers = append(peers, p)
	}
	r.mu.RUnlock()

	for _, p := range peers {
		p.Queue.Push(payload)
	}
}

// Len returns the number of connected replicas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// CountAcked returns how many connected replicas have acknowledged at
// least offset.
func (r *Registry) CountAcked(offset int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.peers {
		if p.Acked() >= offset {
			n++
		}
	}
	return n
}
