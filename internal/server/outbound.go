package server

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"kvserver/internal/command"
	"kvserver/internal/replica"
	"kvserver/internal/resp"
)

// ackPollInterval is how often a ReplicaOutbound session pings its
// replica with REPLCONF GETACK * to refresh its acked_offset, within
// spec.md §6's documented 100-500ms range.
const ackPollInterval = 200 * time.Millisecond

var getAckPayload = resp.EncodeCommandArray([]byte("REPLCONF"), []byte("GETACK"), []byte("*"))

// replicaOutboundConn is the second connection state spec.md §4.4/§9
// calls for: once a connection has completed PSYNC, it stops behaving
// like an ordinary client and instead runs three independent loops
// against the same socket — draining the peer's send queue to the
// replica, reading REPLCONF ACK replies off of it, and periodically
// enqueuing a GETACK ping — until any one of them fails.
//
// The teacher has no equivalent: it writes to a replica's socket
// directly from inside ReplicationManager.propagateToReplicas under a
// per-replica mutex, with no separate read-side goroutine tracking ACKs
// and no ack-polling timer (it never implements WAIT). errgroup.Group
// ties the loops' lifetimes together so any one's exit shuts down the
// others, instead of leaking a goroutine blocked on a Pop, a Read, or a
// ticker forever.
type replicaOutboundConn struct {
	server *Server
	conn   net.Conn
	br     *bufio.Reader
	peer   *replica.Peer
	log    *logrus.Entry
}

func (o *replicaOutboundConn) run() {
	var g errgroup.Group
	var once sync.Once
	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			close(done)
			o.conn.Close()
			o.peer.Queue.Close()
		})
	}

	g.Go(func() error {
		defer stop()
		return o.drainLoop()
	})
	g.Go(func() error {
		defer stop()
		return o.ackLoop()
	})
	g.Go(func() error {
		o.ackPollLoop(done)
		return nil
	})

	if err := g.Wait(); err != nil {
		o.log.WithError(err).Debug("replica session ended")
	}
}

// drainLoop writes every payload enqueued for this peer to its socket,
// in enqueue order, until the queue is closed. Every write — whether a
// broadcasted command or this peer's own periodic GETACK ping — passes
// through here, so bytes_sent is tracked in exactly one place.
func (o *replicaOutboundConn) drainLoop() error {
	for {
		item, ok := o.peer.Queue.Pop()
		if !ok {
			return nil
		}
		if _, err := o.conn.Write(item); err != nil {
			return err
		}
		o.peer.AddBytesSent(len(item))
	}
}

// ackLoop reads frames the replica sends back (REPLCONF ACK <offset>)
// and records the offset on the peer, for WAIT to consult.
func (o *replicaOutboundConn) ackLoop() error {
	for {
		frame, err := resp.ReadFrame(o.br)
		if err != nil {
			if resp.IsProtocolError(err) {
				continue
			}
			return err
		}
		if frame == nil {
			return nil
		}

		cmd := command.Parse(frame.Args)
		if offset, ok := cmd.IsAck(); ok {
			o.peer.SetAcked(offset)
		}
	}
}

// ackPollLoop enqueues a REPLCONF GETACK * ping on this peer's send
// queue every ackPollInterval, so acked_offset keeps advancing even
// when no client write is driving a WAIT-triggered GETACK. The ping is
// pushed onto the same queue drainLoop already owns rather than written
// directly to the socket, preserving the rule that only one goroutine
// ever writes to a replica's connection.
func (o *replicaOutboundConn) ackPollLoop(done <-chan struct{}) {
	ticker := time.NewTicker(ackPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			o.peer.Queue.Push(getAckPayload)
		}
	}
}
