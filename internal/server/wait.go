package server

import (
	"time"

	"kvserver/internal/command"
	"kvserver/internal/resp"
)

const waitPollInterval = 20 * time.Millisecond

// handleWait implements WAIT numreplicas timeout.
//
// The offset WAIT compares replicas against is the master replication
// offset at the moment WAIT was called, not whatever it grows to while
// WAIT is polling (spec.md's own Open Question #1, resolved here for
// determinism: a write arriving during the wait must not raise the bar
// a caller is blocked on).
func (c *clientConn) handleWait(cmd command.Command) []byte {
	id := c.server.Identity
	reg := c.server.Registry

	targetOffset := id.Offset()

	if targetOffset == 0 {
		// Nothing has been written yet: every connected replica is
		// trivially caught up, no GETACK round trip needed.
		return resp.EncodeInteger(int64(reg.Len()))
	}

	if n := reg.CountAcked(targetOffset); n >= cmd.NumReplicas {
		return resp.EncodeInteger(int64(n))
	}

	getack := resp.EncodeCommandArray([]byte("REPLCONF"), []byte("GETACK"), []byte("*"))
	id.AddOffset(len(getack))
	reg.Broadcast(getack)

	var deadline time.Time
	if cmd.TimeoutMs > 0 {
		deadline = time.Now().Add(time.Duration(cmd.TimeoutMs) * time.Millisecond)
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		n := reg.CountAcked(targetOffset)
		if n >= cmd.NumReplicas {
			return resp.EncodeInteger(int64(n))
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return resp.EncodeInteger(int64(n))
		}
	}

	return resp.EncodeInteger(0)
}
