package server

import (
	"fmt"

	"kvserver/internal/command"
	"kvserver/internal/resp"
	"kvserver/internal/snapshot"
)

// handlePSync answers a PSYNC request with +FULLRESYNC, the baked-in
// empty RDB snapshot, registers the connection as a replica, and then
// runs it as a replicaOutboundConn until it disconnects. spec.md's PSYNC
// is always a full resync (no partial-resync/+CONTINUE path), matching
// mathiusj-redis-go/internal/commands/psync.go and the Rust original's
// master.rs, neither of which implement partial resync either.
func (c *clientConn) handlePSync(cmd command.Command) {
	id := c.server.Identity

	fullresync := resp.EncodeSimpleString(fmt.Sprintf("FULLRESYNC %s %d", id.ReplID(), id.Offset()))
	if _, err := c.conn.Write(fullresync); err != nil {
		c.log.WithError(err).Debug("fullresync write failed")
		return
	}
	if _, err := c.conn.Write(resp.EncodeRawBlob(snapshot.Empty())); err != nil {
		c.log.WithError(err).Debug("snapshot write failed")
		return
	}

	addr := c.conn.RemoteAddr().String()
	peer := c.server.Registry.Add(addr)
	defer c.server.Registry.Remove(addr)

	c.log.WithField("replica", addr).Info("replica attached")

	out := &replicaOutboundConn{
		server: c.server,
		conn:   c.conn,
		br:     c.br,
		peer:   peer,
		log:    c.log.WithField("replica", addr),
	}
	out.run()
}
