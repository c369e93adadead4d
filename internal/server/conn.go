package server

import (
	"bufio"
	"net"

	"github.com/sirupsen/logrus"

	"kvserver/internal/command"
	"kvserver/internal/resp"
)

// clientConn runs a connection in the ordinary "Client" state: read a
// command, dispatch it, write exactly one response, repeat. A PSYNC
// command ends this loop and hands the connection off to a
// replicaOutboundConn, per spec.md §4.4/§9's two-state design modeled
// here as two Go types sharing one net.Conn rather than a flag checked
// in a single loop.
type clientConn struct {
	server *Server
	conn   net.Conn
	br     *bufio.Reader
	log    *logrus.Entry
}

func (c *clientConn) run() {
	defer c.conn.Close()

	for {
		frame, err := resp.ReadFrame(c.br)
		if err != nil {
			if resp.IsProtocolError(err) {
				c.conn.Write(resp.EncodeError(err.Error()))
				continue
			}
			c.log.WithError(err).Debug("connection closed")
			return
		}
		if frame == nil {
			return
		}

		cmd := command.Parse(frame.Args)

		if cmd.Kind == command.KindPSync {
			c.handlePSync(cmd)
			return
		}

		reply, isWrite := c.dispatch(cmd)
		if isWrite {
			c.propagate(frame.Args)
		}

		if reply != nil {
			if _, err := c.conn.Write(reply); err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}
		}
	}
}

// dispatch executes one parsed command against server state and returns
// the encoded reply to write back, plus whether the command is a
// replicated write that must be forwarded to connected replicas and
// counted against the master replication offset.
func (c *clientConn) dispatch(cmd command.Command) (reply []byte, isWrite bool) {
	switch cmd.Kind {
	case command.KindPing:
		return resp.EncodeSimpleString("PONG"), false

	case command.KindEcho:
		return resp.EncodeBulkString(cmd.Message), false

	case command.KindGet:
		v, ok := c.server.Store.Get(cmd.Key)
		if !ok {
			return resp.EncodeNullBulkString(), false
		}
		return resp.EncodeBulkString(v), false

	case command.KindSet:
		c.server.Store.Set(cmd.Key, cmd.Value, expiresAtFromPX(cmd))
		return resp.EncodeSimpleString("OK"), true

	case command.KindInfo:
		return resp.EncodeBulkString(c.renderInfo()), false

	case command.KindReplConf:
		return c.handleReplConf(cmd), false

	case command.KindWait:
		return c.handleWait(cmd), false

	default:
		return resp.EncodeError(cmd.ErrMessage), false
	}
}

func (c *clientConn) handleReplConf(cmd command.Command) []byte {
	switch cmd.ReplConfSub {
	case "listening-port", "capa":
		return resp.EncodeSimpleString("OK")
	default:
		// ACK replies are only meaningful on a replica-outbound
		// connection; a plain client sending one gets a harmless OK.
		return resp.EncodeSimpleString("OK")
	}
}

// propagate forwards args verbatim to every connected replica and
// advances the master replication offset by the encoded frame's length.
func (c *clientConn) propagate(args [][]byte) {
	if c.server.Identity.Role != RoleMaster {
		return
	}
	encoded := resp.EncodeCommandArray(args...)
	c.server.Identity.AddOffset(len(encoded))
	c.server.Registry.Broadcast(encoded)
}

func (c *clientConn) renderInfo() []byte {
	return renderReplicationInfo(c.server.Identity)
}
