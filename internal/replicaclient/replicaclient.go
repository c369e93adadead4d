// Package replicaclient implements the replica side of replication: the
// handshake that attaches to a master, and the loop that applies the
// resulting command stream to the local keyspace.
//
// Grounded in the teacher's internal/replication.ReplicationManager
// handshake (performHandshake, sendToMaster, readFromMaster) and
// receiveReplicationStream, but linearized into a single synchronous
// sequence rather than the teacher's goroutine-dispatched
// "go rm.performHandshake()": spec.md §4.5 describes the handshake as a
// fixed five-step sequence the replica must complete before it can be
// said to be attached, which reads more naturally as a function that
// returns once than as a background goroutine reporting state through
// shared fields.
package replicaclient

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"kvserver/internal/command"
	"kvserver/internal/resp"
	"kvserver/internal/server"
	"kvserver/internal/store"
)

// Client attaches to a master as a replica and keeps a local keyspace
// in sync with the master's write stream.
type Client struct {
	MasterHost string
	MasterPort int
	ListenPort int // this replica's own listening port, announced during the handshake

	Store    *store.Store
	Identity *server.Identity
	Log      *logrus.Logger
}

// Run performs the handshake and then applies the master's replication
// stream until the connection drops. It returns an error on any
// handshake or transport failure. Run does not reconnect; cmd/server
// calls it once and logs the error it returns.
func (c *Client) Run() error {
	addr := net.JoinHostPort(c.MasterHost, strconv.Itoa(c.MasterPort))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("replicaclient: dial master %s: %w", addr, err)
	}
	defer conn.Close()

	br := bufio.NewReader(conn)

	replID, replOffset, err := c.handshake(conn, br)
	if err != nil {
		return fmt.Errorf("replicaclient: handshake with %s: %w", addr, err)
	}
	c.Log.WithFields(logrus.Fields{"master": addr, "replid": replID, "offset": replOffset}).
		Info("replica attached to master")

	return c.applyLoop(conn, br)
}

// handshake runs the five fixed steps spec.md §4.5 describes: PING,
// REPLCONF listening-port, REPLCONF capa psync2, PSYNC ? -1, then
// discard the inline RDB payload that follows +FULLRESYNC. It returns
// the master's replication ID and starting offset from that reply.
func (c *Client) handshake(conn net.Conn, br *bufio.Reader) (replID string, replOffset int64, err error) {
	if err := c.sendAndExpect(conn, br, "PING"); err != nil {
		return "", 0, fmt.Errorf("ping: %w", err)
	}

	if err := c.sendAndExpect(conn, br, "REPLCONF", "listening-port", strconv.Itoa(c.ListenPort)); err != nil {
		return "", 0, fmt.Errorf("replconf listening-port: %w", err)
	}

	if err := c.sendAndExpect(conn, br, "REPLCONF", "capa", "psync2"); err != nil {
		return "", 0, fmt.Errorf("replconf capa: %w", err)
	}

	if _, err := conn.Write(resp.EncodeCommandArray([]byte("PSYNC"), []byte("?"), []byte("-1"))); err != nil {
		return "", 0, fmt.Errorf("psync: %w", err)
	}
	line, err := resp.ReadLine(br)
	if err != nil {
		return "", 0, fmt.Errorf("psync reply: %w", err)
	}
	replID, replOffset, err = parseFullResync(string(line))
	if err != nil {
		return "", 0, err
	}

	if err := discardRDBPayload(br); err != nil {
		return "", 0, fmt.Errorf("rdb payload: %w", err)
	}

	return replID, replOffset, nil
}

// sendAndExpect sends a command and requires the reply to be a RESP
// simple string (any "+..." line counts; the exact text varies by
// server implementation, e.g. some reply "+PONG" and others "+OK" to
// PING, so this only rules out an error reply).
func (c *Client) sendAndExpect(conn net.Conn, br *bufio.Reader, args ...string) error {
	byteArgs := make([][]byte, len(args))
	for i, a := range args {
		byteArgs[i] = []byte(a)
	}
	if _, err := conn.Write(resp.EncodeCommandArray(byteArgs...)); err != nil {
		return err
	}
	line, err := resp.ReadLine(br)
	if err != nil {
		return err
	}
	if len(line) == 0 || line[0] != '+' {
		return fmt.Errorf("unexpected reply %q", line)
	}
	return nil
}

func parseFullResync(line string) (replID string, offset int64, err error) {
	var n int
	_, err = fmt.Sscanf(line, "+FULLRESYNC %s %d", &replID, &n)
	if err != nil {
		return "", 0, fmt.Errorf("malformed FULLRESYNC reply %q: %w", line, err)
	}
	return replID, int64(n), nil
}

// discardRDBPayload consumes the "$<len>\r\n<raw bytes>" snapshot
// framing that follows +FULLRESYNC. There is nothing to load from it
// (spec.md carries no persistence), so the bytes are read and dropped.
func discardRDBPayload(br *bufio.Reader) error {
	header, err := resp.ReadLine(br)
	if err != nil {
		return err
	}
	if len(header) == 0 || header[0] != '$' {
		return fmt.Errorf("expected RDB length header, got %q", header)
	}
	length, err := strconv.Atoi(string(header[1:]))
	if err != nil {
		return fmt.Errorf("invalid RDB length: %w", err)
	}
	buf := make([]byte, length)
	_, err = io.ReadFull(br, buf)
	return err
}

// applyLoop reads the master's replication stream one frame at a time
// and applies writes to the local store. It tracks processed_bytes:
// the count of octets consumed from the stream, used to answer
// REPLCONF GETACK.
//
// A GETACK's own frame length is excluded from the ACK value it
// triggers but included in the running total immediately afterward, so
// the next command's accounting (and the next GETACK's reply) is
// correct. original_source/replica.rs always replies ACK 0 and never
// does this accounting; spec.md §4.5 Scenario 7 requires the real byte
// count, so this is implemented against spec.md rather than the
// original.
func (c *Client) applyLoop(conn net.Conn, br *bufio.Reader) error {
	var processed int64

	for {
		frame, err := resp.ReadFrame(br)
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

		if cmd.Kind == command.KindReplConf && cmd.ReplConfSub == "getack" {
			ack := resp.EncodeCommandArray([]byte("REPLCONF"), []byte("ACK"), []byte(strconv.FormatInt(processed, 10)))
			if _, err := conn.Write(ack); err != nil {
				return err
			}
			processed += int64(frame.Consumed)
			c.Identity.AddOffset(frame.Consumed)
			continue
		}

		c.apply(cmd)
		processed += int64(frame.Consumed)
		c.Identity.AddOffset(frame.Consumed)
	}
}

func (c *Client) apply(cmd command.Command) {
	switch cmd.Kind {
	case command.KindSet:
		// PX 0 is a present deadline of "now", not "no expiry": it must
		// make the key immediately absent to GET, so this checks HasPX
		// rather than whether the millisecond count is positive.
		var expiresAt time.Time
		if cmd.HasPX {
			expiresAt = time.Now().Add(time.Duration(cmd.PXMilli) * time.Millisecond)
		}
		c.Store.Set(cmd.Key, cmd.Value, expiresAt)
	default:
		// PING and other non-mutating commands a master may forward as
		// keepalives don't change replica state.
	}
}
