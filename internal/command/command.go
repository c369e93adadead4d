// Package command turns a parsed RESP frame's arguments into one of the
// eight verbs this server understands.
//
// The teacher dispatches through a map[string]CommandFunc sized for 80+
// Redis verbs (internal/handler.registerCommands). That registry buys
// nothing here: the command set is fixed and small, so a closed Kind
// enum plus a single Parse function is the more idiomatic shape, the
// way mathiusj-redis-go splits one file per verb under internal/commands
// but without needing a lookup table to find them.
package command

import (
	"bytes"
	"strconv"
	"strings"
)

// Kind identifies which of the eight supported verbs a Command carries.
type Kind int

const (
	// KindErr marks a frame that doesn't parse into a known command:
	// wrong arity, unknown verb, or an empty argument list.
	KindErr Kind = iota
	KindPing
	KindEcho
	KindGet
	KindSet
	KindInfo
	KindReplConf
	KindPSync
	KindWait
)

// Command is a tagged union over the eight verbs. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Command struct {
	Kind Kind

	// ECHO
	Message []byte

	// GET
	Key []byte

	// SET
	Value   []byte
	HasPX   bool
	PXMilli int64

	// REPLCONF
	ReplConfSub  string // "listening-port", "capa", "getack", "ack"
	ReplConfArgs [][]byte

	// PSYNC
	PSyncReplID string
	PSyncOffset string

	// WAIT
	NumReplicas int
	TimeoutMs   int64

	// ErrMessage is set when Kind == KindErr and describes why.
	ErrMessage string
}

// Parse classifies the arguments of one RESP array frame into a Command.
// args must not be mutated after the call; Parse retains slices from it.
func Parse(args [][]byte) Command {
	if len(args) == 0 {
		return Command{Kind: KindErr, ErrMessage: "ERR empty command"}
	}

	verb := strings.ToUpper(string(args[0]))
	rest := args[1:]

	switch verb {
	case "PING":
		return Command{Kind: KindPing}

	case "ECHO":
		if len(rest) < 1 {
			return arityErr("echo")
		}
		return Command{Kind: KindEcho, Message: bytes.Join(rest, []byte(" "))}

	case "GET":
		if len(rest) != 1 {
			return arityErr("get")
		}
		return Command{Kind: KindGet, Key: rest[0]}

	case "SET":
		return parseSet(rest)

	case "INFO":
		return Command{Kind: KindInfo}

	case "REPLCONF":
		return parseReplConf(rest)

	case "PSYNC":
		if len(rest) != 2 {
			return arityErr("psync")
		}
		return Command{Kind: KindPSync, PSyncReplID: string(rest[0]), PSyncOffset: string(rest[1])}

	case "WAIT":
		return parseWait(rest)

	default:
		return Command{Kind: KindErr, ErrMessage: "ERR unknown command '" + verb + "'"}
	}
}

func parseSet(rest [][]byte) Command {
	if len(rest) < 2 {
		return arityErr("set")
	}
	cmd := Command{Kind: KindSet, Key: rest[0], Value: rest[1]}

	i := 2
	for i < len(rest) {
		opt := strings.ToUpper(string(rest[i]))
		switch opt {
		case "PX":
			if i+1 >= len(rest) {
				return Command{Kind: KindErr, ErrMessage: "ERR syntax error"}
			}
			ms, err := strconv.ParseInt(string(rest[i+1]), 10, 64)
			if err != nil || ms < 0 {
				return Command{Kind: KindErr, ErrMessage: "ERR value is not an integer or out of range"}
			}
			cmd.HasPX = true
			cmd.PXMilli = ms
			i += 2
		default:
			return Command{Kind: KindErr, ErrMessage: "ERR syntax error"}
		}
	}
	return cmd
}

func parseReplConf(rest [][]byte) Command {
	if len(rest) == 0 {
		return arityErr("replconf")
	}
	sub := strings.ToLower(string(rest[0]))
	switch sub {
	case "listening-port", "capa", "getack", "ack":
		return Command{Kind: KindReplConf, ReplConfSub: sub, ReplConfArgs: rest[1:]}
	default:
		return Command{Kind: KindErr, ErrMessage: "ERR unknown REPLCONF subcommand"}
	}
}

func parseWait(rest [][]byte) Command {
	if len(rest) != 2 {
		return arityErr("wait")
	}
	numReplicas, err := strconv.Atoi(string(rest[0]))
	if err != nil || numReplicas < 0 {
		return Command{Kind: KindErr, ErrMessage: "ERR value is not an integer or out of range"}
	}
	timeoutMs, err := strconv.ParseInt(string(rest[1]), 10, 64)
	if err != nil || timeoutMs < 0 {
		return Command{Kind: KindErr, ErrMessage: "ERR value is not an integer or out of range"}
	}
	return Command{Kind: KindWait, NumReplicas: numReplicas, TimeoutMs: timeoutMs}
}

func arityErr(verb string) Command {
	return Command{Kind: KindErr, ErrMessage: "ERR wrong number of arguments for '" + verb + "' command"}
}

// IsAck reports whether a REPLCONF ACK carries a numeric offset, used by
// the replica-outbound session to update a peer's acknowledged offset.
func (c Command) IsAck() (offset int64, ok bool) {
	if c.Kind != KindReplConf || c.ReplConfSub != "ack" || len(c.ReplConfArgs) != 1 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(c.ReplConfArgs[0]), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
