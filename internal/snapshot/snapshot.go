// Package snapshot holds the fixed, empty RDB payload the master sends
// immediately after a +FULLRESYNC reply during PSYNC.
//
// There is no persistence in this server (spec.md Non-goals: durability),
// so there is never anything real to snapshot. The teacher's
// internal/rdb package encodes live keyspace state; this repo doesn't
// need that machinery, only the one fixed empty-database payload every
// fresh replica expects to receive, matching what
// mathiusj-redis-go/internal/commands/psync.go and the Rust original's
// master.rs both hardcode.
package snapshot

import "encoding/hex"

// emptyRDBHex is the hex encoding of a minimal, valid, empty RDB file:
// header, aux fields, an empty keyspace, and EOF + checksum.
const emptyRDBHex = "524544495330303131fa0972656469732d76657205372e322e30fa0a72656469732d62697473c040fa056374696d65c26d08bc65fa08757365642d6d656dc2b0c41000fa08616f662d62617365c000fff06e3bfec0ff5aa2"

var emptyRDB []byte

func init() {
	b, err := hex.DecodeString(emptyRDBHex)
	if err != nil {
		// emptyRDBHex is a compile-time constant; a decode failure here
		// means the constant itself was edited incorrectly.
		panic("snapshot: invalid embedded RDB hex: " + err.Error())
	}
	emptyRDB = b
}

// Empty returns the raw bytes of the empty RDB payload. The slice is
// shared and must not be mutated by callers.
func Empty() []byte {
	return emptyRDB
}
