package server

import (
	"fmt"
	"strings"
	"time"

	"kvserver/internal/command"
)

// expiresAtFromPX converts a SET command's PX option into the absolute
// deadline Store.Set expects: the zero Time for no expiry. PX 0 is a
// present deadline of "now", not "no expiry" — it must make the key
// immediately absent to GET, per spec.md's boundary case, so this
// checks HasPX rather than whether the millisecond count is positive.
func expiresAtFromPX(cmd command.Command) time.Time {
	if !cmd.HasPX {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(cmd.PXMilli) * time.Millisecond)
}

// renderReplicationInfo builds the INFO replication section spec.md §4.3
// requires: role, replication ID and offset, written for either role.
//
// Grounded in the teacher's INFO handler shape (field: value lines under
// a "# Replication" header); trimmed to only the replication section
// since that's all spec.md's closed command set exercises.
func renderReplicationInfo(id *Identity) []byte {
	var b strings.Builder
	b.WriteString("# Replication\r\n")
	fmt.Fprintf(&b, "role:%s\r\n", id.Role.String())
	fmt.Fprintf(&b, "master_replid:%s\r\n", id.ReplID())
	fmt.Fprintf(&b, "master_repl_offset:%d\r\n", id.Offset())
	return []byte(b.String())
}
