// Package config defines the server's startup configuration and parses
// the --replicaof flag value; the cobra/pflag flags that populate it are
// declared in cmd/server.
//
// Grounded in the teacher's internal/server.Config + DefaultConfig, but
// trimmed to the fields spec.md §6 actually lists (port, replica-of),
// dropping AOF/RDB paths, cluster, and sentinel fields. The flag parsing
// itself is upgraded from the teacher's stdlib flag package to cobra +
// pflag, following MIcQo-gridhouse's command-line shape for a server
// binary of this kind. The single-string --replicaof flag (as opposed
// to two positional arguments) follows mathiusj-redis-go/internal/config,
// which takes one "host port" flag value and splits it with
// strings.Fields.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is the fully resolved startup configuration for one server
// process.
type Config struct {
	Port int

	// IsReplica is true when --replicaof was set, making this process a
	// replica of MasterHost:MasterPort instead of a master.
	IsReplica  bool
	MasterHost string
	MasterPort int

	LogLevel string
}

// Default returns the configuration a bare invocation with no flags
// produces: a master listening on 6379.
func Default() Config {
	return Config{
		Port:     6379,
		LogLevel: "info",
	}
}

// ParseReplicaOf splits a "--replicaof" flag value of the form
// "<host> <port>" into its two fields. An empty value means "not a
// replica" and is not an error: it's cobra/pflag's default for a flag
// that wasn't passed.
func ParseReplicaOf(value string) (host string, port int, isReplica bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", 0, false, nil
	}

	fields := strings.Fields(value)
	if len(fields) != 2 {
		return "", 0, false, fmt.Errorf("config: --replicaof must be \"<host> <port>\", got %q", value)
	}

	port, err = strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, false, fmt.Errorf("config: --replicaof port %q: %w", fields[1], err)
	}

	return fields[0], port, true, nil
}
