// Command server runs one node of the key-value store: a master by
// default, or a replica when --replicaof is given.
//
// Grounded in the teacher's cmd/server/main.go (flag parsing + signal
// handling shape), rewired onto cobra/pflag per SPEC_FULL.md's CLI
// stack section and trimmed to the flags spec.md §6 lists.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"kvserver/internal/config"
	"kvserver/internal/logging"
	"kvserver/internal/replica"
	"kvserver/internal/replicaclient"
	"kvserver/internal/server"
	"kvserver/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	var replicaOf string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "A single-node, replicated key-value server",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, isReplica, err := config.ParseReplicaOf(replicaOf)
			if err != nil {
				return err
			}
			cfg.IsReplica = isReplica
			cfg.MasterHost = host
			cfg.MasterPort = port
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "TCP port to listen on")
	flags.StringVar(&replicaOf, "replicaof", "", `run as a replica of "<host> <port>"`)
	flags.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "logrus level: debug, info, warn, error")

	return cmd
}

func run(cfg config.Config) error {
	log := logging.New(cfg.LogLevel)

	id := &server.Identity{ListenPort: cfg.Port}
	if cfg.IsReplica {
		id.Role = server.RoleReplica
		id.MasterHost = cfg.MasterHost
		id.MasterPort = cfg.MasterPort
	} else {
		id.Role = server.RoleMaster
	}

	st := store.New()
	reg := replica.NewRegistry()
	srv := server.New(id, st, reg, log)

	if cfg.IsReplica {
		rc := &replicaclient.Client{
			MasterHost: cfg.MasterHost,
			MasterPort: cfg.MasterPort,
			ListenPort: cfg.Port,
			Store:      st,
			Identity:   id,
			Log:        log,
		}
		go func() {
			if err := rc.Run(); err != nil {
				log.WithError(err).Error("replication from master ended")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Port)))
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
		return nil
	}
}
