package server

import (
	"bufio"
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kvserver/internal/replica"
	"kvserver/internal/store"
)

// Server owns the listener and the state shared by every connection:
// the keyspace, the replica registry, and this process's identity.
//
// Grounded in the teacher's internal/server.RedisServer, trimmed to the
// subsystems spec.md names (no AOF writer, no RDB ticker, no cluster
// init).
type Server struct {
	Identity *Identity
	Store    *store.Store
	Registry *replica.Registry
	Log      *logrus.Logger
}

// New builds a Server around the given identity, keyspace, and replica
// registry.
func New(id *Identity, st *store.Store, reg *replica.Registry, log *logrus.Logger) *Server {
	return &Server{Identity: id, Store: st, Registry: reg, Log: log}
}

// ListenAndServe binds addr and accepts connections until the listener
// is closed or accept fails.
//
// spec.md §6 requires binding 127.0.0.1 specifically, confirmed against
// original_source/main.rs's TcpListener::bind("127.0.0.1:6379") rather
// than the teacher's configurable (0.0.0.0-default) Host field.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	s.Log.WithField("addr", addr).Info("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConnection(conn)
	}
}

// handleConnection runs one accepted connection's Client-state loop
// until it exits or is promoted to a replica-outbound session.
//
// Grounded in the teacher's handler.CommandHandler.HandleLegacy, which
// reads one frame, dispatches, writes the response, and repeats — this
// repo follows that single-frame shape rather than the teacher's
// pipeline-batching HandlePipeline, since spec.md's ordering invariants
// are stated per frame.
func (s *Server) handleConnection(conn net.Conn) {
	id := uuid.New().String()
	log := s.Log.WithFields(logrus.Fields{"conn": id, "remote": conn.RemoteAddr().String()})
	log.Info("connection accepted")

	c := &clientConn{
		server: s,
		conn:   conn,
		br:     bufio.NewReader(conn),
		log:    log,
	}
	c.run()
}
