package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cuemby/irrelay/pkg/broadcast"
	"github.com/cuemby/irrelay/pkg/log"
	"github.com/cuemby/irrelay/pkg/metrics"
	"github.com/cuemby/irrelay/pkg/types"
)

// Registry is the part of the hub the server needs
type Registry interface {
	Register(sub *broadcast.Subscriber) error
	Deregister(id uint64) error
}

// Server accepts output clients on a unix socket and streams classified
// events to each of them
type Server struct {
	path      string
	registry  Registry
	queueSize int

	// Ids start at 1 and are never reused within the process
	nextID atomic.Uint64

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool

	clients  sync.WaitGroup
	shutdown sync.Once
	closeErr error

	logger zerolog.Logger
}

// New creates a server for the socket at path
func New(path string, registry Registry) *Server {
	return &Server{
		path:      path,
		registry:  registry,
		queueSize: broadcast.DefaultQueueSize,
		conns:     make(map[net.Conn]struct{}),
		logger:    log.WithComponent("server"),
	}
}

// Listen removes a stale socket left by a previous run and binds the path.
// Removal and bind are not atomic; another process racing on the same path
// can still make the bind fail.
func (s *Server) Listen() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &types.ConnectError{Op: types.OpRemove, Path: s.path, Err: err}
	} else if err == nil {
		s.logger.Info().Str("path", s.path).Msg("removed stale socket")
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return &types.ConnectError{Op: types.OpListen, Path: s.path, Err: err}
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("path", s.path).Msg("waiting for clients")
	return nil
}

// Serve accepts clients until the listener is closed. It returns nil when
// Close was called and the accept error otherwise. Serve never stops the
// rest of the relay.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return fmt.Errorf("server not listening")
	}

	metrics.UpdateComponent(metrics.ComponentServer, true, "")
	defer metrics.UpdateComponent(metrics.ComponentServer, false, "stopped")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info().Msg("accept loop stopped")
				return nil
			}
			s.logger.Error().Err(err).Msg("accept failed")
			return fmt.Errorf("accept: %w", err)
		}

		if !s.track(conn) {
			conn.Close() //nolint:errcheck
			continue
		}

		id := s.nextID.Add(1)
		metrics.ConnectionsTotal.Inc()
		s.clients.Add(1)
		go s.handle(conn, id)
	}
}

func (s *Server) handle(conn net.Conn, id uint64) {
	defer s.clients.Done()
	defer s.untrack(conn)

	logger := log.WithSubscriberID(id)
	sub := broadcast.NewSubscriber(id, s.queueSize)
	if err := s.registry.Register(sub); err != nil {
		logger.Warn().Err(err).Msg("client rejected")
		return
	}
	logger.Info().Msg("client connected")

	// A dropped subscriber may be stuck in Write on a client that stopped
	// reading; closing the connection releases it
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-sub.Gone():
			conn.Close() //nolint:errcheck
		case <-finished:
		}
	}()

	go s.watch(conn, sub, logger)

	for line := range sub.Lines() {
		timer := metrics.NewTimer()
		_, err := io.WriteString(conn, line+"\n")
		timer.ObserveDuration(metrics.ClientWriteDuration)
		if err != nil {
			logger.Warn().Err(err).Msg("can't write to client")
			s.drop(sub, metrics.ReasonWrite)
			break
		}
		logger.Debug().Str("event", line).Msg("wrote")
	}

	logger.Info().Msg("client disconnected")
}

// watch reads from the client until it hangs up. Clients are not expected to
// send anything; input is discarded.
func (s *Server) watch(conn net.Conn, sub *broadcast.Subscriber, logger zerolog.Logger) {
	_, err := io.Copy(io.Discard, conn)
	if errors.Is(err, net.ErrClosed) {
		// Closed by the writer side
		return
	}
	logger.Debug().Err(err).Msg("client hung up")
	s.drop(sub, metrics.ReasonHangup)
}

func (s *Server) drop(sub *broadcast.Subscriber, reason string) {
	if !sub.Leave() {
		return
	}
	metrics.SubscriberDropsTotal.WithLabelValues(reason).Inc()
	if err := s.registry.Deregister(sub.ID); err != nil {
		s.logger.Debug().Err(err).Uint64("subscriber_id", sub.ID).Msg("deregister after hub stop")
	}
}

// Close stops accepting clients, removes the socket file and closes every
// client connection, so writers blocked on a client that stopped reading
// return. Use Wait to join them.
func (s *Server) Close() error {
	s.shutdown.Do(func() {
		var errs []error

		s.mu.Lock()
		ln := s.listener
		s.listener = nil
		s.closed = true
		conns := make([]net.Conn, 0, len(s.conns))
		for conn := range s.conns {
			conns = append(conns, conn)
		}
		s.mu.Unlock()

		if ln != nil {
			// Closing a unix listener unlinks the socket file as well
			if err := ln.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		for _, conn := range conns {
			conn.Close() //nolint:errcheck
		}

		s.logger.Info().Str("path", s.path).Msg("dropped socket file")
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close() //nolint:errcheck
}

// Wait blocks until every client writer has exited
func (s *Server) Wait() {
	s.clients.Wait()
}
