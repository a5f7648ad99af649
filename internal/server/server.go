// Package server is the read-only scene inspector: an HTTP endpoint serving
// scene snapshots and a websocket pushing them at a fixed interval.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/glengine/internal/core/events/bus"
	"github.com/zeusync/glengine/internal/core/observability/log"
)

type Config struct {
	Addr string
	// Interval between websocket pushes.
	Interval   time.Duration
	MaxClients int
	// Token, when set, must accompany every request except /healthz.
	Token        string
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:7070",
		Interval:     250 * time.Millisecond,
		MaxClients:   16,
		WriteTimeout: 5 * time.Second,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty address", ErrInvalidConfig)
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	case c.MaxClients < 1:
		return fmt.Errorf("%w: max clients must be at least 1", ErrInvalidConfig)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("%w: write timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Server serves snapshots of one engine.
type Server struct {
	config  Config
	logger  log.Log
	source  Source
	physics *physicsTracker

	httpServer *http.Server
	listener   net.Listener
	clients    sync.Map // *websocket.Conn -> *client
	clientN    atomic.Int64

	running atomic.Bool
	closed  atomic.Bool
	stop    chan struct{}
	workers sync.WaitGroup
}

// New validates config. eventBus may be nil, in which case snapshots carry
// no physics section.
func New(logger log.Log, source Source, eventBus bus.EventBus, config Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	tracker, err := trackPhysics(eventBus)
	if err != nil {
		return nil, err
	}
	s := &Server{
		config:  config,
		logger:  log.OrNop(logger).With(log.String("component", "inspector")),
		source:  source,
		physics: tracker,
		stop:    make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler exposes the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /snapshot", s.authenticate(http.HandlerFunc(s.handleSnapshot)))
	mux.Handle("GET /ws", s.authenticate(http.HandlerFunc(s.handleWebSocket)))
	return mux
}

// Snapshot takes a snapshot now.
func (s *Server) Snapshot() Snapshot {
	return Take(s.source, s.physics.last.Load())
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Clients() int { return int(s.clientN.Load()) }

func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to listen", log.String("addr", s.config.Addr), log.Error(err))
		return err
	}
	s.listener = listener
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Inspector stopped serving", log.Error(err))
		}
	}()
	s.logger.Info("Inspector listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Stop closes every websocket and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	close(s.stop)
	s.clients.Range(func(_, value any) bool {
		value.(*client).close()
		return true
	})
	err := s.httpServer.Shutdown(ctx)
	s.workers.Wait()
	s.logger.Info("Inspector stopped")
	return err
}

// Close stops the server if running and releases the bus subscription.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if s.running.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
		defer cancel()
		err = s.Stop(ctx)
	}
	s.physics.stop()
	return err
}
