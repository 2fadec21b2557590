// Package server exposes ggass over HTTP and answers LAN discovery probes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/ggass"
	"github.com/gogpu/ggass/config"
)

const shutdownTimeout = 5 * time.Second

// Server is the render service: an HTTP API backed by per-session engines
// plus a UDP discovery responder.
type Server struct {
	cfg      config.Config
	name     string
	log      *slog.Logger
	sessions *sessions
	metrics  *metrics
	registry *prometheus.Registry
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. The default is ggass.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds a server from a validated config.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		name:     cfg.Server.Name,
		log:      ggass.Logger(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("unable to get the host name: %w", err)
		}
		s.name = host
	}

	s.metrics = newMetrics(s.registry)
	s.sessions = newSessions(cfg.Server.MaxSessions, s.metrics)
	s.handler = s.routes()
	return s, nil
}

// Name returns the announced service name.
func (s *Server) Name() string { return s.name }

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("unable to listen on '%s': %w", s.cfg.Server.Addr, err)
	}

	var pc net.PacketConn
	if s.cfg.Server.DiscoveryAddr != "" {
		pc, err = net.ListenPacket("udp4", s.cfg.Server.DiscoveryAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("unable to listen on '%s': %w", s.cfg.Server.DiscoveryAddr, err)
		}
	}

	return s.Serve(ctx, ln, pc)
}

// Serve serves HTTP on ln and discovery on pc (if not nil) until ctx is
// done or either fails. Both are closed on return, as are all sessions.
func (s *Server) Serve(ctx context.Context, ln net.Listener, pc net.PacketConn) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	s.log.Info("ggass: serving HTTP", "addr", ln.Addr().String(), "name", s.name)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	if pc != nil {
		d := &discovery{
			conn: pc,
			port: portOf(ln.Addr()),
			name: s.name,
			log:  s.log,
		}
		s.log.Info("ggass: answering discovery", "addr", pc.LocalAddr().String())
		g.Go(func() error {
			return d.serve(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		var result *multierror.Error
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
		}
		if pc != nil {
			if err := pc.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("discovery close: %w", err))
			}
		}
		return result.ErrorOrNil()
	})

	err := g.Wait()
	s.Close()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// Close destroys every session.
func (s *Server) Close() {
	if n := s.sessions.closeAll(); n > 0 {
		s.log.Debug("ggass: sessions closed", "count", n)
	}
}

func portOf(addr net.Addr) int {
	if a, ok := addr.(*net.TCPAddr); ok {
		return a.Port
	}
	return config.DefaultHTTPPort
}
