// Package server serves the published certificate lists of a certcache.Group
// over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/internal/logging"
)

type Options struct {
	Addr string
	// EnableLogSampling samples the request log of successful GET requests.
	EnableLogSampling bool
}

type Server struct {
	options         Options
	group           *certcache.Group
	metricsRegistry *prometheus.Registry
	routines        []routine

	// Addr is the address the server is listening on, set by New.
	Addr net.Addr
}

// New creates the server and starts listening on options.Addr. Requests are
// served once Run is called.
func New(options Options, group *certcache.Group, promRegistry *prometheus.Registry) (*Server, error) {
	s := &Server{
		options:         options,
		group:           group,
		metricsRegistry: promRegistry,
	}
	if err := s.listen(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves requests until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for i := range s.routines {
		group.Go(s.routines[i].run)
	}

	logging.L.Info("serving certificate lists", zap.Stringer("addr", s.Addr), zap.Strings("issuers", s.group.Issuers()))

	<-ctx.Done()
	for i := range s.routines {
		s.routines[i].stop()
	}

	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) listen() error {
	router := s.GenerateRoutes()

	httpErrorLog, err := zap.NewStdLogAt(logging.L, zap.WarnLevel)
	if err != nil {
		httpErrorLog = log.Default()
	}

	server := &http.Server{
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		Addr:              s.options.Addr,
		Handler:           router,
		ErrorLog:          httpErrorLog,
	}
	s.Addr, err = s.setupServer(server)
	return err
}

func (s *Server) setupServer(server *http.Server) (net.Addr, error) {
	if server.Addr == "" {
		server.Addr = "127.0.0.1:"
	}
	l, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, err
	}
	logging.Infof("listening on %s", l.Addr().String())

	s.routines = append(s.routines, routine{
		run: func() error {
			if err := server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		stop: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				_ = server.Close()
			}
		},
	})
	return l.Addr(), nil
}

type routine struct {
	run  func() error
	stop func()
}
