package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/internal"
	"github.com/infrahq/trustlist/internal/crashreport"
	"github.com/infrahq/trustlist/internal/logging"
	"github.com/infrahq/trustlist/internal/server"
	"github.com/infrahq/trustlist/internal/timer"
	"github.com/infrahq/trustlist/metrics"
)

func newServeCmd(_ *CLI, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the certificate lists, refresh them daily, and serve them over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			if err := logging.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
				return err
			}
			if err := crashreport.Init(cfg.SentryDSN, internal.FullVersion()); err != nil {
				logging.L.Warn("crash reporting is disabled", zap.Error(err))
			}
			defer crashreport.Flush()

			st, err := cfg.NewStorage()
			if err != nil {
				return fmt.Errorf("creating storage: %w", err)
			}

			group, err := cfg.NewGroup(st)
			if err != nil {
				return err
			}

			// issuers that fail to load are served empty and retried on schedule
			if err := group.Initialize(cmd.Context()); err != nil {
				logging.L.Warn("some certificate lists could not be loaded", zap.Error(err))
			}
			defer shutdownGroup(group)

			promRegistry := prometheus.NewRegistry()
			metrics.Register(promRegistry)

			srv, err := server.New(server.Options{Addr: cfg.Addr, EnableLogSampling: true}, group, promRegistry)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			return runServer(cmd.Context(), srv)
		},
	}

	cmd.Flags().String("addr", ":8080", "Address to serve the HTTP API on")
	cmd.Flags().String("data-dir", "data", "Directory of the certificate snapshots for file storage")
	cmd.Flags().String("storage-kind", "file", "Snapshot storage [file, memory, kubernetes, vault, awssecretsmanager, s3]")
	cmd.Flags().String("parse-policy", "lenient", "What to do with records that cannot be parsed [lenient, strict]")
	cmd.Flags().Var(&timer.TimeOfDay{Hour: 1}, "refresh-at", "Local time of the daily refresh (HH:MM)")
	cmd.Flags().String("log-file", "", "Write logs to this file instead of the terminal")
	cmd.Flags().String("sentry-dsn", "", "Report errors to this Sentry DSN")

	return cmd
}

func shutdownGroup(group *certcache.Group) {
	defer timer.LogTimeElapsed(time.Now(), "stopped certificate refreshes")

	group.Shutdown()
	for _, issuer := range group.Issuers() {
		if e, err := group.Get(issuer); err == nil {
			<-e.Done()
		}
	}
}

// shim for testing
var runServer = func(ctx context.Context, srv *server.Server) error {
	return srv.Run(ctx)
}
