package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/internal/config"
	"github.com/erismart/tectonic/internal/logger"
	"github.com/erismart/tectonic/internal/metrics"
	"github.com/erismart/tectonic/internal/telemetry"
	"github.com/erismart/tectonic/pkg/controlplane/api"
	cpstore "github.com/erismart/tectonic/pkg/controlplane/store"
	"github.com/erismart/tectonic/pkg/headercache"
	"github.com/erismart/tectonic/pkg/session"
	"github.com/erismart/tectonic/pkg/wire"
)

var servePidFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tick-database server",
	Long: `Run the tectonic TCP server, and (if enabled) its Prometheus
metrics endpoint and control-plane admin API, until interrupted.

Examples:
  tectonic serve
  tectonic serve --config /etc/tectonic/config.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePidFile, "pid-file", "", "Path to PID file (default: none)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	if servePidFile != "" {
		if err := os.WriteFile(servePidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
			return fmt.Errorf("failed to write pid file: %w", err)
		}
		defer func() { _ = os.Remove(servePidFile) }()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "tectonic",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	logger.Info("configuration loaded", "source", configSource(GetConfigFile()))

	cache, err := headercache.Open(filepath.Join(cfg.Store.DtfFolder, ".headercache"))
	if err != nil {
		return fmt.Errorf("failed to open header cache: %w", err)
	}
	defer cache.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	var cpDB *cpstore.Store
	if cfg.ControlPlane.Enabled {
		cpDB, err = cpstore.Open(cpstore.Config{
			Type:     cpstore.DatabaseType(cfg.Database.Type),
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
		})
		if err != nil {
			return fmt.Errorf("failed to open control plane database: %w", err)
		}

		if password, err := cpDB.EnsureAdminUser(); err != nil {
			return fmt.Errorf("failed to ensure admin user: %w", err)
		} else if password != "" {
			logger.Info("admin user created", "username", "admin")
			fmt.Printf("\n*** admin user created with password: %s ***\n", password)
			fmt.Println("Save this password now; it will not be shown again.")
		}
	}

	server := wire.New(wire.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Verbose: cfg.Server.Verbosity,
		Settings: session.Settings{
			Autoflush:     cfg.Store.Autoflush,
			DtfFolder:     cfg.Store.DtfFolder,
			FlushInterval: cfg.Store.FlushInterval,
		},
	}, cache, m)

	errCh := make(chan error, 3)
	go func() { errCh <- server.Serve(ctx) }()

	if cfg.Metrics.Enabled {
		logger.Info("metrics enabled", "listen", cfg.Metrics.Listen)
		go func() { errCh <- metrics.Serve(ctx, cfg.Metrics.Listen) }()
	}

	if cfg.ControlPlane.Enabled {
		logger.Info("control plane enabled", "listen", cfg.ControlPlane.Listen)
		authenticator := api.NewAuthenticator(cpDB.DB, cfg.ControlPlane.JWTSecret, cfg.ControlPlane.TokenTTL)
		router := api.NewRouter(authenticator, cpDB.DB, cfg.Store.DtfFolder)
		go func() { errCh <- serveHTTP(ctx, cfg.ControlPlane.Listen, router) }()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("tectonic is running", "host", cfg.Server.Host, "port", cfg.Server.Port)

	select {
	case <-sigCh:
		signal.Stop(sigCh)
		logger.Info("shutdown signal received")
		cancel()
		return <-errCh
	case err := <-errCh:
		cancel()
		return err
	}
}
