package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuMario0/trading-lab-sub000/pkg/catalog"
	"github.com/ManuMario0/trading-lab-sub000/pkg/config"
	"github.com/ManuMario0/trading-lab-sub000/pkg/controlapi"
	"github.com/ManuMario0/trading-lab-sub000/pkg/eventbus"
	"github.com/ManuMario0/trading-lab-sub000/pkg/health"
	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/metrics"
	"github.com/ManuMario0/trading-lab-sub000/pkg/provider"
	"github.com/ManuMario0/trading-lab-sub000/pkg/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the orchestrator: watch the catalog dir and reconcile the desired plan",
	RunE:  runOrchestrator,
}

func init() {
	runCmd.Flags().String("config", "", "Path to a YAML config file (optional, defaults applied if empty)")
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the Prometheus /metrics endpoint")
	runCmd.Flags().String("control-addr", "127.0.0.1:9091", "Address for the orchestrator control API")
}

func runOrchestrator(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	controlAddr, _ := cmd.Flags().GetString("control-addr")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	l := log.WithComponent("orchestratord")
	l.Info().
		Str("catalog_dir", cfg.CatalogDir).
		Int("base_port", cfg.BasePort).
		Msg("starting orchestrator")

	bus := eventbus.NewWithCapacity(cfg.EventBusCapacity)
	bus.Start()
	defer bus.Stop()

	cat := catalog.New()

	snapshot, err := catalog.OpenSnapshotStore(cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("open catalog snapshot: %w", err)
	}
	defer snapshot.Close()

	if descs, err := snapshot.Load(); err != nil {
		l.Warn().Err(err).Msg("failed to load catalog snapshot, starting empty")
	} else {
		for _, d := range descs {
			cat.Register(d)
		}
		l.Info().Int("count", len(descs)).Msg("seeded catalog from snapshot")
	}

	watcher := catalog.NewWatcherWithQuietPeriod(cfg.CatalogDir, bus, cfg.QuietPeriod)
	watcher.SetOnScanComplete(func() {
		if err := snapshot.Save(cat.List()); err != nil {
			l.Warn().Err(err).Msg("failed to persist catalog snapshot")
		}
	})
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("start catalog watcher: %w", err)
	}
	defer watcher.Stop()

	var prov provider.ServiceProvider
	if cfg.ContainerdSocket != "" {
		cp, err := provider.NewContainerServiceProvider(cfg.ContainerdSocket)
		if err != nil {
			return fmt.Errorf("connect containerd provider: %w", err)
		}
		defer cp.Close()
		prov = cp
		l.Info().Str("socket", cfg.ContainerdSocket).Msg("using containerd service provider")
	} else {
		prov = provider.NewLocalProcessProvider()
		l.Info().Msg("using local process service provider")
	}

	super := supervisor.New(cat, bus, prov, cfg.BasePort)
	super.SetReconcileTick(cfg.ReconcileTick)
	super.Start()
	defer super.Stop()

	metrics.SetVersion(Version)
	metrics.RegisterComponent("catalog_watcher", true, "watching")
	metrics.RegisterComponent("supervisor", true, "running")

	if cfg.ExternalHealthURL != "" {
		healthCtx, stopHealth := context.WithCancel(context.Background())
		defer stopHealth()
		go runExternalHealthCheck(healthCtx, cfg.ExternalHealthURL, cfg.ExternalHealthInterval)
		l.Info().Str("url", cfg.ExternalHealthURL).Dur("interval", cfg.ExternalHealthInterval).Msg("polling external dependency health")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", metrics.HealthHandler())
	mux.HandleFunc("/readyz", metrics.ReadyHandler())
	mux.HandleFunc("/livez", metrics.LivenessHandler())

	metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	defer metricsServer.Close()
	l.Info().Str("addr", metricsAddr).Msg("metrics server listening")

	shutdownCh := make(chan struct{})
	control, err := controlapi.Bind(controlAddr, newControlHandler(super, shutdownCh))
	if err != nil {
		return fmt.Errorf("bind control API: %w", err)
	}
	defer control.Close()
	l.Info().Str("addr", controlAddr).Msg("control API listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		l.Info().Msg("shutdown signal received")
	case <-shutdownCh:
		l.Info().Msg("shutdown requested via control API")
	}

	return nil
}

// runExternalHealthCheck polls an externally-configured dependency URL on
// interval and registers the result as the "external_dependency" component,
// so it surfaces on /readyz alongside catalog_watcher and supervisor.
func runExternalHealthCheck(ctx context.Context, url string, interval time.Duration) {
	checker := health.NewHTTPChecker(url)

	check := func() {
		checkCtx, cancel := context.WithTimeout(ctx, checker.Client.Timeout)
		defer cancel()
		result := checker.Check(checkCtx)
		metrics.RegisterComponent("external_dependency", result.Healthy, result.Message)
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
