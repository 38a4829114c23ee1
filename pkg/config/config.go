// Package config loads the orchestrator's configuration from a YAML file
// with TRADEMESH_-prefixed environment variable overrides: a plain
// struct decode rather than a config framework, matching the rest of
// this module's dependency footprint.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuMario0/trading-lab-sub000/pkg/catalog"
	"github.com/ManuMario0/trading-lab-sub000/pkg/eventbus"
	"github.com/ManuMario0/trading-lab-sub000/pkg/supervisor"
)

// Config is the orchestrator's top-level, file-backed configuration.
type Config struct {
	// CatalogDir is the directory the Watcher scans for service binaries.
	CatalogDir string `yaml:"catalog_dir"`

	// BasePort seeds the layout engine's address allocator.
	BasePort int `yaml:"base_port"`

	// QuietPeriod is the debounce window the Watcher waits after a
	// filesystem event before attempting discovery.
	QuietPeriod time.Duration `yaml:"quiet_period"`

	// ReconcileTick is the supervisor's periodic reconcile interval.
	ReconcileTick time.Duration `yaml:"reconcile_tick"`

	// EventBusCapacity bounds the event bus's internal channel.
	EventBusCapacity int `yaml:"event_bus_capacity"`

	// ContainerdSocket, if non-empty, selects the containerd-backed
	// ServiceProvider instead of the default local-process one.
	ContainerdSocket string `yaml:"containerd_socket"`

	// AdminListenHost is loaded from the config file and the environment,
	// but the layout engine does not read it: every admin and transport
	// address it allocates is on 127.0.0.1.
	AdminListenHost string `yaml:"admin_listen_host"`

	// ExternalHealthURL, if non-empty, is polled on ExternalHealthInterval
	// and surfaced as the "external_dependency" component on /readyz. It
	// names an HTTP endpoint outside this module's own admin protocol,
	// e.g. an upstream market data feed's health endpoint.
	ExternalHealthURL string `yaml:"external_health_url"`

	// ExternalHealthInterval is the poll period for ExternalHealthURL.
	ExternalHealthInterval time.Duration `yaml:"external_health_interval"`

	// SnapshotPath is the bbolt file the orchestrator persists its last
	// discovered descriptor set to, so a restart can seed the catalog
	// before the watcher's first scan completes.
	SnapshotPath string `yaml:"snapshot_path"`
}

// Default returns a Config with the orchestrator's conventional defaults.
func Default() Config {
	return Config{
		CatalogDir:             "/var/lib/trademesh/services",
		BasePort:               15000,
		QuietPeriod:            catalog.QuietPeriod,
		ReconcileTick:          supervisor.DefaultReconcileTick,
		EventBusCapacity:       eventbus.DefaultCapacity,
		AdminListenHost:        "127.0.0.1",
		ExternalHealthInterval: 15 * time.Second,
		SnapshotPath:           "/var/lib/trademesh/catalog-snapshot.db",
	}
}

// Load reads path (if non-empty) over the defaults, then applies any
// TRADEMESH_-prefixed environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADEMESH_CATALOG_DIR"); v != "" {
		cfg.CatalogDir = v
	}
	if v := os.Getenv("TRADEMESH_BASE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BasePort = n
		}
	}
	if v := os.Getenv("TRADEMESH_QUIET_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.QuietPeriod = d
		}
	}
	if v := os.Getenv("TRADEMESH_RECONCILE_TICK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReconcileTick = d
		}
	}
	if v := os.Getenv("TRADEMESH_EVENT_BUS_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EventBusCapacity = n
		}
	}
	if v := os.Getenv("TRADEMESH_CONTAINERD_SOCKET"); v != "" {
		cfg.ContainerdSocket = v
	}
	if v := os.Getenv("TRADEMESH_ADMIN_LISTEN_HOST"); v != "" {
		cfg.AdminListenHost = v
	}
	if v := os.Getenv("TRADEMESH_EXTERNAL_HEALTH_URL"); v != "" {
		cfg.ExternalHealthURL = v
	}
	if v := os.Getenv("TRADEMESH_EXTERNAL_HEALTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ExternalHealthInterval = d
		}
	}
	if v := os.Getenv("TRADEMESH_SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
}
