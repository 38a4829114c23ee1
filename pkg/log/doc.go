/*
Package log provides structured logging for this module using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("supervisor")               │          │
	│  │  - WithNode("strategy-1")                    │          │
	│  │  - WithService("strategy")                   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "supervisor",               │          │
	│  │    "time": "2024-10-13T10:30:00Z",         │          │
	│  │    "message": "node spawned"                │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2024-10-13T10:30:00Z INF node spawned     │          │
	│  │    component=supervisor                    │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all packages in this module
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add a component name to all logs
  - WithNode: Add a service node id to all logs
  - WithService: Add a service type to all logs

# Usage

Initializing the Logger:

	import "github.com/ManuMario0/trading-lab-sub000/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("orchestrator initialized")
	log.Debug("checking node status")
	log.Warn("reconcile cycle exceeded tick interval")
	log.Error("failed to spawn node")
	log.Fatal("cannot start without a catalog directory") // Exits process

Structured Logging:

	log.WithComponent("supervisor").Info().
		Str("service_id", "strategy-1").
		Msg("node spawned")

	log.WithComponent("supervisor").Error().
		Err(err).
		Str("node_id", "broker-1").
		Msg("admin health check failed")

Component Loggers:

	supervisorLog := log.WithComponent("supervisor")
	supervisorLog.Info().Msg("starting reconcile loop")

	nodeLog := log.WithNode("strategy-1")
	nodeLog.Info().Msg("node spawned")

	svcLog := log.WithService("broker")
	svcLog.Info().Msg("blueprint registered")

# Integration Points

This package is used by:

  - cmd/orchestratord: logs catalog discovery, layout resolution, and
    reconcile decisions
  - pkg/supervisor: logs node spawn/stop/crash transitions
  - internal/servicecli: initializes per-binary loggers from CLI flags
  - every svc-* binary: logs via a component logger named after the service

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"supervisor","time":"2024-10-13T10:30:00Z","message":"node spawned"}
	{"level":"error","component":"supervisor","node_id":"broker-1","time":"2024-10-13T10:30:02Z","message":"admin health check failed"}

Console Format (Development):

	2024-10-13T10:30:00Z INF node spawned component=supervisor
	2024-10-13T10:30:02Z ERR admin health check failed component=supervisor node_id=broker-1

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces

Don't:
  - Log sensitive data (secrets, credentials)
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings into log messages (use .Str, .Int)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
