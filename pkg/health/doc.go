/*
Package health provides health check mechanisms for monitoring service nodes in a
trading mesh.

This package implements two types of health checks: Admin and HTTP. Health
checks enable detection of nodes that are alive at the process level but not
actually serving traffic, so the supervisor can report accurate node status
instead of trusting the provider's process state alone.

# Architecture

The health check system follows a modular checker design:

	┌──────────────────────────────────────────────────────────────┐
	│                     Checker Interface                        │
	│  • Check(ctx) Result                                         │
	│  • Type() CheckType                                          │
	└────────┬─────────────────────────────────────────────────────┘
	         │
	    ┌────┴──────┐
	    ▼           ▼
	┌────────┐  ┌────────┐
	│ Admin  │  │  HTTP  │
	│Checker │  │Checker │
	└────────┘  └────────┘
	     │            │
	     ▼            ▼
	ping/pong over   GET /health
	the admin duplex

# Health Check Types

## Admin Health Checks

Admin checks dial a service node's admin transport socket and exchange a
ping/pong admin command. This is the only check type aware of this module's
own wire protocol, and is what the supervisor uses to distinguish "process
running" from "node actually responsive":

	Check Type: Admin
	Configuration:
	├── Addr: the node's resolved admin manifest.Address
	└── Timeout: 2 seconds (default)

	Flow:
	1. Dial the admin address via transport.DialAdmin
	2. Send an AdminPing command
	3. Wait for an AdminPong response within Timeout
	4. No pong, or the connection fails → Unhealthy

## HTTP Health Checks

HTTP checks perform HTTP requests to verify the health of an externally
reachable dependency — not one of this module's own service nodes, which
always speak the admin protocol, but something outside it the orchestrator
depends on (e.g. an upstream market data feed):

	Check Type: HTTP
	Configuration:
	├── URL: http://dependency-host:8080/health
	├── Method: GET, POST, HEAD
	├── Headers: Custom HTTP headers
	├── Expected Status: 200-399 (configurable)
	└── Timeout: 10 seconds

# Core Components

## Checker Interface

All health checkers implement this interface:

	type Checker interface {
		Check(ctx context.Context) Result
		Type() CheckType
	}

This allows polymorphic health checking — callers don't need to know the
check type, just call Check() and interpret the Result.

## Result Structure

All checks return a standardized Result:

	type Result struct {
		Healthy   bool          // Check passed?
		Message   string        // Human-readable message
		CheckedAt time.Time     // When check ran
		Duration  time.Duration // How long check took
	}

## Status Tracking

Status tracks health over time with hysteresis — multiple consecutive
failures are required before flipping to unhealthy, and a single success
restores health:

	type Status struct {
		ConsecutiveFailures  int
		ConsecutiveSuccesses int
		LastCheck            time.Time
		LastResult           Result
		Healthy              bool
		StartedAt            time.Time
	}

## Configuration

	type Config struct {
		Interval    time.Duration  // Time between checks (default: 30s)
		Timeout     time.Duration  // Max check duration (default: 10s)
		Retries     int            // Failures before unhealthy (default: 3)
		StartPeriod time.Duration  // Grace period for slow startup (default: 0)
	}

# Usage Examples

## Admin Health Check

	checker := health.NewAdminChecker(node.AdminAddress)
	result := checker.Check(ctx)

	if result.Healthy {
		fmt.Printf("node responsive: %s (took %v)\n", result.Message, result.Duration)
	} else {
		fmt.Printf("node not responding: %s\n", result.Message)
	}

## HTTP Health Check

	checker := health.NewHTTPChecker("http://dependency-host:8080/health")
	checker.WithMethod("GET").
		WithStatusRange(200, 299).
		WithTimeout(5 * time.Second)
	result := checker.Check(ctx)

# Integration Points

The supervisor runs an AdminChecker against every node the provider reports
as running, downgrading its reported state to "unhealthy" on a failed ping
rather than trusting process liveness alone — see pkg/supervisor.

orchestratord optionally runs an HTTPChecker on a timer against a configured
external dependency URL, feeding the result into the metrics package's
component registry so it surfaces on /readyz alongside catalog_watcher and
supervisor — see cmd/orchestratord.

# Design Patterns

## Strategy Pattern

Different checkers implement the Checker interface, allowing the caller to
select a check type without branching on it:

	Checker (interface)
	├── AdminChecker
	└── HTTPChecker

## Hysteresis Pattern

Status tracking prevents flapping from transient failures:

	Healthy → 1 failure → Still healthy
	Healthy → 2 failures → Still healthy
	Healthy → 3 failures → Unhealthy!

	Unhealthy → 1 success → Healthy!

## Context-Based Cancellation

All checks respect context deadlines:

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := checker.Check(ctx)

# Best Practices

  - Set Interval = 10-30s, Timeout = 2x expected response time, Retries = 3.
  - Use the Admin checker for this module's own services; reach for the HTTP
    checker only for externally-facing dependencies the orchestrator itself
    relies on.
*/
package health
