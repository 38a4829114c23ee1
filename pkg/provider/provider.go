// Package provider implements the ServiceProvider abstraction: "the
// hands" that actually spawn, stop, and probe services on behalf of the
// supervisor. Two backends are provided: a local-process provider
// (default) and a containerd-backed provider.
package provider

import (
	"context"

	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
)

// HealthKind tags the variant of a HealthStatus.
type HealthKind int

const (
	Running HealthKind = iota
	Stopped
	Failed
)

// HealthStatus is the result of a cheap liveness check.
type HealthStatus struct {
	Kind   HealthKind
	PID    int
	Reason string
}

// ServiceProvider is the pluggable back-end the supervisor drives to
// make the running process set converge to the desired plan.
// Implementations must be thread-safe.
type ServiceProvider interface {
	// Spawn starts config's process. It is idempotent: if config.NodeID
	// is already known running, Spawn succeeds without further action.
	Spawn(ctx context.Context, config layout.ServiceConfig) error

	// Stop is two-phase: if the service has an admin address, an admin
	// Shutdown is attempted first, with a grace window before a forced
	// signal. Stop removes the provider's record of nodeID either way.
	Stop(ctx context.Context, nodeID string) error

	// Probe returns a cheap liveness check for nodeID.
	Probe(ctx context.Context, nodeID string) (HealthStatus, error)

	// List returns the node ids the provider currently tracks as
	// running, for orphan detection.
	List(ctx context.Context) ([]string, error)
}
