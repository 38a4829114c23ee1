package provider

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/metrics"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

// DefaultGrace is the window Stop waits for a graceful admin Shutdown
// before escalating to a forced signal.
const DefaultGrace = 500 * time.Millisecond

// DefaultAdminTimeout bounds how long Stop waits to dial+round-trip the
// admin Shutdown request itself, separate from the grace window spent
// waiting for the process to actually exit.
const DefaultAdminTimeout = 2 * time.Second

type localService struct {
	cmd      *exec.Cmd
	nodeID   string
	adminAPI *manifest.Address
}

// LocalProcessProvider spawns services as child processes of the
// supervisor, using exactly the resolved args/env and inherited stdio.
type LocalProcessProvider struct {
	mu       sync.Mutex
	services map[string]*localService
	grace    time.Duration
}

// NewLocalProcessProvider returns a LocalProcessProvider using the
// default grace window.
func NewLocalProcessProvider() *LocalProcessProvider {
	return &LocalProcessProvider{
		services: make(map[string]*localService),
		grace:    DefaultGrace,
	}
}

// Spawn starts config's binary. Idempotent: a node_id already known
// running succeeds without starting a second process.
func (p *LocalProcessProvider) Spawn(ctx context.Context, config layout.ServiceConfig) error {
	p.mu.Lock()
	if svc, ok := p.services[config.NodeID]; ok && processAlive(svc.cmd) {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	l := log.WithNode(config.NodeID)
	timer := metrics.NewTimer()

	cmd := exec.Command(config.BinaryPath, config.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Env = envSlice(config.Env)

	if err := cmd.Start(); err != nil {
		timer.ObserveDuration(metrics.SpawnDuration)
		metrics.SpawnsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("provider: spawn %q: %w", config.NodeID, err)
	}

	svc := &localService{cmd: cmd, nodeID: config.NodeID, adminAPI: config.AdminAPI}
	p.mu.Lock()
	p.services[config.NodeID] = svc
	p.mu.Unlock()

	go p.monitor(svc)

	timer.ObserveDuration(metrics.SpawnDuration)
	metrics.SpawnsTotal.WithLabelValues("ok").Inc()
	l.Info().Int("pid", cmd.Process.Pid).Str("binary_path", config.BinaryPath).Msg("spawned service")
	return nil
}

// monitor blocks on the process's exit; an unexpected exit is logged and
// counted but otherwise left for the next reconcile to notice via Probe.
func (p *LocalProcessProvider) monitor(svc *localService) {
	err := svc.cmd.Wait()

	p.mu.Lock()
	_, stillTracked := p.services[svc.nodeID]
	p.mu.Unlock()

	if !stillTracked {
		return
	}

	metrics.CrashesTotal.WithLabelValues(svc.nodeID).Inc()
	if err != nil {
		log.WithNode(svc.nodeID).Warn().Err(err).Msg("service exited unexpectedly")
	} else {
		log.WithNode(svc.nodeID).Warn().Msg("service exited unexpectedly with status 0")
	}
}

// Stop implements the two-phase graceful-then-forceful shutdown: an
// admin Shutdown request (if the service has an admin address) followed
// by a grace window, then a forced signal if the process is still alive.
func (p *LocalProcessProvider) Stop(ctx context.Context, nodeID string) error {
	p.mu.Lock()
	svc, ok := p.services[nodeID]
	p.mu.Unlock()
	if !ok {
		return nil
	}

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.StopDuration)
		p.mu.Lock()
		delete(p.services, nodeID)
		p.mu.Unlock()
	}()

	if svc.adminAPI != nil {
		p.requestGracefulShutdown(ctx, *svc.adminAPI)
		if waitForExit(svc.cmd, p.grace) {
			metrics.StopsTotal.WithLabelValues("graceful").Inc()
			return nil
		}
	}

	if !processAlive(svc.cmd) {
		metrics.StopsTotal.WithLabelValues("already_exited").Inc()
		return nil
	}

	if err := svc.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		log.WithNode(nodeID).Warn().Err(err).Msg("failed to send SIGTERM")
	}
	if waitForExit(svc.cmd, p.grace) {
		metrics.StopsTotal.WithLabelValues("sigterm").Inc()
		return nil
	}

	if err := svc.cmd.Process.Kill(); err != nil {
		metrics.StopsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("provider: force kill %q: %w", nodeID, err)
	}
	waitForExit(svc.cmd, p.grace)
	metrics.StopsTotal.WithLabelValues("forced").Inc()
	return nil
}

func (p *LocalProcessProvider) requestGracefulShutdown(ctx context.Context, addr manifest.Address) {
	dialCtx, cancel := context.WithTimeout(ctx, DefaultAdminTimeout)
	defer cancel()

	duplex, err := transport.DialAdmin(addr, DefaultAdminTimeout)
	if err != nil {
		log.WithComponent("provider").Warn().Err(err).Msg("admin dial failed during stop")
		return
	}
	defer duplex.Close()

	payload := transport.AdminPayload{
		Kind:    transport.PayloadCommand,
		Command: &transport.AdminCommand{Kind: transport.AdminShutdown},
	}
	if err := duplex.SendPayload(payload); err != nil {
		return
	}
	_, _ = duplex.RecvPayload(dialCtx)
}

// Probe returns a cheap liveness check: whether the tracked process
// handle is still alive.
func (p *LocalProcessProvider) Probe(ctx context.Context, nodeID string) (HealthStatus, error) {
	p.mu.Lock()
	svc, ok := p.services[nodeID]
	p.mu.Unlock()

	if !ok {
		return HealthStatus{Kind: Stopped}, nil
	}
	if !processAlive(svc.cmd) {
		return HealthStatus{Kind: Failed, Reason: "process exited"}, nil
	}
	return HealthStatus{Kind: Running, PID: svc.cmd.Process.Pid}, nil
}

// List returns every node id the provider currently tracks as running.
func (p *LocalProcessProvider) List(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.services))
	for id, svc := range p.services {
		if processAlive(svc.cmd) {
			out = append(out, id)
		}
	}
	return out, nil
}

func processAlive(cmd *exec.Cmd) bool {
	if cmd == nil || cmd.Process == nil {
		return false
	}
	// Signal 0 performs no action but still reports ESRCH if the
	// process is gone.
	return cmd.Process.Signal(syscall.Signal(0)) == nil
}

func waitForExit(cmd *exec.Cmd, timeout time.Duration) bool {
	deadline := time.After(timeout)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-deadline:
			return !processAlive(cmd)
		case <-tick.C:
			if !processAlive(cmd) {
				return true
			}
		}
	}
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
