package provider

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"

	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/metrics"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

// DefaultContainerNamespace is the containerd namespace the provider
// operates in, kept separate from any other tenant of the same containerd
// instance.
const DefaultContainerNamespace = "trademesh"

// DefaultContainerSocket is the default containerd socket path.
const DefaultContainerSocket = "/run/containerd/containerd.sock"

type containerService struct {
	id       string
	nodeID   string
	adminAPI *manifest.Address
}

// ContainerServiceProvider is a ServiceProvider backend that runs each
// node as a containerd task rather than a bare child process. config's
// BinaryPath is interpreted as an OCI image reference; config.Args
// becomes the container's command, and config.Env its environment.
type ContainerServiceProvider struct {
	client    *containerd.Client
	namespace string

	mu       sync.Mutex
	services map[string]*containerService
	grace    time.Duration
}

// NewContainerServiceProvider dials containerd at socketPath (defaulting
// to DefaultContainerSocket) and returns a provider scoped to
// DefaultContainerNamespace.
func NewContainerServiceProvider(socketPath string) (*ContainerServiceProvider, error) {
	if socketPath == "" {
		socketPath = DefaultContainerSocket
	}
	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("provider: connect to containerd: %w", err)
	}
	return &ContainerServiceProvider{
		client:    client,
		namespace: DefaultContainerNamespace,
		services:  make(map[string]*containerService),
		grace:     DefaultGrace,
	}, nil
}

// Close releases the underlying containerd client connection.
func (p *ContainerServiceProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func (p *ContainerServiceProvider) ctx(ctx context.Context) context.Context {
	return namespaces.WithNamespace(ctx, p.namespace)
}

// Spawn pulls config.BinaryPath as an image, creates a container and task
// from it, and starts the task. Idempotent: a node_id with a live task is
// left alone.
func (p *ContainerServiceProvider) Spawn(ctx context.Context, config layout.ServiceConfig) error {
	ctx = p.ctx(ctx)

	p.mu.Lock()
	if svc, ok := p.services[config.NodeID]; ok {
		p.mu.Unlock()
		if alive, _ := p.taskRunning(ctx, svc.id); alive {
			return nil
		}
	} else {
		p.mu.Unlock()
	}

	l := log.WithNode(config.NodeID)
	timer := metrics.NewTimer()

	image, err := p.client.Pull(ctx, config.BinaryPath, containerd.WithPullUnpack)
	if err != nil {
		timer.ObserveDuration(metrics.SpawnDuration)
		metrics.SpawnsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("provider: pull %q: %w", config.BinaryPath, err)
	}

	containerID := "trademesh-" + config.NodeID
	_ = p.client.ContainerService().Delete(ctx, containerID)

	opts := []oci.SpecOpts{
		oci.WithImageConfig(image),
		oci.WithProcessArgs(config.Args...),
		oci.WithEnv(envSlice(config.Env)),
	}

	ctr, err := p.client.NewContainer(
		ctx,
		containerID,
		containerd.WithNewSnapshot(containerID+"-snapshot", image),
		containerd.WithNewSpec(opts...),
	)
	if err != nil {
		timer.ObserveDuration(metrics.SpawnDuration)
		metrics.SpawnsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("provider: create container %q: %w", config.NodeID, err)
	}

	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		timer.ObserveDuration(metrics.SpawnDuration)
		metrics.SpawnsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("provider: create task %q: %w", config.NodeID, err)
	}
	if err := task.Start(ctx); err != nil {
		timer.ObserveDuration(metrics.SpawnDuration)
		metrics.SpawnsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("provider: start task %q: %w", config.NodeID, err)
	}

	svc := &containerService{id: containerID, nodeID: config.NodeID, adminAPI: config.AdminAPI}
	p.mu.Lock()
	p.services[config.NodeID] = svc
	p.mu.Unlock()

	go p.monitor(svc, task)

	timer.ObserveDuration(metrics.SpawnDuration)
	metrics.SpawnsTotal.WithLabelValues("ok").Inc()
	l.Info().Str("image", config.BinaryPath).Str("container_id", containerID).Msg("spawned container")
	return nil
}

func (p *ContainerServiceProvider) monitor(svc *containerService, task containerd.Task) {
	statusC, err := task.Wait(context.Background())
	if err != nil {
		return
	}
	status := <-statusC

	p.mu.Lock()
	_, stillTracked := p.services[svc.nodeID]
	p.mu.Unlock()
	if !stillTracked {
		return
	}

	metrics.CrashesTotal.WithLabelValues(svc.nodeID).Inc()
	log.WithNode(svc.nodeID).Warn().Uint32("exit_code", status.ExitCode()).Msg("container task exited unexpectedly")
}

// Stop requests a graceful admin Shutdown (if an admin address is known),
// waits a grace window, then escalates to SIGTERM and finally SIGKILL on
// the container task before deleting the task and container.
func (p *ContainerServiceProvider) Stop(ctx context.Context, nodeID string) error {
	ctx = p.ctx(ctx)

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

	ctr, err := p.client.LoadContainer(ctx, svc.id)
	if err != nil {
		metrics.StopsTotal.WithLabelValues("already_exited").Inc()
		return nil
	}
	task, err := ctr.Task(ctx, nil)
	if err != nil {
		_ = ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		metrics.StopsTotal.WithLabelValues("already_exited").Inc()
		return nil
	}

	outcome := "forced"

	if svc.adminAPI != nil {
		p.requestGracefulShutdown(ctx, *svc.adminAPI)
		if p.waitTaskExit(ctx, task, p.grace) {
			outcome = "graceful"
		}
	}

	if outcome == "forced" {
		if alive, _ := p.taskRunning(ctx, svc.id); alive {
			_ = task.Kill(ctx, syscall.SIGTERM)
			if p.waitTaskExit(ctx, task, p.grace) {
				outcome = "sigterm"
			} else {
				_ = task.Kill(ctx, syscall.SIGKILL)
				p.waitTaskExit(ctx, task, p.grace)
			}
		} else {
			outcome = "already_exited"
		}
	}

	if _, err := task.Delete(ctx); err != nil {
		log.WithNode(nodeID).Warn().Err(err).Msg("failed to delete task")
	}
	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil {
		log.WithNode(nodeID).Warn().Err(err).Msg("failed to delete container")
	}

	metrics.StopsTotal.WithLabelValues(outcome).Inc()
	return nil
}

func (p *ContainerServiceProvider) requestGracefulShutdown(ctx context.Context, addr manifest.Address) {
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

func (p *ContainerServiceProvider) waitTaskExit(ctx context.Context, task containerd.Task, timeout time.Duration) bool {
	statusC, err := task.Wait(ctx)
	if err != nil {
		return true
	}
	select {
	case <-statusC:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *ContainerServiceProvider) taskRunning(ctx context.Context, containerID string) (bool, error) {
	ctr, err := p.client.LoadContainer(ctx, containerID)
	if err != nil {
		return false, nil
	}
	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return false, nil
	}
	status, err := task.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Status == containerd.Running, nil
}

// Probe reports the task's containerd status mapped to a HealthStatus.
func (p *ContainerServiceProvider) Probe(ctx context.Context, nodeID string) (HealthStatus, error) {
	ctx = p.ctx(ctx)

	p.mu.Lock()
	svc, ok := p.services[nodeID]
	p.mu.Unlock()
	if !ok {
		return HealthStatus{Kind: Stopped}, nil
	}

	ctr, err := p.client.LoadContainer(ctx, svc.id)
	if err != nil {
		return HealthStatus{Kind: Stopped}, nil
	}
	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return HealthStatus{Kind: Stopped}, nil
	}
	status, err := task.Status(ctx)
	if err != nil {
		return HealthStatus{Kind: Failed, Reason: err.Error()}, nil
	}

	switch status.Status {
	case containerd.Running, containerd.Paused:
		return HealthStatus{Kind: Running, PID: int(task.Pid())}, nil
	case containerd.Stopped:
		if status.ExitStatus == 0 {
			return HealthStatus{Kind: Stopped}, nil
		}
		return HealthStatus{Kind: Failed, Reason: fmt.Sprintf("exit status %d", status.ExitStatus)}, nil
	default:
		return HealthStatus{Kind: Stopped}, nil
	}
}

// List returns the node ids whose containerd task is currently running.
func (p *ContainerServiceProvider) List(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.services))
	for nodeID := range p.services {
		ids = append(ids, nodeID)
	}
	p.mu.Unlock()

	ctx = p.ctx(ctx)
	out := make([]string, 0, len(ids))
	for _, nodeID := range ids {
		if alive, _ := p.probeNodeAlive(ctx, nodeID); alive {
			out = append(out, nodeID)
		}
	}
	return out, nil
}

func (p *ContainerServiceProvider) probeNodeAlive(ctx context.Context, nodeID string) (bool, error) {
	p.mu.Lock()
	svc, ok := p.services[nodeID]
	p.mu.Unlock()
	if !ok {
		return false, nil
	}
	return p.taskRunning(ctx, svc.id)
}
