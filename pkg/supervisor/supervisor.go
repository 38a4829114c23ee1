// Package supervisor owns the catalog, the desired deployment plan, and
// the last-reconciled layout. Resolving and reconciling run on one
// goroutine, driven by events off the bus and a periodic reconcile tick
// (Teardown, called from outside it, also replaces the desired plan),
// matching the teacher's
// ticker-driven reconciler shape in spirit while replacing cluster-wide
// node/container bookkeeping with the trading mesh's service graph.
package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ManuMario0/trading-lab-sub000/pkg/catalog"
	"github.com/ManuMario0/trading-lab-sub000/pkg/eventbus"
	"github.com/ManuMario0/trading-lab-sub000/pkg/health"
	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/metrics"
	"github.com/ManuMario0/trading-lab-sub000/pkg/provider"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

// DefaultReconcileTick is how often the Supervisor reconciles even absent
// any triggering event.
const DefaultReconcileTick = 1 * time.Second

// DefaultAdminTimeout bounds a reconfigure-via-admin round trip.
const DefaultAdminTimeout = 2 * time.Second

// Supervisor is the single owner of catalog, desiredPlan and
// currentLayout. The run goroutine resolves and reconciles them. The plan
// and layout fields are guarded by mu, because Teardown writes them and
// CurrentLayout, DesiredPlan and Status read them from the caller's
// goroutine. Callers submit work through the event bus and RequestDeploy,
// and end the loop with Stop.
type Supervisor struct {
	catalog  *catalog.Catalog
	engine   *layout.Engine
	prov     provider.ServiceProvider
	bus      *eventbus.Bus
	basePort int
	tick     time.Duration

	mu sync.Mutex

	pendingLayout *layout.Layout
	desiredPlan   *layout.DeploymentPlan
	lastPlan      *layout.DeploymentPlan
	currentLayout *layout.Layout

	sub    eventbus.Subscriber
	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Supervisor over an existing catalog and event bus. basePort
// seeds the layout engine's address allocator.
func New(cat *catalog.Catalog, bus *eventbus.Bus, prov provider.ServiceProvider, basePort int) *Supervisor {
	return &Supervisor{
		catalog:  cat,
		engine:   layout.NewEngine(),
		prov:     prov,
		bus:      bus,
		basePort: basePort,
		tick:     DefaultReconcileTick,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// SetReconcileTick overrides the periodic reconcile interval; call before
// Start.
func (s *Supervisor) SetReconcileTick(d time.Duration) {
	s.tick = d
}

// Start subscribes to the bus and begins the event-driven reconcile loop.
func (s *Supervisor) Start() {
	s.sub = s.bus.Subscribe()
	go s.run()
}

// Stop unsubscribes from the bus and waits for the run loop to exit.
func (s *Supervisor) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.bus.Unsubscribe(s.sub)
}

// RequestDeploy is the external entry point for submitting a new layout,
// equivalent to the bus carrying a DeployRequested event but usable
// directly by a control-API handler that already holds the layout value.
func (s *Supervisor) RequestDeploy(l layout.Layout) {
	s.bus.Publish(eventbus.SystemEvent{Kind: eventbus.EventDeployRequested, LayoutID: l.ID, Layout: l})
}

func (s *Supervisor) run() {
	defer close(s.doneCh)
	l := log.WithComponent("supervisor")
	l.Info().Msg("supervisor started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case evt := <-s.sub:
			s.handle(evt)
			s.reconcileOnce()
		case <-ticker.C:
			s.reconcileOnce()
		case <-s.stopCh:
			l.Info().Msg("supervisor stopped")
			return
		}
	}
}

func (s *Supervisor) handle(evt eventbus.SystemEvent) {
	l := log.WithComponent("supervisor")
	switch evt.Kind {
	case eventbus.EventServiceDiscovered:
		s.catalog.Register(evt.Descriptor)
		l.Debug().Str("service_type", evt.Descriptor.Blueprint.ServiceType).Msg("registered service in catalog")
		s.tryResolve()

	case eventbus.EventDeployRequested:
		lay, ok := evt.Layout.(layout.Layout)
		if !ok {
			l.Error().Str("layout_id", evt.LayoutID).Msg("deploy_requested event carried unexpected layout payload type")
			return
		}
		s.mu.Lock()
		s.pendingLayout = &lay
		s.mu.Unlock()
		s.tryResolve()

	case eventbus.EventServiceCrashed:
		l.Warn().Str("node_id", evt.NodeID).Int("exit_code", evt.ExitCode).Msg("service crashed, will reconcile")

	default:
		l.Trace().Str("kind", string(evt.Kind)).Msg("event observed")
	}
}

// tryResolve runs the Layout Engine against the current catalog. On
// success the desired plan is replaced; on failure (most commonly a
// missing service_type, an expected transient state while discovery
// catches up) the pending layout is kept for the next attempt.
func (s *Supervisor) tryResolve() {
	s.mu.Lock()
	pending := s.pendingLayout
	prev := s.desiredPlan
	s.mu.Unlock()
	if pending == nil {
		return
	}

	l := log.WithComponent("supervisor")
	timer := metrics.NewTimer()
	plan, err := s.engine.Resolve(*pending, s.catalog, s.basePort, prev)
	timer.ObserveDuration(metrics.LayoutResolveDuration)
	if err != nil {
		l.Debug().Str("layout_id", pending.ID).Err(err).Msg("layout resolve pending")
		return
	}

	s.mu.Lock()
	s.desiredPlan = plan
	s.currentLayout = pending
	s.pendingLayout = nil
	s.mu.Unlock()

	d := layout.Diff(prev, plan)
	metrics.PlanDiffSize.WithLabelValues("to_spawn").Observe(float64(len(d.ToSpawn)))
	metrics.PlanDiffSize.WithLabelValues("to_kill").Observe(float64(len(d.ToKill)))
	metrics.PlanDiffSize.WithLabelValues("to_reconfigure").Observe(float64(len(d.ToReconfigure)))
	l.Info().Str("layout_id", pending.ID).Int("services", len(plan.Services)).Msg("resolved deployment plan")
}

func (s *Supervisor) reconcileOnce() {
	s.mu.Lock()
	plan := s.desiredPlan
	lastPlan := s.lastPlan
	s.mu.Unlock()
	if plan == nil {
		return
	}

	l := log.WithComponent("supervisor")
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	ctx := context.Background()
	appliedConfigs := make(map[string]layout.ServiceConfig, len(plan.Services))
	if lastPlan != nil {
		for id, cfg := range lastPlan.Services {
			appliedConfigs[id] = cfg
		}
	}

	for id, cfg := range plan.Services {
		status, err := s.prov.Probe(ctx, id)
		if err != nil {
			l.Error().Str("node_id", id).Err(err).Msg("probe failed")
			continue
		}

		switch status.Kind {
		case provider.Stopped, provider.Failed:
			if err := s.prov.Spawn(ctx, cfg); err != nil {
				l.Error().Str("node_id", id).Err(err).Msg("spawn failed, aborting reconcile step")
				s.saveAppliedConfigs(appliedConfigs)
				return
			}
			appliedConfigs[id] = cfg
			s.bus.Publish(eventbus.SystemEvent{Kind: eventbus.EventServiceStarted, NodeID: id})

		case provider.Running:
			prevCfg, existed := appliedConfigs[id]
			if existed && configEqual(prevCfg, cfg) {
				continue
			}
			if existed && hotReloadable(prevCfg, cfg) {
				if err := s.reconfigure(ctx, cfg); err != nil {
					l.Warn().Str("node_id", id).Err(err).Msg("admin reconfigure failed")
					continue
				}
				appliedConfigs[id] = cfg
				continue
			}

			if err := s.prov.Stop(ctx, id); err != nil {
				l.Error().Str("node_id", id).Err(err).Msg("stop-before-respawn failed")
				continue
			}
			if err := s.prov.Spawn(ctx, cfg); err != nil {
				l.Error().Str("node_id", id).Err(err).Msg("respawn failed, aborting reconcile step")
				s.saveAppliedConfigs(appliedConfigs)
				return
			}
			appliedConfigs[id] = cfg
			s.bus.Publish(eventbus.SystemEvent{Kind: eventbus.EventServiceStarted, NodeID: id})
		}
	}

	s.stopOrphans(ctx, plan)
	s.saveAppliedConfigs(appliedConfigs)
}

func (s *Supervisor) stopOrphans(ctx context.Context, plan *layout.DeploymentPlan) {
	l := log.WithComponent("supervisor")
	running, err := s.prov.List(ctx)
	if err != nil {
		l.Error().Err(err).Msg("provider list failed")
		return
	}
	for _, id := range running {
		if _, wanted := plan.Services[id]; wanted {
			continue
		}
		if err := s.prov.Stop(ctx, id); err != nil {
			l.Error().Str("node_id", id).Err(err).Msg("failed to stop orphaned service")
		}
	}
}

func (s *Supervisor) saveAppliedConfigs(applied map[string]layout.ServiceConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPlan = &layout.DeploymentPlan{Services: applied}
}

// reconfigure pushes an UpdateBindings admin command to cfg's own admin
// address, the hot-reload path the Layout Diff chooses when only Args
// changed.
func (s *Supervisor) reconfigure(ctx context.Context, cfg layout.ServiceConfig) error {
	if cfg.AdminAPI == nil {
		return fmt.Errorf("supervisor: %q has no admin address to reconfigure", cfg.NodeID)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("supervisor: marshal reconfigure payload: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, DefaultAdminTimeout)
	defer cancel()

	duplex, err := transport.DialAdmin(*cfg.AdminAPI, DefaultAdminTimeout)
	if err != nil {
		return fmt.Errorf("supervisor: dial admin %q: %w", cfg.NodeID, err)
	}
	defer duplex.Close()

	payload := transport.AdminPayload{
		Kind: transport.PayloadCommand,
		Command: &transport.AdminCommand{
			Kind:   transport.AdminUpdateBindings,
			Config: raw,
		},
	}
	if err := duplex.SendPayload(payload); err != nil {
		return fmt.Errorf("supervisor: send UpdateBindings %q: %w", cfg.NodeID, err)
	}
	resp, err := duplex.RecvPayload(dialCtx)
	if err != nil {
		return fmt.Errorf("supervisor: recv UpdateBindings reply %q: %w", cfg.NodeID, err)
	}
	if resp.Response != nil && resp.Response.Kind == transport.AdminError {
		return fmt.Errorf("supervisor: %q rejected UpdateBindings: %s", cfg.NodeID, resp.Response.Error)
	}
	return nil
}

func configEqual(a, b layout.ServiceConfig) bool {
	return layout.ConfigsEqual(a, b)
}

func hotReloadable(a, b layout.ServiceConfig) bool {
	return layout.HotReloadable(a, b)
}

// Catalog exposes the supervisor's catalog for read-only inspection, e.g.
// by an orchestrator control-API handler.
func (s *Supervisor) Catalog() *catalog.Catalog { return s.catalog }

// CurrentLayout returns the layout last successfully resolved, if any.
func (s *Supervisor) CurrentLayout() (layout.Layout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentLayout == nil {
		return layout.Layout{}, false
	}
	return *s.currentLayout, true
}

// DesiredPlan returns the plan last successfully resolved, if any.
func (s *Supervisor) DesiredPlan() (layout.DeploymentPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desiredPlan == nil {
		return layout.DeploymentPlan{}, false
	}
	return *s.desiredPlan, true
}

// NodeStatus summarizes one deployed node for a control-API GetStatus
// response.
type NodeStatus struct {
	ID          string
	ServiceType string
	Status      string
}

// Status probes every node of the desired plan and returns a snapshot,
// for the orchestrator control API's GetStatus command.
func (s *Supervisor) Status(ctx context.Context) []NodeStatus {
	s.mu.Lock()
	plan := s.desiredPlan
	s.mu.Unlock()
	if plan == nil {
		return nil
	}

	out := make([]NodeStatus, 0, len(plan.Services))
	counts := make(map[string]int)
	for id, cfg := range plan.Services {
		state := "unknown"
		if hs, err := s.prov.Probe(ctx, id); err == nil {
			switch hs.Kind {
			case provider.Running:
				state = "running"
				// A node can be alive at the process level but wedged in
				// its own admin loop; the admin ping catches that.
				if cfg.AdminAPI != nil {
					if res := health.NewAdminChecker(*cfg.AdminAPI).Check(ctx); !res.Healthy {
						state = "unhealthy"
					}
				}
			case provider.Stopped:
				state = "stopped"
			case provider.Failed:
				state = "failed"
			}
		}
		counts[state]++
		out = append(out, NodeStatus{ID: id, ServiceType: cfg.ServiceType, Status: state})
	}
	for state, n := range counts {
		metrics.NodesByState.WithLabelValues(state).Set(float64(n))
	}
	return out
}

// Teardown clears the desired plan for layoutID, causing every one of its
// services to be stopped as an orphan on the next reconcile. Returns
// false if layoutID does not match the currently resolved layout.
func (s *Supervisor) Teardown(layoutID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentLayout == nil || s.currentLayout.ID != layoutID {
		return false
	}
	s.desiredPlan = &layout.DeploymentPlan{LayoutID: layoutID, Services: map[string]layout.ServiceConfig{}}
	s.currentLayout = nil
	return true
}
