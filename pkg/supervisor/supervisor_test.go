package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuMario0/trading-lab-sub000/internal/testutil"
	"github.com/ManuMario0/trading-lab-sub000/pkg/catalog"
	"github.com/ManuMario0/trading-lab-sub000/pkg/eventbus"
	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
	"github.com/ManuMario0/trading-lab-sub000/pkg/provider"
)

// fakeProvider is an in-memory ServiceProvider stand-in recording every
// call the supervisor makes, so reconcile behavior can be asserted
// without spawning real processes.
type fakeProvider struct {
	mu        sync.Mutex
	running   map[string]layout.ServiceConfig
	spawnLog  []string
	stopLog   []string
	spawnErrs map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{running: make(map[string]layout.ServiceConfig)}
}

func (f *fakeProvider) Spawn(ctx context.Context, config layout.ServiceConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.spawnErrs[config.NodeID]; err != nil {
		return err
	}
	f.running[config.NodeID] = config
	f.spawnLog = append(f.spawnLog, config.NodeID)
	return nil
}

func (f *fakeProvider) Stop(ctx context.Context, nodeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, nodeID)
	f.stopLog = append(f.stopLog, nodeID)
	return nil
}

func (f *fakeProvider) Probe(ctx context.Context, nodeID string) (provider.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.running[nodeID]; ok {
		return provider.HealthStatus{Kind: provider.Running, PID: 1}, nil
	}
	return provider.HealthStatus{Kind: provider.Stopped}, nil
}

func (f *fakeProvider) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.running))
	for id := range f.running {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeProvider) spawnCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spawnLog)
}

func (f *fakeProvider) isRunning(nodeID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.running[nodeID]
	return ok
}

func oneNodeLayout() layout.Layout { return testutil.OneNodeLayout() }

func newTestSupervisor(prov provider.ServiceProvider) (*Supervisor, *catalog.Catalog, *eventbus.Bus) {
	cat := catalog.New()
	cat.Register(testutil.MarketDataDescriptor())
	bus := eventbus.New()
	bus.Start()
	sup := New(cat, bus, prov, 16000)
	sup.SetReconcileTick(20 * time.Millisecond)
	return sup, cat, bus
}

func TestSupervisorReconcileSpawnsDesiredService(t *testing.T) {
	prov := newFakeProvider()
	sup, _, bus := newTestSupervisor(prov)
	sup.Start()
	defer func() { sup.Stop(); bus.Stop() }()

	sup.RequestDeploy(oneNodeLayout())

	require.Eventually(t, func() bool {
		return prov.isRunning("md1")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisorReconcileIsIdempotentUnderRepeatedTicks(t *testing.T) {
	prov := newFakeProvider()
	sup, _, bus := newTestSupervisor(prov)
	sup.Start()
	defer func() { sup.Stop(); bus.Stop() }()

	sup.RequestDeploy(oneNodeLayout())

	require.Eventually(t, func() bool {
		return prov.isRunning("md1")
	}, 2*time.Second, 10*time.Millisecond)

	// Give several more reconcile ticks a chance to run; a running node
	// whose config hasn't changed must not be spawned again.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, prov.spawnCount())
}

func TestSupervisorStopOrphansServicesNotInPlan(t *testing.T) {
	prov := newFakeProvider()
	sup, _, bus := newTestSupervisor(prov)
	sup.Start()
	defer func() { sup.Stop(); bus.Stop() }()

	// A process the provider reports running but that no plan wants.
	prov.mu.Lock()
	prov.running["orphan"] = layout.ServiceConfig{NodeID: "orphan"}
	prov.mu.Unlock()

	sup.RequestDeploy(oneNodeLayout())

	require.Eventually(t, func() bool {
		return !prov.isRunning("orphan")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisorTeardownStopsEverything(t *testing.T) {
	prov := newFakeProvider()
	sup, _, bus := newTestSupervisor(prov)
	sup.Start()
	defer func() { sup.Stop(); bus.Stop() }()

	sup.RequestDeploy(oneNodeLayout())
	require.Eventually(t, func() bool {
		return prov.isRunning("md1")
	}, 2*time.Second, 10*time.Millisecond)

	ok := sup.Teardown("L1")
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		return !prov.isRunning("md1")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisorTeardownRejectsUnknownLayout(t *testing.T) {
	prov := newFakeProvider()
	sup, _, bus := newTestSupervisor(prov)
	defer bus.Stop()

	assert.False(t, sup.Teardown("nonexistent"))
}

func TestSupervisorStatusReflectsDesiredPlan(t *testing.T) {
	prov := newFakeProvider()
	sup, _, bus := newTestSupervisor(prov)
	sup.Start()
	defer func() { sup.Stop(); bus.Stop() }()

	sup.RequestDeploy(oneNodeLayout())
	require.Eventually(t, func() bool {
		return prov.isRunning("md1")
	}, 2*time.Second, 10*time.Millisecond)

	statuses := sup.Status(context.Background())
	require.Len(t, statuses, 1)
	assert.Equal(t, "md1", statuses[0].ID)
	// The fake provider reports the process alive, but nothing is
	// actually listening on the resolved admin address, so the admin
	// ping escalates the state past a bare process-level "running".
	assert.Equal(t, "unhealthy", statuses[0].Status)
}
