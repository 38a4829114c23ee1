package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
)

func sleepConfig(nodeID string, seconds string) layout.ServiceConfig {
	return layout.ServiceConfig{
		NodeID:      nodeID,
		ServiceType: "test",
		BinaryPath:  "/bin/sleep",
		Args:        []string{seconds},
		Env:         map[string]string{},
	}
}

func TestLocalProcessProviderSpawnAndProbe(t *testing.T) {
	p := NewLocalProcessProvider()
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, sleepConfig("n1", "5")))

	status, err := p.Probe(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, Running, status.Kind)
	assert.NotZero(t, status.PID)

	require.NoError(t, p.Stop(ctx, "n1"))
}

func TestLocalProcessProviderSpawnIsIdempotent(t *testing.T) {
	p := NewLocalProcessProvider()
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, sleepConfig("n1", "5")))
	status1, _ := p.Probe(ctx, "n1")

	require.NoError(t, p.Spawn(ctx, sleepConfig("n1", "5")))
	status2, _ := p.Probe(ctx, "n1")

	assert.Equal(t, status1.PID, status2.PID)
	require.NoError(t, p.Stop(ctx, "n1"))
}

func TestLocalProcessProviderStopRemovesFromList(t *testing.T) {
	p := NewLocalProcessProvider()
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, sleepConfig("n1", "5")))
	list, err := p.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, "n1")

	require.NoError(t, p.Stop(ctx, "n1"))
	list, err = p.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, list, "n1")
}

func TestLocalProcessProviderStopUnknownNodeIsNoop(t *testing.T) {
	p := NewLocalProcessProvider()
	assert.NoError(t, p.Stop(context.Background(), "ghost"))
}

func TestLocalProcessProviderProbeDetectsExit(t *testing.T) {
	p := NewLocalProcessProvider()
	p.grace = 50 * time.Millisecond
	ctx := context.Background()

	cfg := layout.ServiceConfig{
		NodeID:      "n1",
		ServiceType: "test",
		BinaryPath:  "/bin/true",
		Args:        []string{},
		Env:         map[string]string{},
	}
	require.NoError(t, p.Spawn(ctx, cfg))

	assert.Eventually(t, func() bool {
		status, _ := p.Probe(ctx, "n1")
		return status.Kind == Failed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLocalProcessProviderStopEscalatesWithoutAdminAddress(t *testing.T) {
	p := NewLocalProcessProvider()
	p.grace = 50 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, sleepConfig("n1", "30")))
	require.NoError(t, p.Stop(ctx, "n1"))

	status, _ := p.Probe(ctx, "n1")
	assert.Equal(t, Stopped, status.Kind)
}
