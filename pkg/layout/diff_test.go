package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func configFor(nodeID, binary string, args ...string) ServiceConfig {
	return ServiceConfig{
		NodeID:      nodeID,
		ServiceType: "strategy",
		BinaryPath:  binary,
		Args:        args,
		Env:         map[string]string{},
	}
}

func TestDiffSpawnsNewNodes(t *testing.T) {
	newPlan := &DeploymentPlan{Services: map[string]ServiceConfig{
		"n1": configFor("n1", "/bin/x", "run"),
	}}

	d := Diff(nil, newPlan)
	assert.Equal(t, []string{"n1"}, d.ToSpawn)
	assert.Empty(t, d.ToKill)
	assert.Empty(t, d.ToReconfigure)
}

func TestDiffKillsRemovedNodes(t *testing.T) {
	oldPlan := &DeploymentPlan{Services: map[string]ServiceConfig{
		"n1": configFor("n1", "/bin/x", "run"),
	}}

	d := Diff(oldPlan, &DeploymentPlan{})
	assert.Equal(t, []string{"n1"}, d.ToKill)
	assert.Empty(t, d.ToSpawn)
}

func TestDiffReconfiguresArgsOnlyChange(t *testing.T) {
	oldPlan := &DeploymentPlan{Services: map[string]ServiceConfig{
		"n1": configFor("n1", "/bin/x", "run", "--bindings", "old"),
	}}
	newPlan := &DeploymentPlan{Services: map[string]ServiceConfig{
		"n1": configFor("n1", "/bin/x", "run", "--bindings", "new"),
	}}

	d := Diff(oldPlan, newPlan)
	assert.Empty(t, d.ToSpawn)
	assert.Empty(t, d.ToKill)
	assert.Len(t, d.ToReconfigure, 1)
	assert.Equal(t, "n1", d.ToReconfigure[0].NodeID)
}

func TestDiffRestartsOnBinaryChange(t *testing.T) {
	oldPlan := &DeploymentPlan{Services: map[string]ServiceConfig{
		"n1": configFor("n1", "/bin/old", "run"),
	}}
	newPlan := &DeploymentPlan{Services: map[string]ServiceConfig{
		"n1": configFor("n1", "/bin/new", "run"),
	}}

	d := Diff(oldPlan, newPlan)
	assert.Equal(t, []string{"n1"}, d.ToKill)
	assert.Equal(t, []string{"n1"}, d.ToSpawn)
	assert.Empty(t, d.ToReconfigure)
}

// P5: once reconcile settles on a desired plan, re-diffing the same plan
// against itself issues no actions at all.
func TestDiffIsIdempotentOnUnchangedPlan(t *testing.T) {
	plan := &DeploymentPlan{Services: map[string]ServiceConfig{
		"n1": configFor("n1", "/bin/x", "run", "--bindings", "stable"),
		"n2": configFor("n2", "/bin/y", "run"),
	}}

	d := Diff(plan, plan)
	assert.True(t, d.IsEmpty())
}
