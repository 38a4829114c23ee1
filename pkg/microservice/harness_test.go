package microservice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

func newTestHarness() *Harness {
	registry := NewRegistry()
	registry.Register(Parameter{Name: "threshold", Type: ParamFloat, Default: "1", Editable: true}, nil)
	return &Harness{
		serviceName: "strategy",
		serviceID:   42,
		registry:    registry,
		bindings:    manifest.ServiceBindings{Inputs: map[string]manifest.Binding{}},
		inputs:      make(map[string]Connectable),
		runners:     make(map[string]PortRunner),
		stopCh:      make(chan struct{}),
	}
}

func TestHarnessDispatchPing(t *testing.T) {
	h := newTestHarness()
	resp, shutdown := h.dispatch(transport.AdminCommand{Kind: transport.AdminPing})
	assert.False(t, shutdown)
	assert.Equal(t, transport.AdminPong, resp.Kind)
}

func TestHarnessDispatchStatus(t *testing.T) {
	h := newTestHarness()
	resp, shutdown := h.dispatch(transport.AdminCommand{Kind: transport.AdminStatus})
	assert.False(t, shutdown)
	require.Equal(t, transport.AdminInfo, resp.Kind)

	var info map[string]any
	require.NoError(t, json.Unmarshal(resp.Info, &info))
	assert.Equal(t, "strategy", info["service_name"])
}

func TestHarnessDispatchRegistryList(t *testing.T) {
	h := newTestHarness()
	resp, shutdown := h.dispatch(transport.AdminCommand{Kind: transport.AdminRegistry})
	assert.False(t, shutdown)
	require.Equal(t, transport.AdminInfo, resp.Kind)

	var params []Parameter
	require.NoError(t, json.Unmarshal(resp.Info, &params))
	require.Len(t, params, 1)
	assert.Equal(t, "threshold", params[0].Name)
}

func TestHarnessDispatchUpdateRegistry(t *testing.T) {
	h := newTestHarness()
	resp, shutdown := h.dispatch(transport.AdminCommand{Kind: transport.AdminUpdateRegistry, Key: "threshold", Value: "2.5"})
	assert.False(t, shutdown)
	assert.Equal(t, transport.AdminOk, resp.Kind)

	p, ok := h.registry.Get("threshold")
	require.True(t, ok)
	assert.Equal(t, "2.5", p.Current)
}

func TestHarnessDispatchUpdateRegistryRejectsUnknown(t *testing.T) {
	h := newTestHarness()
	resp, shutdown := h.dispatch(transport.AdminCommand{Kind: transport.AdminUpdateRegistry, Key: "nope", Value: "1"})
	assert.False(t, shutdown)
	assert.Equal(t, transport.AdminError, resp.Kind)
	assert.NotEmpty(t, resp.Error)
}

func TestHarnessDispatchShutdown(t *testing.T) {
	h := newTestHarness()
	resp, shutdown := h.dispatch(transport.AdminCommand{Kind: transport.AdminShutdown})
	assert.True(t, shutdown)
	assert.Equal(t, transport.AdminOk, resp.Kind)
}

func TestHarnessDispatchUnknownKind(t *testing.T) {
	h := newTestHarness()
	resp, shutdown := h.dispatch(transport.AdminCommand{Kind: "Bogus"})
	assert.False(t, shutdown)
	assert.Equal(t, transport.AdminError, resp.Kind)
}

type fakeConnectable struct {
	connected map[uint64]manifest.Address
}

func (f *fakeConnectable) Connect(addr manifest.Address, sourceID uint64) error {
	if f.connected == nil {
		f.connected = make(map[uint64]manifest.Address)
	}
	f.connected[sourceID] = addr
	return nil
}

func (f *fakeConnectable) Disconnect(sourceID uint64) error {
	delete(f.connected, sourceID)
	return nil
}

func TestHarnessApplyUpdateBindingsConnectsNewSources(t *testing.T) {
	h := newTestHarness()
	conn := &fakeConnectable{}
	h.inputs["ticks"] = conn
	h.bindings = manifest.ServiceBindings{
		Inputs: map[string]manifest.Binding{
			"ticks": manifest.SingleBinding(manifest.Source{ID: 1, Address: manifest.Memory("old")}),
		},
	}

	newBindings := manifest.ServiceBindings{
		Inputs: map[string]manifest.Binding{
			"ticks": manifest.VariadicBinding(map[string]manifest.Source{
				"md1": {ID: 1, Address: manifest.Memory("old")},
				"md2": {ID: 2, Address: manifest.Memory("new")},
			}),
		},
	}
	raw, err := json.Marshal(newBindings)
	require.NoError(t, err)

	cfg, err := json.Marshal(map[string]any{"args": []string{"run", "--bindings", string(raw)}})
	require.NoError(t, err)

	require.NoError(t, h.applyUpdateBindings(cfg))

	assert.Len(t, conn.connected, 1)
	assert.Equal(t, manifest.Memory("new"), conn.connected[2])
}

func TestHarnessApplyUpdateBindingsMissingFlagErrors(t *testing.T) {
	h := newTestHarness()
	cfg, err := json.Marshal(map[string]any{"args": []string{"run"}})
	require.NoError(t, err)

	assert.Error(t, h.applyUpdateBindings(cfg))
}
