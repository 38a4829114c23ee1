package servicecli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

func TestAdminAddressExtractsReservedInput(t *testing.T) {
	addr := manifest.Zmq("tcp://127.0.0.1:9000")
	bindings := manifest.ServiceBindings{
		Inputs: map[string]manifest.Binding{
			"admin": manifest.SingleBinding(manifest.Source{ID: 0, Address: addr}),
		},
	}

	got, err := AdminAddress(bindings)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestAdminAddressMissingErrors(t *testing.T) {
	_, err := AdminAddress(manifest.ServiceBindings{Inputs: map[string]manifest.Binding{}})
	assert.Error(t, err)
}

func TestAdminAddressRejectsVariadic(t *testing.T) {
	bindings := manifest.ServiceBindings{
		Inputs: map[string]manifest.Binding{
			"admin": manifest.VariadicBinding(map[string]manifest.Source{
				"n1": {ID: 1, Address: manifest.Zmq("tcp://127.0.0.1:9001")},
			}),
		},
	}
	_, err := AdminAddress(bindings)
	assert.Error(t, err)
}

func TestSingleInputReturnsSource(t *testing.T) {
	src := manifest.Source{ID: 7, Address: manifest.Memory("ticks")}
	bindings := manifest.ServiceBindings{
		Inputs: map[string]manifest.Binding{
			"ticks": manifest.SingleBinding(src),
		},
	}

	got, err := SingleInput(bindings, "ticks")
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestSingleInputMissingPortErrors(t *testing.T) {
	_, err := SingleInput(manifest.ServiceBindings{Inputs: map[string]manifest.Binding{}}, "ticks")
	assert.Error(t, err)
}

func TestSingleInputRejectsVariadicPort(t *testing.T) {
	bindings := manifest.ServiceBindings{
		Inputs: map[string]manifest.Binding{
			"ticks": manifest.VariadicBinding(map[string]manifest.Source{
				"md1": {ID: 1, Address: manifest.Memory("a")},
			}),
		},
	}
	_, err := SingleInput(bindings, "ticks")
	assert.Error(t, err)
}

func TestSingleOutputReturnsAddress(t *testing.T) {
	addr := manifest.Memory("orders")
	bindings := manifest.ServiceBindings{
		Outputs: map[string]manifest.Binding{
			"orders": manifest.SingleBinding(manifest.Source{ID: 0, Address: addr}),
		},
	}

	got, err := SingleOutput(bindings, "orders")
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestVariadicSourcesReturnsAllProducers(t *testing.T) {
	bindings := manifest.ServiceBindings{
		Inputs: map[string]manifest.Binding{
			"ticks": manifest.VariadicBinding(map[string]manifest.Source{
				"md1": {ID: 1, Address: manifest.Memory("a")},
				"md2": {ID: 2, Address: manifest.Memory("b")},
			}),
		},
	}

	sources := VariadicSources(bindings, "ticks")
	assert.Len(t, sources, 2)
}

func TestVariadicSourcesMissingPortReturnsNil(t *testing.T) {
	sources := VariadicSources(manifest.ServiceBindings{Inputs: map[string]manifest.Binding{}}, "ticks")
	assert.Nil(t, sources)
}
