package servicecli

import (
	"fmt"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// adminInputName is the reserved input key the layout engine uses to
// smuggle a node's own admin address through its ServiceBindings, since
// the admin listener isn't a port the blueprint declares.
const adminInputName = "admin"

// AdminAddress extracts the reserved "admin" binding every resolved
// ServiceBindings carries, the address a binary must bind its admin
// listener on.
func AdminAddress(bindings manifest.ServiceBindings) (manifest.Address, error) {
	b, ok := bindings.Inputs[adminInputName]
	if !ok {
		return manifest.Address{}, fmt.Errorf("servicecli: bindings missing reserved %q input", adminInputName)
	}
	if b.Kind != manifest.BindingSingle {
		return manifest.Address{}, fmt.Errorf("servicecli: reserved %q input must be a single binding", adminInputName)
	}
	return b.Single.Address, nil
}

// SingleInput returns the one Source bound to a non-variadic input port.
// Callers connect it onto a freshly built ReceiverSocket with its own
// source id, since a logical input port always starts as an empty
// multiplexer regardless of how many producers it will end up with.
func SingleInput(bindings manifest.ServiceBindings, port string) (manifest.Source, error) {
	b, ok := bindings.Inputs[port]
	if !ok {
		return manifest.Source{}, fmt.Errorf("servicecli: missing input binding %q", port)
	}
	if b.Kind != manifest.BindingSingle {
		return manifest.Source{}, fmt.Errorf("servicecli: input %q is bound as variadic, not single", port)
	}
	return b.Single, nil
}

// SingleOutput returns the one address bound to an output port.
func SingleOutput(bindings manifest.ServiceBindings, port string) (manifest.Address, error) {
	b, ok := bindings.Outputs[port]
	if !ok {
		return manifest.Address{}, fmt.Errorf("servicecli: missing output binding %q", port)
	}
	if b.Kind != manifest.BindingSingle {
		return manifest.Address{}, fmt.Errorf("servicecli: output %q is bound as variadic, not single", port)
	}
	return b.Single.Address, nil
}

// VariadicSources returns every connected producer of a variadic input
// port, empty if the port has no incoming edges yet.
func VariadicSources(bindings manifest.ServiceBindings, port string) []manifest.Source {
	b, ok := bindings.Inputs[port]
	if !ok {
		return nil
	}
	return b.Sources()
}
