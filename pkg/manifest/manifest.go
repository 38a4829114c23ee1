// Package manifest defines the declarative contract a service binary
// exposes (its blueprint of input/output ports) and the runtime binding
// model the layout engine and microservice harness exchange over JSON.
package manifest

// PortDefinition describes one named input or output port on a blueprint.
type PortDefinition struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	Required   bool   `json:"required"`
	IsVariadic bool   `json:"is_variadic"`
}

// ServiceBlueprint is the compile-time contract compiled into a binary:
// its unique service type tag and its ordered input/output ports.
type ServiceBlueprint struct {
	ServiceType string           `json:"service_type"`
	Inputs      []PortDefinition `json:"inputs"`
	Outputs     []PortDefinition `json:"outputs"`
}

// InputByName returns the input port definition with the given name, or
// false if the blueprint declares no such input.
func (b ServiceBlueprint) InputByName(name string) (PortDefinition, bool) {
	for _, p := range b.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortDefinition{}, false
}

// OutputByName returns the output port definition with the given name, or
// false if the blueprint declares no such output.
func (b ServiceBlueprint) OutputByName(name string) (PortDefinition, bool) {
	for _, p := range b.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortDefinition{}, false
}

// ServiceManifest is what a binary prints to stdout on `manifest`.
type ServiceManifest struct {
	Blueprint   ServiceBlueprint `json:"blueprint"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
}

// ServiceDescriptor is a ServiceManifest plus the absolute path to the
// binary it was read from. Owned by the catalog; replaced wholesale on
// every re-discovery of the same service_type.
type ServiceDescriptor struct {
	Blueprint   ServiceBlueprint `json:"blueprint"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
	BinaryPath  string           `json:"binary_path"`
}

// FromManifest builds a ServiceDescriptor from a parsed manifest and the
// absolute path of the binary that produced it.
func FromManifest(m ServiceManifest, binaryPath string) ServiceDescriptor {
	return ServiceDescriptor{
		Blueprint:   m.Blueprint,
		Version:     m.Version,
		Description: m.Description,
		BinaryPath:  binaryPath,
	}
}
