package manifest

import (
	"encoding/json"
	"fmt"
)

// Source identifies one producer feeding a port: its address and the
// stable numeric id handlers use to disambiguate producers on a
// variadic input.
type Source struct {
	Address Address `json:"address"`
	ID      uint64  `json:"id"`
}

// BindingKind tags the variant of a Binding.
type BindingKind int

const (
	BindingSingle BindingKind = iota
	BindingVariadic
)

// Binding is the runtime wiring for one port: either exactly one Source
// (non-variadic inputs and every output) or a set of Sources keyed by
// producer node id (variadic inputs).
type Binding struct {
	Kind     BindingKind
	Single   Source
	Variadic map[string]Source
}

// SingleBinding wraps a lone Source as a non-variadic Binding.
func SingleBinding(s Source) Binding {
	return Binding{Kind: BindingSingle, Single: s}
}

// VariadicBinding wraps a producer-keyed Source map as a variadic Binding.
func VariadicBinding(sources map[string]Source) Binding {
	return Binding{Kind: BindingVariadic, Variadic: sources}
}

// MarshalJSON emits the wire form `{"Single": Source}` or
// `{"Variadic": {node_id: Source, ...}}`.
func (b Binding) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BindingSingle:
		return json.Marshal(map[string]Source{"Single": b.Single})
	case BindingVariadic:
		return json.Marshal(map[string]map[string]Source{"Variadic": b.Variadic})
	default:
		return nil, fmt.Errorf("manifest: binding has unknown kind %d", b.Kind)
	}
}

// UnmarshalJSON accepts either wire form.
func (b *Binding) UnmarshalJSON(data []byte) error {
	var single struct {
		Single *Source `json:"Single"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.Single != nil {
		*b = SingleBinding(*single.Single)
		return nil
	}

	var variadic struct {
		Variadic map[string]Source `json:"Variadic"`
	}
	if err := json.Unmarshal(data, &variadic); err == nil && variadic.Variadic != nil {
		*b = VariadicBinding(variadic.Variadic)
		return nil
	}

	return fmt.Errorf("manifest: binding JSON is neither Single nor Variadic: %s", string(data))
}

// Sources returns every Source referenced by the binding, in no
// particular order for the variadic case (the spec treats the variadic
// map as unordered).
func (b Binding) Sources() []Source {
	switch b.Kind {
	case BindingSingle:
		return []Source{b.Single}
	case BindingVariadic:
		out := make([]Source, 0, len(b.Variadic))
		for _, s := range b.Variadic {
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// ServiceBindings is the full `--bindings` payload a spawned process
// receives: the resolved wiring for every declared input and output port.
type ServiceBindings struct {
	Inputs  map[string]Binding `json:"inputs"`
	Outputs map[string]Binding `json:"outputs"`
}

// Validate checks the semantic rules from the binding model: every
// required input of the blueprint must be present, and every declared
// output must be present.
func (sb ServiceBindings) Validate(bp ServiceBlueprint) error {
	for _, in := range bp.Inputs {
		if !in.Required {
			continue
		}
		if _, ok := sb.Inputs[in.Name]; !ok {
			return fmt.Errorf("manifest: required input %q missing from bindings", in.Name)
		}
	}
	for _, out := range bp.Outputs {
		if _, ok := sb.Outputs[out.Name]; !ok {
			return fmt.Errorf("manifest: output %q missing from bindings", out.Name)
		}
	}
	return nil
}
