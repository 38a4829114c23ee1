package layout

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ManuMario0/trading-lab-sub000/pkg/catalog"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// allocationWindow bounds how many candidate ports the allocator will
// scan past basePort before giving up with ErrAllocationExhausted.
const allocationWindow = 10000

// adminSlack is the gap left between the last output-port allocation and
// the start of the admin-address range, so the two ranges never collide
// even as outputs grow across re-resolutions.
const adminSlack = 1000

// Engine is the pure Layout resolver. It holds no mutable state between
// calls; every Resolve is a function of its arguments alone.
type Engine struct {
	// ConfigDirBase and DataDirBase are joined with a node's id to
	// produce its --config-dir/--data-dir arguments. These directories
	// are opaque to the engine; per-service persistence is out of scope.
	ConfigDirBase string
	DataDirBase   string
}

// NewEngine returns an Engine with the conventional config/data roots.
func NewEngine() *Engine {
	return &Engine{
		ConfigDirBase: "/var/lib/trademesh/config",
		DataDirBase:   "/var/lib/trademesh/data",
	}
}

// Resolve turns (layout, catalog, basePort, previous plan) into a
// DeploymentPlan, or a validation/allocation error. It has no I/O and no
// side effects; calling it twice with identical arguments yields a
// bit-for-bit identical plan.
func (e *Engine) Resolve(l Layout, cat *catalog.Catalog, basePort int, prev *DeploymentPlan) (*DeploymentPlan, error) {
	blueprints, err := resolveBlueprints(l, cat)
	if err != nil {
		return nil, err
	}

	if err := validateEdges(l, blueprints); err != nil {
		return nil, err
	}

	if err := validateRequiredInputs(l, blueprints); err != nil {
		return nil, err
	}

	nodeIDs := make([]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	if a, b, collided := detectHashCollisions(nodeIDs); collided {
		return nil, fmt.Errorf("%w: %q and %q", ErrHashCollision, a, b)
	}

	allocations, err := allocateOutputs(l, blueprints, basePort, prev)
	if err != nil {
		return nil, err
	}

	adminAddrs := allocateAdmin(l, basePort, len(allocations))

	services := make(map[string]ServiceConfig, len(l.Nodes))
	for _, n := range l.Nodes {
		bp := blueprints[n.ServiceType]
		desc := mustDescriptor(cat, n.ServiceType)

		bindings, err := buildBindings(n, l, bp, allocations, adminAddrs[n.ID])
		if err != nil {
			return nil, err
		}

		bindingsJSON, err := json.Marshal(bindings)
		if err != nil {
			return nil, fmt.Errorf("layout: marshaling bindings for %q: %w", n.ID, err)
		}

		admin := adminAddrs[n.ID]
		services[n.ID] = ServiceConfig{
			NodeID:      n.ID,
			ServiceType: n.ServiceType,
			BinaryPath:  desc.BinaryPath,
			Env:         map[string]string{},
			AdminAPI:    &admin,
			Args: []string{
				"run",
				"--service-name", n.ID,
				"--service-id", strconv.FormatUint(StableNodeID(n.ID), 10),
				"--bindings", string(bindingsJSON),
				"--config-dir", filepath.Join(e.ConfigDirBase, n.ID),
				"--data-dir", filepath.Join(e.DataDirBase, n.ID),
			},
		}
	}

	return &DeploymentPlan{
		LayoutID:    l.ID,
		Services:    services,
		Allocations: allocations,
	}, nil
}

func resolveBlueprints(l Layout, cat *catalog.Catalog) (map[string]manifest.ServiceBlueprint, error) {
	blueprints := make(map[string]manifest.ServiceBlueprint)
	var missing []string
	for _, n := range l.Nodes {
		if _, ok := blueprints[n.ServiceType]; ok {
			continue
		}
		desc, ok := cat.Get(n.ServiceType)
		if !ok {
			missing = append(missing, n.ServiceType)
			continue
		}
		blueprints[n.ServiceType] = desc.Blueprint
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, validationErrorf("unknown service_type(s): %s", strings.Join(missing, ", "))
	}
	return blueprints, nil
}

func mustDescriptor(cat *catalog.Catalog, serviceType string) manifest.ServiceDescriptor {
	desc, _ := cat.Get(serviceType)
	return desc
}

func validateEdges(l Layout, blueprints map[string]manifest.ServiceBlueprint) error {
	for _, e := range l.Edges {
		src, ok := l.NodeByID(e.SourceNode)
		if !ok {
			return validationErrorf("edge %q references unknown source node %q", e.ID, e.SourceNode)
		}
		dst, ok := l.NodeByID(e.TargetNode)
		if !ok {
			return validationErrorf("edge %q references unknown target node %q", e.ID, e.TargetNode)
		}

		srcPort, ok := blueprints[src.ServiceType].OutputByName(e.SourcePort)
		if !ok {
			return validationErrorf("edge %q: node %q has no output port %q", e.ID, src.ID, e.SourcePort)
		}
		dstPort, ok := blueprints[dst.ServiceType].InputByName(e.TargetPort)
		if !ok {
			return validationErrorf("edge %q: node %q has no input port %q", e.ID, dst.ID, e.TargetPort)
		}

		if srcPort.DataType != dstPort.DataType {
			return validationErrorf("edge %q: data_type mismatch %q != %q", e.ID, srcPort.DataType, dstPort.DataType)
		}
	}
	return nil
}

func validateRequiredInputs(l Layout, blueprints map[string]manifest.ServiceBlueprint) error {
	for _, n := range l.Nodes {
		bp := blueprints[n.ServiceType]
		for _, in := range bp.Inputs {
			if !in.Required || in.IsVariadic {
				continue
			}
			if len(l.EdgesInto(n.ID, in.Name)) == 0 {
				return validationErrorf("node %q: required input %q has no incoming edge", n.ID, in.Name)
			}
		}
	}
	return nil
}

// allocationKey is the canonical "node:port" composite key.
func allocationKey(nodeID, port string) string {
	return nodeID + ":" + port
}

func allocateOutputs(l Layout, blueprints map[string]manifest.ServiceBlueprint, basePort int, prev *DeploymentPlan) (map[string]manifest.Address, error) {
	var keys []string
	for _, n := range l.Nodes {
		for _, out := range blueprints[n.ServiceType].Outputs {
			keys = append(keys, allocationKey(n.ID, out.Name))
		}
	}
	sort.Strings(keys)

	allocations := make(map[string]manifest.Address, len(keys))
	inUse := make(map[string]bool, len(keys))
	required := make(map[string]bool, len(keys))
	for _, k := range keys {
		required[k] = true
	}

	if prev != nil {
		for k, addr := range prev.Allocations {
			if required[k] {
				allocations[k] = addr
				inUse[addr.String()] = true
			}
		}
	}

	port := basePort
	for _, k := range keys {
		if _, ok := allocations[k]; ok {
			continue
		}

		addr, nextPort, err := nextFreeAddress(port, basePort, inUse)
		if err != nil {
			return nil, err
		}
		allocations[k] = addr
		inUse[addr.String()] = true
		port = nextPort
	}

	return allocations, nil
}

func nextFreeAddress(start, basePort int, inUse map[string]bool) (manifest.Address, int, error) {
	for port := start; port < basePort+allocationWindow; port++ {
		addr := manifest.Zmq(fmt.Sprintf("tcp://127.0.0.1:%d", port))
		if !inUse[addr.String()] {
			return addr, port + 1, nil
		}
	}
	return manifest.Address{}, 0, ErrAllocationExhausted
}

// allocateAdmin assigns one admin address per node from a contiguous
// range disjoint from the output-port range.
func allocateAdmin(l Layout, basePort, outputCount int) map[string]manifest.Address {
	ids := make([]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	adminBase := basePort + outputCount + adminSlack
	out := make(map[string]manifest.Address, len(ids))
	for i, id := range ids {
		out[id] = manifest.Zmq(fmt.Sprintf("tcp://127.0.0.1:%d", adminBase+i))
	}
	return out
}

func buildBindings(n Node, l Layout, bp manifest.ServiceBlueprint, allocations map[string]manifest.Address, adminAddr manifest.Address) (manifest.ServiceBindings, error) {
	inputs := make(map[string]manifest.Binding)
	for _, in := range bp.Inputs {
		edges := l.EdgesInto(n.ID, in.Name)
		if len(edges) == 0 {
			continue
		}

		if in.IsVariadic {
			sources := make(map[string]manifest.Source, len(edges))
			for _, e := range edges {
				addr := allocations[allocationKey(e.SourceNode, e.SourcePort)]
				sources[e.SourceNode] = manifest.Source{Address: addr, ID: StableNodeID(e.SourceNode)}
			}
			inputs[in.Name] = manifest.VariadicBinding(sources)
			continue
		}

		if len(edges) > 1 {
			return manifest.ServiceBindings{}, validationErrorf("node %q: non-variadic input %q has %d incoming edges", n.ID, in.Name, len(edges))
		}

		e := edges[0]
		addr := allocations[allocationKey(e.SourceNode, e.SourcePort)]
		inputs[in.Name] = manifest.SingleBinding(manifest.Source{Address: addr, ID: StableNodeID(e.SourceNode)})
	}

	// Reserved admin input: the node's own admin address, tagged id 0.
	inputs["admin"] = manifest.SingleBinding(manifest.Source{Address: adminAddr, ID: 0})

	outputs := make(map[string]manifest.Binding)
	for _, out := range bp.Outputs {
		addr := allocations[allocationKey(n.ID, out.Name)]
		outputs[out.Name] = manifest.SingleBinding(manifest.Source{Address: addr, ID: StableNodeID(n.ID)})
	}

	return manifest.ServiceBindings{Inputs: inputs, Outputs: outputs}, nil
}
