// Package layout implements the pure resolver that turns a user-authored
// node-and-edge graph plus a service catalog into a concrete deployment
// plan: per-node binary, arguments, environment, and allocated transport
// addresses.
package layout

import "github.com/ManuMario0/trading-lab-sub000/pkg/manifest"

// Node is one vertex of a user-authored Layout: a unique id, a display
// name, and the catalog service_type it instantiates.
type Node struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	ServiceType string `json:"service_type" yaml:"service_type"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Edge connects one node's output port to another node's input port.
type Edge struct {
	ID         string `json:"id" yaml:"id"`
	SourceNode string `json:"source_node" yaml:"source_node"`
	SourcePort string `json:"source_port" yaml:"source_port"`
	TargetNode string `json:"target_node" yaml:"target_node"`
	TargetPort string `json:"target_port" yaml:"target_port"`
}

// Layout is the persisted, user-authored graph: the input to the Layout
// Engine.
type Layout struct {
	ID    string `json:"id" yaml:"id"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// NodeByID returns the node with the given id, or false if absent.
func (l Layout) NodeByID(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgesInto returns every edge whose target is (nodeID, port), in layout
// order.
func (l Layout) EdgesInto(nodeID, port string) []Edge {
	var out []Edge
	for _, e := range l.Edges {
		if e.TargetNode == nodeID && e.TargetPort == port {
			out = append(out, e)
		}
	}
	return out
}

// ServiceConfig is the fully resolved launch spec for one node, produced
// by the Layout Engine and consumed by a ServiceProvider.
type ServiceConfig struct {
	NodeID      string            `json:"node_id"`
	ServiceType string            `json:"service_type"`
	BinaryPath  string            `json:"binary_path"`
	Args        []string          `json:"args"`
	Env         map[string]string `json:"env"`
	AdminAPI    *manifest.Address `json:"admin_api,omitempty"`
}

// DeploymentPlan is the fully resolved set of process invocations and
// address allocations for one Layout.
type DeploymentPlan struct {
	LayoutID    string                            `json:"layout_id"`
	Services    map[string]ServiceConfig          `json:"services"`
	Allocations map[string]manifest.Address       `json:"allocations"`
}

// PlanDiff is the transient result of comparing two DeploymentPlans for
// one reconciliation step.
type PlanDiff struct {
	ToSpawn       []string
	ToKill        []string
	ToReconfigure []ReconfigureAction
}

// ReconfigureAction pairs a node id with the new ServiceConfig it should
// be hot-reloaded to via admin UpdateBindings.
type ReconfigureAction struct {
	NodeID string
	Config ServiceConfig
}

// IsEmpty reports whether the diff requires no action at all.
func (d PlanDiff) IsEmpty() bool {
	return len(d.ToSpawn) == 0 && len(d.ToKill) == 0 && len(d.ToReconfigure) == 0
}
