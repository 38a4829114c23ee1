// Package testutil holds reusable builders for sample catalogs and
// layouts, mirroring the role of the teacher's test/framework package:
// one shared place for the service descriptors and node graphs that
// package tests would otherwise each define for themselves.
package testutil

import (
	"github.com/ManuMario0/trading-lab-sub000/pkg/catalog"
	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// MarketDataDescriptor returns a sample "marketdata" service with a
// single "ticks" output port.
func MarketDataDescriptor() manifest.ServiceDescriptor {
	return manifest.ServiceDescriptor{
		Blueprint: manifest.ServiceBlueprint{
			ServiceType: "marketdata",
			Outputs: []manifest.PortDefinition{
				{Name: "ticks", DataType: "MarketTick", Required: true},
			},
		},
		BinaryPath: "/bin/svc-marketdata",
	}
}

// StrategyDescriptor returns a sample "strategy" service wired to
// consume "ticks" and produce "orders".
func StrategyDescriptor() manifest.ServiceDescriptor {
	return manifest.ServiceDescriptor{
		Blueprint: manifest.ServiceBlueprint{
			ServiceType: "strategy",
			Inputs: []manifest.PortDefinition{
				{Name: "ticks", DataType: "MarketTick", Required: true},
			},
			Outputs: []manifest.PortDefinition{
				{Name: "orders", DataType: "OrderIntent"},
			},
		},
		BinaryPath: "/bin/svc-strategy",
	}
}

// OneNodeLayout returns a single-node layout over MarketDataDescriptor,
// with no edges.
func OneNodeLayout() layout.Layout {
	return layout.Layout{
		ID:    "L1",
		Nodes: []layout.Node{{ID: "md1", ServiceType: "marketdata"}},
	}
}

// TwoNodeLayout returns a marketdata -> strategy layout, wired through
// the "ticks" port on both sides.
func TwoNodeLayout() layout.Layout {
	return layout.Layout{
		ID: "L1",
		Nodes: []layout.Node{
			{ID: "md1", ServiceType: "marketdata"},
			{ID: "strat1", ServiceType: "strategy"},
		},
		Edges: []layout.Edge{
			{ID: "e1", SourceNode: "md1", SourcePort: "ticks", TargetNode: "strat1", TargetPort: "ticks"},
		},
	}
}

// NewCatalog returns a Catalog seeded with MarketDataDescriptor and
// StrategyDescriptor, the pair most tests in this module need.
func NewCatalog() *catalog.Catalog {
	cat := catalog.New()
	cat.Register(MarketDataDescriptor())
	cat.Register(StrategyDescriptor())
	return cat
}
