package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuMario0/trading-lab-sub000/internal/testutil"
	"github.com/ManuMario0/trading-lab-sub000/pkg/catalog"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

func marketdataDescriptor() manifest.ServiceDescriptor { return testutil.MarketDataDescriptor() }

func twoNodeLayout() Layout { return testutil.TwoNodeLayout() }

func newTestCatalog() *catalog.Catalog { return testutil.NewCatalog() }

func TestResolveHappyPath(t *testing.T) {
	eng := NewEngine()
	cat := newTestCatalog()

	plan, err := eng.Resolve(twoNodeLayout(), cat, 15000, nil)
	require.NoError(t, err)

	require.Contains(t, plan.Services, "md1")
	require.Contains(t, plan.Services, "strat1")
	assert.Equal(t, "/bin/svc-marketdata", plan.Services["md1"].BinaryPath)
	assert.Equal(t, "/bin/svc-strategy", plan.Services["strat1"].BinaryPath)

	// md1's ticks output must be allocated a non-empty address.
	outAddr, ok := plan.Allocations["md1:ticks"]
	require.True(t, ok)
	assert.NotEqual(t, manifest.Address{}, outAddr)
}

// Determinism (P3): resolving the same inputs twice yields identical plans.
func TestResolveIsDeterministic(t *testing.T) {
	eng := NewEngine()
	cat := newTestCatalog()
	l := twoNodeLayout()

	p1, err := eng.Resolve(l, cat, 15000, nil)
	require.NoError(t, err)
	p2, err := eng.Resolve(l, cat, 15000, nil)
	require.NoError(t, err)

	assert.Equal(t, p1.Allocations, p2.Allocations)
	assert.Equal(t, p1.Services, p2.Services)
}

// Address stability (P4): adding a new node sharing an existing node's
// output leaves that output's address unchanged across re-resolution.
func TestResolvePreservesAddressAcrossReResolution(t *testing.T) {
	eng := NewEngine()
	cat := newTestCatalog()

	l1 := Layout{
		ID:    "L1",
		Nodes: []Node{{ID: "md1", ServiceType: "marketdata"}},
	}
	p1, err := eng.Resolve(l1, cat, 15000, nil)
	require.NoError(t, err)
	firstAddr := p1.Allocations["md1:ticks"]

	l2 := Layout{
		ID: "L1",
		Nodes: []Node{
			{ID: "md1", ServiceType: "marketdata"},
			{ID: "md2", ServiceType: "marketdata"},
		},
	}
	p2, err := eng.Resolve(l2, cat, 15000, p1)
	require.NoError(t, err)

	assert.Equal(t, firstAddr, p2.Allocations["md1:ticks"])
	assert.NotEqual(t, firstAddr, p2.Allocations["md2:ticks"])
}

// Required-input safety (P6): a required, non-variadic input with no
// incoming edge must fail resolution.
func TestResolveRejectsMissingRequiredInput(t *testing.T) {
	eng := NewEngine()
	cat := newTestCatalog()

	l := Layout{
		ID:    "L1",
		Nodes: []Node{{ID: "strat1", ServiceType: "strategy"}},
	}

	_, err := eng.Resolve(l, cat, 15000, nil)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestResolveRejectsUnknownServiceType(t *testing.T) {
	eng := NewEngine()
	cat := catalog.New()

	l := Layout{ID: "L1", Nodes: []Node{{ID: "n1", ServiceType: "unknown"}}}

	_, err := eng.Resolve(l, cat, 15000, nil)
	assert.Error(t, err)
}

func TestResolveRejectsEdgeDataTypeMismatch(t *testing.T) {
	eng := NewEngine()
	cat := catalog.New()
	cat.Register(marketdataDescriptor())
	cat.Register(manifest.ServiceDescriptor{
		Blueprint: manifest.ServiceBlueprint{
			ServiceType: "broker",
			Inputs: []manifest.PortDefinition{
				{Name: "orders", DataType: "OrderIntent"},
			},
		},
		BinaryPath: "/bin/svc-broker",
	})

	l := Layout{
		ID: "L1",
		Nodes: []Node{
			{ID: "md1", ServiceType: "marketdata"},
			{ID: "b1", ServiceType: "broker"},
		},
		Edges: []Edge{
			{ID: "e1", SourceNode: "md1", SourcePort: "ticks", TargetNode: "b1", TargetPort: "orders"},
		},
	}

	_, err := eng.Resolve(l, cat, 15000, nil)
	assert.Error(t, err)
}

func TestResolveBuildsReservedAdminInput(t *testing.T) {
	eng := NewEngine()
	cat := newTestCatalog()

	plan, err := eng.Resolve(twoNodeLayout(), cat, 15000, nil)
	require.NoError(t, err)

	require.NotNil(t, plan.Services["md1"].AdminAPI)
	adminAddr := *plan.Services["md1"].AdminAPI
	assert.NotEqual(t, manifest.Address{}, adminAddr)
}
