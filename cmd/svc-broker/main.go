// Command svc-broker is the execution venue: it accepts OrderIntents from
// one or more strategies, runs a minimal risk check per order, fills
// accepted orders against their limit price, and republishes each
// strategy's updated PortfolioState.
package main

import (
	"github.com/ManuMario0/trading-lab-sub000/internal/servicecli"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

const (
	inputOrders     = "orders"
	outputFills     = "fills"
	outputPortfolio = "portfolio"
	outputRisk      = "risk"
)

var blueprint = manifest.ServiceBlueprint{
	ServiceType: "broker",
	Inputs: []manifest.PortDefinition{
		{Name: inputOrders, DataType: manifest.TypeOrderIntent, Required: true, IsVariadic: true},
	},
	Outputs: []manifest.PortDefinition{
		{Name: outputFills, DataType: manifest.TypeFill, Required: true},
		{Name: outputPortfolio, DataType: manifest.TypePortfolioState, Required: true},
		{Name: outputRisk, DataType: manifest.TypeRiskVerdict, Required: true},
	},
}

var man = manifest.ServiceManifest{
	Blueprint:   blueprint,
	Version:     "0.1.0",
	Description: "Execution venue: risk-checks, fills, and republishes portfolio state for every connected strategy.",
}

func main() {
	servicecli.Execute(servicecli.New("svc-broker", man, run))
}
