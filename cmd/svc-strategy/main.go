// Command svc-strategy is a simple momentum strategy: it watches a
// MarketTick feed and a PortfolioState feed, and emits an OrderIntent
// whenever a symbol's price has moved past a configurable threshold since
// the last observed tick.
package main

import (
	"github.com/ManuMario0/trading-lab-sub000/internal/servicecli"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

const (
	inputTicks     = "ticks"
	inputPortfolio = "portfolio"
	outputOrders   = "orders"
)

var blueprint = manifest.ServiceBlueprint{
	ServiceType: "strategy",
	Inputs: []manifest.PortDefinition{
		{Name: inputTicks, DataType: manifest.TypeMarketTick, Required: true},
		{Name: inputPortfolio, DataType: manifest.TypePortfolioState, Required: true},
	},
	Outputs: []manifest.PortDefinition{
		{Name: outputOrders, DataType: manifest.TypeOrderIntent, Required: true},
	},
}

var man = manifest.ServiceManifest{
	Blueprint:   blueprint,
	Version:     "0.1.0",
	Description: "Momentum strategy: emits an OrderIntent on significant price moves.",
}

func main() {
	servicecli.Execute(servicecli.New("svc-strategy", man, run))
}
