// Command svc-marketdata publishes a synthetic MarketTick feed for a fixed
// symbol book. It has no input ports; its only job is exercising the
// output side of the binding model and the admin registry's editable
// parameters.
package main

import (
	"github.com/ManuMario0/trading-lab-sub000/internal/servicecli"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

const outputTicks = "ticks"

var blueprint = manifest.ServiceBlueprint{
	ServiceType: "marketdata",
	Outputs: []manifest.PortDefinition{
		{Name: outputTicks, DataType: manifest.TypeMarketTick, Required: true},
	},
}

var man = manifest.ServiceManifest{
	Blueprint:   blueprint,
	Version:     "0.1.0",
	Description: "Publishes synthetic MarketTick quotes for a fixed symbol book.",
}

func main() {
	servicecli.Execute(servicecli.New("svc-marketdata", man, run))
}
