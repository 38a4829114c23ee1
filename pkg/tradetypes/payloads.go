// Package tradetypes holds the concrete Go payload types carried over
// typed transport sockets whose data_type tag is one of the constants in
// pkg/manifest/typetags.go. The tag identifies the wire shape; these
// structs are what SenderSocket/ReceiverSocket actually gob-encode.
package tradetypes

import "time"

// MarketTick is one price observation for a symbol.
type MarketTick struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Side is the direction of an OrderIntent.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderIntent is a strategy's request to trade, before any risk check.
type OrderIntent struct {
	Symbol    string
	Side      Side
	Quantity  float64
	LimitPrice float64
	StrategyID string
	Timestamp time.Time
}

// RiskVerdict is the risk service's accept/reject decision on an
// OrderIntent, identified by the same StrategyID/Symbol pairing.
type RiskVerdict struct {
	Accepted   bool
	Reason     string
	Symbol     string
	StrategyID string
	Timestamp  time.Time
}

// Fill is a completed (partial or full) execution of an order.
type Fill struct {
	Symbol     string
	Side       Side
	Quantity   float64
	Price      float64
	OrderID    string
	StrategyID string
	Timestamp  time.Time
}

// PortfolioState is a point-in-time snapshot of one strategy's holdings,
// published by the broker gateway for strategies and risk to consume.
type PortfolioState struct {
	StrategyID string
	Cash       float64
	Positions  map[string]float64
	Timestamp  time.Time
}
