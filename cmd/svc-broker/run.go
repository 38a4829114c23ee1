package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/ManuMario0/trading-lab-sub000/internal/servicecli"
	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/microservice"
	"github.com/ManuMario0/trading-lab-sub000/pkg/tradetypes"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

const defaultStartingCash = 100000.0

func run(cfg servicecli.RunConfig) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	adminAddr, err := servicecli.AdminAddress(cfg.Bindings)
	if err != nil {
		return err
	}

	ordersRecv, err := transport.NewReceiverSocket[tradetypes.OrderIntent](manifest.EmptyAddress, manifest.TypeOrderIntent)
	if err != nil {
		return err
	}
	for _, src := range servicecli.VariadicSources(cfg.Bindings, inputOrders) {
		if err := ordersRecv.Connect(src.Address, src.ID); err != nil {
			return err
		}
	}

	fillsAddr, err := servicecli.SingleOutput(cfg.Bindings, outputFills)
	if err != nil {
		return err
	}
	fillsSender, err := transport.NewSenderSocket[tradetypes.Fill](fillsAddr, manifest.TypeFill)
	if err != nil {
		return err
	}
	defer fillsSender.Close()

	portfolioAddr, err := servicecli.SingleOutput(cfg.Bindings, outputPortfolio)
	if err != nil {
		return err
	}
	portfolioSender, err := transport.NewSenderSocket[tradetypes.PortfolioState](portfolioAddr, manifest.TypePortfolioState)
	if err != nil {
		return err
	}
	defer portfolioSender.Close()

	riskAddr, err := servicecli.SingleOutput(cfg.Bindings, outputRisk)
	if err != nil {
		return err
	}
	riskSender, err := transport.NewSenderSocket[tradetypes.RiskVerdict](riskAddr, manifest.TypeRiskVerdict)
	if err != nil {
		return err
	}
	defer riskSender.Close()

	registry := microservice.NewRegistry()
	book := newLedgerBook(registry)

	h, err := microservice.New(cfg.ServiceName, cfg.ServiceID, adminAddr, cfg.Bindings, registry)
	if err != nil {
		return err
	}

	runner := microservice.NewInputRunner(ordersRecv, func(sourceID uint64, order tradetypes.OrderIntent) {
		book.handleOrder(order, riskSender, fillsSender, portfolioSender)
	})
	h.RegisterInput(inputOrders, ordersRecv, runner)

	return h.Run(ctx)
}

// ledger is one strategy's cash and position book.
type ledger struct {
	cash      float64
	positions map[string]float64
}

// ledgerBook tracks every connected strategy's ledger and the shared risk
// limits every order is checked against.
type ledgerBook struct {
	mu           sync.Mutex
	ledgers      map[string]*ledger
	startingCash float64
	maxPosition  float64
}

func newLedgerBook(reg *microservice.Registry) *ledgerBook {
	b := &ledgerBook{
		ledgers:      make(map[string]*ledger),
		startingCash: defaultStartingCash,
		maxPosition:  1000,
	}
	reg.Register(microservice.Parameter{
		Name:        "max_position",
		Description: "maximum absolute shares of one symbol a single strategy may hold",
		Type:        microservice.ParamFloat,
		Default:     strconv.FormatFloat(b.maxPosition, 'f', -1, 64),
		Editable:    true,
	}, func(value string) error {
		max, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.maxPosition = max
		b.mu.Unlock()
		return nil
	})
	return b
}

func (b *ledgerBook) ledgerFor(strategyID string) *ledger {
	l, ok := b.ledgers[strategyID]
	if !ok {
		l = &ledger{cash: b.startingCash, positions: make(map[string]float64)}
		b.ledgers[strategyID] = l
	}
	return l
}

func (b *ledgerBook) handleOrder(
	order tradetypes.OrderIntent,
	riskSender *transport.SenderSocket[tradetypes.RiskVerdict],
	fillsSender *transport.SenderSocket[tradetypes.Fill],
	portfolioSender *transport.SenderSocket[tradetypes.PortfolioState],
) {
	l := log.WithComponent("svc-broker")

	b.mu.Lock()
	led := b.ledgerFor(order.StrategyID)
	verdict := b.assess(led, order)
	b.mu.Unlock()

	if err := riskSender.Send(verdict); err != nil {
		l.Warn().Err(err).Msg("risk verdict send failed")
	}
	if !verdict.Accepted {
		return
	}

	b.mu.Lock()
	fill := b.apply(led, order)
	snapshot := snapshotOf(order.StrategyID, led)
	b.mu.Unlock()

	if err := fillsSender.Send(fill); err != nil {
		l.Warn().Err(err).Msg("fill send failed")
	}
	if err := portfolioSender.Send(snapshot); err != nil {
		l.Warn().Err(err).Msg("portfolio send failed")
	}
}

// assess runs the risk check; the caller already holds b.mu.
func (b *ledgerBook) assess(led *ledger, order tradetypes.OrderIntent) tradetypes.RiskVerdict {
	base := tradetypes.RiskVerdict{
		Symbol:     order.Symbol,
		StrategyID: order.StrategyID,
		Timestamp:  time.Now(),
	}
	if order.Quantity <= 0 {
		base.Reason = "non-positive quantity"
		return base
	}

	projected := led.positions[order.Symbol]
	if order.Side == tradetypes.SideBuy {
		projected += order.Quantity
	} else {
		projected -= order.Quantity
	}
	if projected > b.maxPosition || projected < -b.maxPosition {
		base.Reason = "exceeds max_position"
		return base
	}
	if order.Side == tradetypes.SideBuy && order.Quantity*order.LimitPrice > led.cash {
		base.Reason = "insufficient cash"
		return base
	}

	base.Accepted = true
	return base
}

// apply fills the order against led; the caller already holds b.mu.
func (b *ledgerBook) apply(led *ledger, order tradetypes.OrderIntent) tradetypes.Fill {
	notional := order.Quantity * order.LimitPrice
	if order.Side == tradetypes.SideBuy {
		led.cash -= notional
		led.positions[order.Symbol] += order.Quantity
	} else {
		led.cash += notional
		led.positions[order.Symbol] -= order.Quantity
	}

	return tradetypes.Fill{
		Symbol:     order.Symbol,
		Side:       order.Side,
		Quantity:   order.Quantity,
		Price:      order.LimitPrice,
		OrderID:    order.StrategyID + ":" + order.Symbol + ":" + strconv.FormatInt(time.Now().UnixNano(), 10),
		StrategyID: order.StrategyID,
		Timestamp:  time.Now(),
	}
}

func snapshotOf(strategyID string, led *ledger) tradetypes.PortfolioState {
	positions := make(map[string]float64, len(led.positions))
	for k, v := range led.positions {
		positions[k] = v
	}
	return tradetypes.PortfolioState{
		StrategyID: strategyID,
		Cash:       led.cash,
		Positions:  positions,
		Timestamp:  time.Now(),
	}
}
