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

// defaultMoveThresholdBps is the minimum basis-point price move that
// triggers an order, before any registry override.
const defaultMoveThresholdBps = 50

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

	ticksSrc, err := servicecli.SingleInput(cfg.Bindings, inputTicks)
	if err != nil {
		return err
	}
	ticksRecv, err := transport.NewReceiverSocket[tradetypes.MarketTick](manifest.EmptyAddress, manifest.TypeMarketTick)
	if err != nil {
		return err
	}
	if err := ticksRecv.Connect(ticksSrc.Address, ticksSrc.ID); err != nil {
		return err
	}

	portfolioSrc, err := servicecli.SingleInput(cfg.Bindings, inputPortfolio)
	if err != nil {
		return err
	}
	portfolioRecv, err := transport.NewReceiverSocket[tradetypes.PortfolioState](manifest.EmptyAddress, manifest.TypePortfolioState)
	if err != nil {
		return err
	}
	if err := portfolioRecv.Connect(portfolioSrc.Address, portfolioSrc.ID); err != nil {
		return err
	}

	ordersAddr, err := servicecli.SingleOutput(cfg.Bindings, outputOrders)
	if err != nil {
		return err
	}
	ordersSender, err := transport.NewSenderSocket[tradetypes.OrderIntent](ordersAddr, manifest.TypeOrderIntent)
	if err != nil {
		return err
	}
	defer ordersSender.Close()

	registry := microservice.NewRegistry()
	strat := newStrategyState(cfg.ServiceName, registry)

	h, err := microservice.New(cfg.ServiceName, cfg.ServiceID, adminAddr, cfg.Bindings, registry)
	if err != nil {
		return err
	}

	ticksRunner := microservice.NewInputRunner(ticksRecv, func(sourceID uint64, tick tradetypes.MarketTick) {
		strat.onTick(tick, ordersSender)
	})
	portfolioRunner := microservice.NewInputRunner(portfolioRecv, func(sourceID uint64, p tradetypes.PortfolioState) {
		strat.onPortfolio(p)
	})

	h.RegisterInput(inputTicks, ticksRecv, ticksRunner)
	h.RegisterInput(inputPortfolio, portfolioRecv, portfolioRunner)

	return h.Run(ctx)
}

// strategyState tracks the last observed price per symbol and the most
// recent portfolio snapshot, guarded by mu since ticks and portfolio
// updates arrive on independent runner goroutines.
type strategyState struct {
	strategyID string

	mu           sync.Mutex
	lastPrice    map[string]float64
	thresholdBps float64
	cashSnapshot float64
}

func newStrategyState(strategyID string, reg *microservice.Registry) *strategyState {
	s := &strategyState{
		strategyID:   strategyID,
		lastPrice:    make(map[string]float64),
		thresholdBps: defaultMoveThresholdBps,
	}
	reg.Register(microservice.Parameter{
		Name:        "move_threshold_bps",
		Description: "minimum basis-point price move that triggers an order",
		Type:        microservice.ParamFloat,
		Default:     strconv.FormatFloat(defaultMoveThresholdBps, 'f', -1, 64),
		Editable:    true,
	}, func(value string) error {
		bps, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.thresholdBps = bps
		s.mu.Unlock()
		return nil
	})
	return s
}

func (s *strategyState) onPortfolio(p tradetypes.PortfolioState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cashSnapshot = p.Cash
}

func (s *strategyState) onTick(tick tradetypes.MarketTick, sender *transport.SenderSocket[tradetypes.OrderIntent]) {
	l := log.WithComponent("svc-strategy")

	s.mu.Lock()
	prev, seen := s.lastPrice[tick.Symbol]
	s.lastPrice[tick.Symbol] = tick.Price
	threshold := s.thresholdBps
	cash := s.cashSnapshot
	s.mu.Unlock()

	if !seen || prev == 0 {
		return
	}

	moveBps := (tick.Price - prev) / prev * 10000
	if moveBps < threshold && moveBps > -threshold {
		return
	}

	side := tradetypes.SideBuy
	if moveBps < 0 {
		side = tradetypes.SideSell
	}

	qty := 10.0
	if side == tradetypes.SideBuy && cash > 0 && cash < qty*tick.Price {
		qty = cash / tick.Price
	}
	if qty <= 0 {
		return
	}

	order := tradetypes.OrderIntent{
		Symbol:     tick.Symbol,
		Side:       side,
		Quantity:   qty,
		LimitPrice: tick.Price,
		StrategyID: s.strategyID,
		Timestamp:  time.Now(),
	}
	if err := sender.Send(order); err != nil {
		l.Warn().Err(err).Str("symbol", tick.Symbol).Msg("order send failed")
	}
}
