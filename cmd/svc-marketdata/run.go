package main

import (
	"context"
	"math/rand"
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

var bookSymbols = []string{"AAPL", "MSFT", "SPY"}

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

	outAddr, err := servicecli.SingleOutput(cfg.Bindings, outputTicks)
	if err != nil {
		return err
	}
	sender, err := transport.NewSenderSocket[tradetypes.MarketTick](outAddr, manifest.TypeMarketTick)
	if err != nil {
		return err
	}
	defer sender.Close()

	registry := microservice.NewRegistry()
	interval := newIntervalParam(registry, 500*time.Millisecond)

	h, err := microservice.New(cfg.ServiceName, cfg.ServiceID, adminAddr, cfg.Bindings, registry)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		publishTicks(ctx, sender, interval)
	}()

	err = h.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// intervalParam holds the mutable tick interval behind a mutex so the
// admin thread's UpdateRegistry call and the publishing goroutine never
// race on it.
type intervalParam struct {
	mu sync.Mutex
	d  time.Duration
}

func newIntervalParam(reg *microservice.Registry, initial time.Duration) *intervalParam {
	p := &intervalParam{d: initial}
	reg.Register(microservice.Parameter{
		Name:        "tick_interval_ms",
		Description: "milliseconds between synthetic MarketTick publications",
		Type:        microservice.ParamInt,
		Default:     strconv.FormatInt(initial.Milliseconds(), 10),
		Editable:    true,
	}, func(value string) error {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		p.set(time.Duration(ms) * time.Millisecond)
		return nil
	})
	return p
}

func (p *intervalParam) get() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.d
}

func (p *intervalParam) set(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.d = d
}

func publishTicks(ctx context.Context, sender *transport.SenderSocket[tradetypes.MarketTick], interval *intervalParam) {
	l := log.WithComponent("svc-marketdata")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	prices := map[string]float64{"AAPL": 190, "MSFT": 410, "SPY": 520}

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval.get()):
		}

		for _, sym := range bookSymbols {
			prices[sym] += (rng.Float64() - 0.5) * 0.5
			if prices[sym] < 1 {
				prices[sym] = 1
			}
			tick := tradetypes.MarketTick{
				Symbol:    sym,
				Price:     prices[sym],
				Volume:    rng.Float64() * 1000,
				Timestamp: time.Now(),
			}
			if err := sender.Send(tick); err != nil {
				l.Warn().Err(err).Str("symbol", sym).Msg("tick send failed")
			}
		}
	}
}
