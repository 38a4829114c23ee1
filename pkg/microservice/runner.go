package microservice

import (
	"context"

	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

// InputRunner is the concrete PortRunner for one typed input port: a
// single goroutine that pulls frames off recv strictly sequentially and
// hands each to handle, matching the harness's "handlers for one port
// never overlap with themselves" invariant.
type InputRunner[T any] struct {
	recv   *transport.ReceiverSocket[T]
	handle func(sourceID uint64, value T)
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewInputRunner builds a runner over recv. handle is called once per
// received frame, on the runner's own goroutine. A panicking handler
// stops only this runner; it is recovered and logged rather than
// propagated.
func NewInputRunner[T any](recv *transport.ReceiverSocket[T], handle func(sourceID uint64, value T)) *InputRunner[T] {
	return &InputRunner[T]{recv: recv, handle: handle, doneCh: make(chan struct{})}
}

// Start begins pulling frames. Safe to call exactly once.
func (r *InputRunner[T]) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.run(runCtx)
}

func (r *InputRunner[T]) run(ctx context.Context) {
	defer close(r.doneCh)
	for {
		frame, err := r.recv.Recv(ctx)
		if err != nil {
			return
		}
		if r.invoke(frame) {
			return
		}
	}
}

// invoke calls handle for one frame, recovering a panic so it terminates
// only this runner: doneCh still closes, leaving the admin channel (and
// the rest of the process) unaffected.
func (r *InputRunner[T]) invoke(frame transport.TypedFrame[T]) (panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithComponent("microservice").Error().Interface("panic", rec).Msg("input runner handler panicked, stopping this runner")
			panicked = true
		}
	}()
	r.handle(frame.SourceID, frame.Value)
	return false
}

// Stop cancels the runner's receive loop and waits for it to exit, then
// closes the underlying receiver, disconnecting every producer.
func (r *InputRunner[T]) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.doneCh
	r.recv.Close()
}
