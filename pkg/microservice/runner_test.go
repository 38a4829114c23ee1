package microservice

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

// P9: frames handed to one port's handler are delivered strictly in the
// order they were sent, never overlapping with themselves.
func TestInputRunnerDeliversInOrder(t *testing.T) {
	addr := manifest.Memory("runner-order-test")
	pub, err := transport.NewSenderSocket[int](addr, "Tick")
	require.NoError(t, err)

	recv, err := transport.NewReceiverSocket[int](manifest.EmptyAddress, "Tick")
	require.NoError(t, err)
	require.NoError(t, recv.Connect(addr, 1))

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	runner := NewInputRunner(recv, func(sourceID uint64, value int) {
		mu.Lock()
		got = append(got, value)
		n := len(got)
		mu.Unlock()
		if n == 5 {
			close(done)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Send(i))
		time.Sleep(time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}

	runner.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

// A handler panic must terminate only this runner, not the process: the
// panic is recovered, doneCh still closes, and Stop still returns.
func TestInputRunnerHandlerPanicStopsOnlyThisRunner(t *testing.T) {
	addr := manifest.Memory("runner-panic-test")
	pub, err := transport.NewSenderSocket[int](addr, "Tick")
	require.NoError(t, err)

	recv, err := transport.NewReceiverSocket[int](manifest.EmptyAddress, "Tick")
	require.NoError(t, err)
	require.NoError(t, recv.Connect(addr, 1))

	var calls int32
	runner := NewInputRunner(recv, func(sourceID uint64, value int) {
		atomic.AddInt32(&calls, 1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)

	require.NotPanics(t, func() {
		require.NoError(t, pub.Send(1))
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after handler panic")
	}

	// A second send must not be observed: the runner already exited its
	// receive loop after recovering the panic.
	require.NoError(t, pub.Send(2))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInputRunnerStopIsClean(t *testing.T) {
	addr := manifest.Memory("runner-stop-test")
	recv, err := transport.NewReceiverSocket[int](manifest.EmptyAddress, "Tick")
	require.NoError(t, err)
	require.NoError(t, recv.Connect(addr, 1))

	runner := NewInputRunner(recv, func(sourceID uint64, value int) {})

	ctx := context.Background()
	runner.Start(ctx)

	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
