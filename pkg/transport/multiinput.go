package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// MultiInput is the concrete TransportInput handed to every receiver: a
// single logical port that can aggregate producers reachable over
// net-backed zmq addresses and in-process mem addresses side by side,
// since a variadic port's sources are not constrained to one transport
// kind.
type MultiInput struct {
	mu      sync.Mutex
	conns   map[uint64]net.Conn
	memSubs map[uint64]*memSub
	frames  chan Frame
	closed  bool
}

func newMultiInput() *MultiInput {
	return &MultiInput{
		conns:   make(map[uint64]net.Conn),
		memSubs: make(map[uint64]*memSub),
		frames:  make(chan Frame, 64),
	}
}

// Connect adds a new producer, dispatching on the address kind.
func (m *MultiInput) Connect(addr manifest.Address, sourceID uint64) error {
	switch addr.Kind {
	case manifest.AddressZmq:
		conn, err := net.Dial("tcp", endpointAddr(addr.Endpoint))
		if err != nil {
			return fmt.Errorf("transport: connect %s: %w", addr, err)
		}
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			conn.Close()
			return fmt.Errorf("transport: input closed")
		}
		m.conns[sourceID] = conn
		m.mu.Unlock()
		go m.readLoop(conn, sourceID)
		return nil

	case manifest.AddressMemory:
		hub := getOrCreateHub(addr.Name)
		sub := &memSub{frames: m.frames, id: sourceID}
		hub.mu.Lock()
		hub.subs[sub] = struct{}{}
		hub.mu.Unlock()
		m.mu.Lock()
		m.memSubs[sourceID] = sub
		m.mu.Unlock()
		return nil

	case manifest.AddressEmpty:
		return nil

	default:
		return fmt.Errorf("transport: cannot connect to %v", addr)
	}
}

func (m *MultiInput) readLoop(conn net.Conn, sourceID uint64) {
	for {
		payload, err := readFrame(conn)
		if err != nil {
			return
		}
		select {
		case m.frames <- Frame{Payload: payload, SourceID: sourceID}:
		default:
		}
	}
}

// Disconnect removes a previously connected producer, whichever kind it was.
func (m *MultiInput) Disconnect(sourceID uint64) error {
	m.mu.Lock()
	conn, hasConn := m.conns[sourceID]
	delete(m.conns, sourceID)
	sub, hasSub := m.memSubs[sourceID]
	delete(m.memSubs, sourceID)
	m.mu.Unlock()

	if hasConn {
		conn.Close()
	}
	if hasSub {
		memRegistry.mu.Lock()
		hubs := make([]*memHub, 0, len(memRegistry.hubs))
		for _, h := range memRegistry.hubs {
			hubs = append(hubs, h)
		}
		memRegistry.mu.Unlock()
		for _, h := range hubs {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
		}
	}
	return nil
}

// Recv blocks until a frame arrives or ctx is done.
func (m *MultiInput) Recv(ctx context.Context) (Frame, error) {
	select {
	case f := <-m.frames:
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// TryRecv returns immediately with ok=false if no frame is queued.
func (m *MultiInput) TryRecv() (Frame, bool) {
	select {
	case f := <-m.frames:
		return f, true
	default:
		return Frame{}, false
	}
}

// Close disconnects every producer, net-backed or in-process.
func (m *MultiInput) Close() error {
	m.mu.Lock()
	m.closed = true
	ids := make([]uint64, 0, len(m.conns)+len(m.memSubs))
	for id := range m.conns {
		ids = append(ids, id)
	}
	for id := range m.memSubs {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Disconnect(id)
	}
	return nil
}
