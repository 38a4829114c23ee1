package transport

import (
	"fmt"
	"sync"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// memRegistry is a package-level directory of named in-process channels,
// used by mem: addresses for same-process test wiring and the
// microservice harness's own loopback cases.
var memRegistry = struct {
	mu   sync.Mutex
	hubs map[string]*memHub
}{hubs: make(map[string]*memHub)}

type memHub struct {
	mu   sync.Mutex
	subs map[*memSub]struct{}
}

// memSub is one subscriber's registration on one hub: the frames channel
// to deliver into and the source id to tag each frame with. The receive
// side (MultiInput) owns the channel; memSub never reads it.
type memSub struct {
	frames chan Frame
	id     uint64
}

func (s *memSub) deliver(payload []byte) {
	select {
	case s.frames <- Frame{Payload: payload, SourceID: s.id}:
	default:
		// Subscriber not keeping up: drop, pub/sub is at-most-once.
	}
}

func getOrCreateHub(name string) *memHub {
	memRegistry.mu.Lock()
	defer memRegistry.mu.Unlock()
	h, ok := memRegistry.hubs[name]
	if !ok {
		h = &memHub{subs: make(map[*memSub]struct{})}
		memRegistry.hubs[name] = h
	}
	return h
}

// MemPublisher is a TransportOutput backed by an in-process hub.
type MemPublisher struct {
	hub *memHub
}

// BindMemPublisher registers the publishing side of a named in-process
// channel. Unlike PublisherSocket, "bind" here just means first use of
// the name; there is no listener that can fail.
func BindMemPublisher(addr manifest.Address) (*MemPublisher, error) {
	if addr.Kind != manifest.AddressMemory {
		return nil, fmt.Errorf("transport: BindMemPublisher requires a mem address, got %v", addr)
	}
	return &MemPublisher{hub: getOrCreateHub(addr.Name)}, nil
}

// Send broadcasts payload to every subscriber currently registered on
// the hub.
func (p *MemPublisher) Send(payload []byte) error {
	p.hub.mu.Lock()
	defer p.hub.mu.Unlock()
	for sub := range p.hub.subs {
		sub.deliver(payload)
	}
	return nil
}

// Close is a no-op: the hub outlives any one publisher.
func (p *MemPublisher) Close() error { return nil }
