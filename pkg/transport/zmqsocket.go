package transport

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// endpointAddr strips the "tcp://" scheme a Zmq-kind Address carries,
// returning the bare host:port net.Dial/net.Listen expect.
func endpointAddr(endpoint string) string {
	return strings.TrimPrefix(endpoint, "tcp://")
}

// PublisherSocket is a TransportOutput that binds a TCP listener and
// broadcasts every Send to all currently connected subscribers. Bind
// happens at construction; callers treat bind failure as fatal at
// process startup per the transport's bind/connect discipline.
type PublisherSocket struct {
	listener net.Listener
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	closed   bool
}

// BindPublisher opens a listening socket at addr's endpoint.
func BindPublisher(addr manifest.Address) (*PublisherSocket, error) {
	if addr.Kind != manifest.AddressZmq {
		return nil, fmt.Errorf("transport: BindPublisher requires a zmq address, got %v", addr)
	}
	ln, err := net.Listen("tcp", endpointAddr(addr.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("transport: bind %s: %w", addr, err)
	}
	p := &PublisherSocket{listener: ln, conns: make(map[net.Conn]struct{})}
	go p.acceptLoop()
	return p, nil
}

func (p *PublisherSocket) acceptLoop() {
	l := log.WithComponent("transport.publisher")
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			return
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			conn.Close()
			return
		}
		p.conns[conn] = struct{}{}
		p.mu.Unlock()
		l.Debug().Str("remote", conn.RemoteAddr().String()).Msg("subscriber connected")
	}
}

// Send writes payload to every connected subscriber. A subscriber whose
// connection has failed is dropped silently: pub/sub is at-most-once.
func (p *PublisherSocket) Send(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for conn := range p.conns {
		if err := writeFrame(conn, payload); err != nil {
			conn.Close()
			delete(p.conns, conn)
		}
	}
	return nil
}

// Close stops accepting new subscribers and closes every open connection.
func (p *PublisherSocket) Close() error {
	p.mu.Lock()
	p.closed = true
	for conn := range p.conns {
		conn.Close()
	}
	p.conns = make(map[net.Conn]struct{})
	p.mu.Unlock()
	return p.listener.Close()
}

// The receive side (dialing producers and aggregating their frames) is
// implemented once, generically over transport kind, by MultiInput.
