// Package transport implements the typed pub/sub and admin duplex layer
// that connects spawned services: address abstraction, bind/connect
// asymmetric sockets, dynamic input multiplexing, and a JSON-framed
// admin request/reply channel.
package transport

import (
	"context"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// Frame is one received message: its raw payload and the numeric id of
// the producer that sent it, so a variadic handler can disambiguate
// sources sharing one logical input port.
type Frame struct {
	Payload  []byte
	SourceID uint64
}

// TransportOutput is the send side of the pub/sub bus. Implementations
// bind their endpoint at construction time; bind failure is fatal at
// process startup. Send is safe for concurrent use.
type TransportOutput interface {
	Send(payload []byte) error
	Close() error
}

// TransportInput is the receive side. It connects to zero or more
// producers and aggregates their frames behind one logical port; new
// producers may be connected at runtime (dynamic input multiplexing for
// variadic ports).
type TransportInput interface {
	// Recv blocks until a frame arrives or ctx is done.
	Recv(ctx context.Context) (Frame, error)
	// TryRecv returns immediately; ok is false if nothing is queued.
	TryRecv() (Frame, bool)
	// Connect adds a new producer at runtime, tagged with sourceID.
	Connect(addr manifest.Address, sourceID uint64) error
	// Disconnect stops reading from an already-connected producer, by
	// the same sourceID passed to Connect.
	Disconnect(sourceID uint64) error
	Close() error
}

// TransportDuplex combines send and receive for point-to-point channels
// such as the admin protocol.
type TransportDuplex interface {
	Send(payload []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}
