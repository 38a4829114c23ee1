package transport

import (
	"fmt"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// NewOutput binds the appropriate TransportOutput for addr. Bind failure
// is fatal at process startup per the transport's bind/connect
// discipline; callers should treat a non-nil error that way.
func NewOutput(addr manifest.Address) (TransportOutput, error) {
	switch addr.Kind {
	case manifest.AddressZmq:
		return BindPublisher(addr)
	case manifest.AddressMemory:
		return BindMemPublisher(addr)
	default:
		return nil, fmt.Errorf("transport: cannot bind an output on %v", addr)
	}
}

// NewInput returns a TransportInput with no connected producers. A Zmq,
// Memory or Empty addr all yield the same MultiInput, and addr itself is
// not connected to; producers of either kind join later through Connect,
// which dispatches on each source's address.
func NewInput(addr manifest.Address) (TransportInput, error) {
	switch addr.Kind {
	case manifest.AddressZmq, manifest.AddressMemory, manifest.AddressEmpty:
		return newMultiInput(), nil
	default:
		return nil, fmt.Errorf("transport: cannot build an input on %v", addr)
	}
}
