package manifest

import (
	"fmt"
	"strings"
)

// AddressKind tags the variant of an Address.
type AddressKind int

const (
	AddressZmq AddressKind = iota
	AddressMemory
	AddressEmpty
)

// Address is a tagged sum: Zmq(endpoint) | Memory(name) | Empty. Its
// string form round-trips through Parse/String: "zmq:<endpoint>",
// "mem:<name>", or "empty". Bare "tcp://..." and "ipc://..." strings are
// accepted on parse as legacy shorthand for Zmq, but String() always
// emits the canonical "zmq:" prefix.
type Address struct {
	Kind     AddressKind
	Endpoint string // set when Kind == AddressZmq
	Name     string // set when Kind == AddressMemory
}

// Zmq builds a Zmq-kind address from an endpoint such as "tcp://127.0.0.1:6000".
func Zmq(endpoint string) Address {
	return Address{Kind: AddressZmq, Endpoint: endpoint}
}

// Memory builds a Memory-kind address from an in-process channel name.
func Memory(name string) Address {
	return Address{Kind: AddressMemory, Name: name}
}

// EmptyAddress is the zero-producer address used for variadic inputs that
// start with no connected source.
var EmptyAddress = Address{Kind: AddressEmpty}

// String renders the canonical round-trip form of the address.
func (a Address) String() string {
	switch a.Kind {
	case AddressZmq:
		return "zmq:" + a.Endpoint
	case AddressMemory:
		return "mem:" + a.Name
	case AddressEmpty:
		return "empty"
	default:
		return "empty"
	}
}

// MarshalText implements encoding.TextMarshaler so Address can appear as
// a JSON string field.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses the canonical "zmq:"/"mem:"/"empty" forms plus the
// legacy bare "tcp://" / "ipc://" shorthand (treated as Zmq).
func ParseAddress(s string) (Address, error) {
	switch {
	case s == "empty":
		return EmptyAddress, nil
	case strings.HasPrefix(s, "zmq:"):
		return Zmq(strings.TrimPrefix(s, "zmq:")), nil
	case strings.HasPrefix(s, "mem:"):
		return Memory(strings.TrimPrefix(s, "mem:")), nil
	case strings.HasPrefix(s, "tcp://"), strings.HasPrefix(s, "ipc://"):
		return Zmq(s), nil
	default:
		return Address{}, fmt.Errorf("manifest: unrecognized address form %q", s)
	}
}
