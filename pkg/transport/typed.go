package transport

import (
	"bytes"
	"context"
	"encoding/gob"
	"sync"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/metrics"
)

// SenderSocket binds a message-type tag T to a TransportOutput. Every
// frame is a self-contained gob-encoded record of T. It is safe for
// concurrent use and cheaply shareable across runners, matching the
// spec's "clone-shareable, internally serialized" output handle.
type SenderSocket[T any] struct {
	mu       sync.Mutex
	out      TransportOutput
	dataType string
}

// NewSenderSocket binds addr and wraps it as a typed sender tagged with
// dataType (used only for metrics labeling; the wire format carries no
// type tag of its own, matching the binding model's string-typed ports).
func NewSenderSocket[T any](addr manifest.Address, dataType string) (*SenderSocket[T], error) {
	out, err := NewOutput(addr)
	if err != nil {
		return nil, err
	}
	return &SenderSocket[T]{out: out, dataType: dataType}, nil
}

// Send gob-encodes value and sends it. Concurrent Send calls are
// serialized so frames never interleave.
func (s *SenderSocket[T]) Send(value T) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.out.Send(buf.Bytes()); err != nil {
		return err
	}
	metrics.MessagesSentTotal.WithLabelValues(s.dataType).Inc()
	return nil
}

// Close releases the underlying transport.
func (s *SenderSocket[T]) Close() error {
	return s.out.Close()
}

// TypedFrame pairs a decoded value with the numeric id of its producer.
type TypedFrame[T any] struct {
	Value    T
	SourceID uint64
}

// ReceiverSocket aggregates one or more connected producers behind a
// single logical input port and decodes each frame as T.
type ReceiverSocket[T any] struct {
	in       TransportInput
	dataType string
}

// NewReceiverSocket builds a typed receiver with no connected producers.
// addr must be a Zmq, Memory or Empty address and is not connected to;
// sources join via Connect.
func NewReceiverSocket[T any](addr manifest.Address, dataType string) (*ReceiverSocket[T], error) {
	in, err := NewInput(addr)
	if err != nil {
		return nil, err
	}
	return &ReceiverSocket[T]{in: in, dataType: dataType}, nil
}

// Connect adds a new producer at runtime.
func (r *ReceiverSocket[T]) Connect(addr manifest.Address, sourceID uint64) error {
	return r.in.Connect(addr, sourceID)
}

// Disconnect removes a previously connected producer.
func (r *ReceiverSocket[T]) Disconnect(sourceID uint64) error {
	return r.in.Disconnect(sourceID)
}

// Recv blocks for the next frame, decodes it as T, and returns it
// alongside its producer's source id.
func (r *ReceiverSocket[T]) Recv(ctx context.Context) (TypedFrame[T], error) {
	frame, err := r.in.Recv(ctx)
	if err != nil {
		return TypedFrame[T]{}, err
	}
	return r.decode(frame)
}

// TryRecv is the non-blocking variant of Recv.
func (r *ReceiverSocket[T]) TryRecv() (TypedFrame[T], bool, error) {
	frame, ok := r.in.TryRecv()
	if !ok {
		return TypedFrame[T]{}, false, nil
	}
	tf, err := r.decode(frame)
	return tf, true, err
}

func (r *ReceiverSocket[T]) decode(frame Frame) (TypedFrame[T], error) {
	var value T
	if err := gob.NewDecoder(bytes.NewReader(frame.Payload)).Decode(&value); err != nil {
		return TypedFrame[T]{}, err
	}
	metrics.MessagesReceivedTotal.WithLabelValues(r.dataType).Inc()
	return TypedFrame[T]{Value: value, SourceID: frame.SourceID}, nil
}

// Close disconnects every producer.
func (r *ReceiverSocket[T]) Close() error {
	return r.in.Close()
}
