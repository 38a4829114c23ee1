// Package microservice is the per-process harness every trading-service
// binary embeds: runner goroutines over typed transport sockets, the
// admin duplex loop, and the Parameter Registry. A service binary builds
// its own typed SenderSocket/ReceiverSocket pairs from its bindings and
// wires them into a Harness, which then owns the admin protocol and
// orderly shutdown.
package microservice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

// PortRunner is a started-and-stoppable task driving one input port's
// handler loop.
type PortRunner interface {
	Start(ctx context.Context)
	Stop()
}

// Connectable is the subset of ReceiverSocket[T] the harness needs to
// apply a runtime UpdateBindings without depending on T: adding (and,
// were it ever allowed, removing) a connected producer.
type Connectable interface {
	Connect(addr manifest.Address, sourceID uint64) error
	Disconnect(sourceID uint64) error
}

// Harness owns the admin duplex, the Parameter Registry, and the set of
// per-port runners for one running service instance.
type Harness struct {
	serviceName string
	serviceID   uint64

	registry *Registry

	mu       sync.Mutex
	bindings manifest.ServiceBindings
	inputs   map[string]Connectable
	runners  map[string]PortRunner

	admin *transport.AdminListener

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New binds the admin duplex on adminAddr and returns a Harness ready to
// have ports registered onto it via RegisterInput.
func New(serviceName string, serviceID uint64, adminAddr manifest.Address, bindings manifest.ServiceBindings, registry *Registry) (*Harness, error) {
	al, err := transport.BindAdminListener(adminAddr)
	if err != nil {
		return nil, fmt.Errorf("microservice: bind admin: %w", err)
	}
	return &Harness{
		serviceName: serviceName,
		serviceID:   serviceID,
		registry:    registry,
		bindings:    bindings,
		inputs:      make(map[string]Connectable),
		runners:     make(map[string]PortRunner),
		admin:       al,
		stopCh:      make(chan struct{}),
	}, nil
}

// RegisterInput wires one input port's receiver (as a Connectable, for
// UpdateBindings) and its runner (the goroutine that actually pumps
// frames into the user handler) into the harness.
func (h *Harness) RegisterInput(name string, conn Connectable, runner PortRunner) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inputs[name] = conn
	h.runners[name] = runner
}

// Run starts every registered runner and then blocks serving the admin
// loop until a Shutdown command is processed or ctx is canceled.
func (h *Harness) Run(ctx context.Context) error {
	l := log.WithComponent("microservice").With().Str("service_name", h.serviceName).Logger()

	h.mu.Lock()
	for _, r := range h.runners {
		r.Start(ctx)
	}
	h.mu.Unlock()

	l.Info().Msg("runners started, serving admin loop")

	for {
		duplex, err := h.admin.Accept(ctx)
		if err != nil {
			h.stopRunners()
			return err
		}

		shutdown := h.serveAdmin(ctx, duplex)
		if shutdown {
			h.stopRunners()
			h.admin.Close()
			return nil
		}
	}
}

func (h *Harness) stopRunners() {
	h.mu.Lock()
	runners := make([]PortRunner, 0, len(h.runners))
	for _, r := range h.runners {
		runners = append(runners, r)
	}
	h.mu.Unlock()
	for _, r := range runners {
		r.Stop()
	}
}

// serveAdmin drives one admin connection until it errors or a Shutdown
// is processed, returning true in the latter case.
func (h *Harness) serveAdmin(ctx context.Context, duplex *transport.AdminDuplex) bool {
	l := log.WithComponent("microservice")
	defer duplex.Close()

	for {
		payload, err := duplex.RecvPayload(ctx)
		if err != nil {
			return false
		}
		if payload.Kind != transport.PayloadCommand || payload.Command == nil {
			continue
		}

		resp, shutdown := h.dispatch(*payload.Command)
		if err := duplex.SendPayload(transport.AdminPayload{Kind: transport.PayloadResponse, Response: &resp}); err != nil {
			l.Warn().Err(err).Msg("admin send failed")
			return shutdown
		}
		if shutdown {
			return true
		}
	}
}

func (h *Harness) dispatch(cmd transport.AdminCommand) (transport.AdminResponse, bool) {
	switch cmd.Kind {
	case transport.AdminPing:
		return transport.AdminResponse{Kind: transport.AdminPong}, false

	case transport.AdminStatus:
		info, _ := json.Marshal(map[string]any{
			"service_name": h.serviceName,
			"service_id":   h.serviceID,
		})
		return transport.AdminResponse{Kind: transport.AdminInfo, Info: info}, false

	case transport.AdminRegistry:
		info, err := json.Marshal(h.registry.List())
		if err != nil {
			return errorResponse(err), false
		}
		return transport.AdminResponse{Kind: transport.AdminInfo, Info: info}, false

	case transport.AdminUpdateRegistry:
		if err := h.registry.Update(cmd.Key, cmd.Value); err != nil {
			return errorResponse(err), false
		}
		return transport.AdminResponse{Kind: transport.AdminOk}, false

	case transport.AdminUpdateBindings:
		if err := h.applyUpdateBindings(cmd.Config); err != nil {
			return errorResponse(err), false
		}
		return transport.AdminResponse{Kind: transport.AdminOk}, false

	case transport.AdminShutdown:
		return transport.AdminResponse{Kind: transport.AdminOk}, true

	default:
		return transport.AdminResponse{Kind: transport.AdminError, Error: "Invalid Protocol Format"}, false
	}
}

func errorResponse(err error) transport.AdminResponse {
	return transport.AdminResponse{Kind: transport.AdminError, Error: err.Error()}
}

// reconfigurePayload is the subset of layout.ServiceConfig the harness
// needs: it decodes the --bindings flag baked into Args rather than
// importing pkg/layout, which would invert the dependency between the
// supervisor and the per-process runtime.
type reconfigurePayload struct {
	Args []string `json:"args"`
}

// applyUpdateBindings decodes the new ServiceBindings embedded in a
// reconfigure command's Args and connects any source not already
// connected. Per the admin protocol's add-only policy, existing
// connections for a port are never dropped here.
func (h *Harness) applyUpdateBindings(raw json.RawMessage) error {
	var cfg reconfigurePayload
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("microservice: decode UpdateBindings config: %w", err)
	}

	newBindings, ok := extractBindings(cfg.Args)
	if !ok {
		return fmt.Errorf("microservice: UpdateBindings config has no --bindings flag")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for portName, newBinding := range newBindings.Inputs {
		conn, ok := h.inputs[portName]
		if !ok {
			continue
		}
		existing := h.bindings.Inputs[portName]
		known := make(map[uint64]bool, len(existing.Sources()))
		for _, s := range existing.Sources() {
			known[s.ID] = true
		}
		for _, s := range newBinding.Sources() {
			if known[s.ID] {
				continue
			}
			if err := conn.Connect(s.Address, s.ID); err != nil {
				log.WithComponent("microservice").Warn().Str("port", portName).Err(err).Msg("UpdateBindings connect failed")
				continue
			}
		}
	}

	h.bindings = newBindings
	return nil
}

func extractBindings(args []string) (manifest.ServiceBindings, bool) {
	for i, a := range args {
		if a == "--bindings" && i+1 < len(args) {
			var sb manifest.ServiceBindings
			if err := json.Unmarshal([]byte(args[i+1]), &sb); err != nil {
				return manifest.ServiceBindings{}, false
			}
			return sb, true
		}
	}
	return manifest.ServiceBindings{}, false
}
