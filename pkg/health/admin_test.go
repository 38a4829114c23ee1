package health

import (
	"context"
	"testing"
	"time"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

func TestAdminChecker_HealthyOnPong(t *testing.T) {
	addr := manifest.Zmq("tcp://127.0.0.1:18781")
	listener, err := transport.BindAdminListener(addr)
	if err != nil {
		t.Fatalf("bind admin listener: %v", err)
	}
	defer listener.Close()

	go func() {
		duplex, err := listener.Accept(context.Background())
		if err != nil {
			return
		}
		defer duplex.Close()
		for {
			payload, err := duplex.RecvPayload(context.Background())
			if err != nil {
				return
			}
			if payload.Command != nil && payload.Command.Kind == transport.AdminPing {
				_ = duplex.SendPayload(transport.AdminPayload{
					Kind:     transport.PayloadResponse,
					Response: &transport.AdminResponse{Kind: transport.AdminPong},
				})
			}
		}
	}()

	checker := NewAdminChecker(addr)
	result := checker.Check(context.Background())

	if !result.Healthy {
		t.Errorf("expected healthy, got unhealthy: %s", result.Message)
	}
	if result.Duration <= 0 {
		t.Error("expected positive duration")
	}
}

func TestAdminChecker_UnhealthyOnDialFailure(t *testing.T) {
	addr := manifest.Zmq("tcp://127.0.0.1:18782")
	checker := NewAdminChecker(addr)
	result := checker.Check(context.Background())

	if result.Healthy {
		t.Error("expected unhealthy when nothing is listening")
	}
}

func TestAdminChecker_UnhealthyOnTimeout(t *testing.T) {
	addr := manifest.Zmq("tcp://127.0.0.1:18783")
	listener, err := transport.BindAdminListener(addr)
	if err != nil {
		t.Fatalf("bind admin listener: %v", err)
	}
	defer listener.Close()

	go func() {
		duplex, err := listener.Accept(context.Background())
		if err != nil {
			return
		}
		defer duplex.Close()
		// Never responds.
		_, _ = duplex.RecvPayload(context.Background())
	}()

	checker := NewAdminChecker(addr)
	checker.Timeout = 50 * time.Millisecond
	result := checker.Check(context.Background())

	if result.Healthy {
		t.Error("expected unhealthy on pong timeout")
	}
}

func TestAdminChecker_Type(t *testing.T) {
	checker := NewAdminChecker(manifest.Zmq("tcp://127.0.0.1:18784"))
	if checker.Type() != CheckTypeAdmin {
		t.Errorf("expected type %s, got %s", CheckTypeAdmin, checker.Type())
	}
}
