package health

import (
	"context"
	"time"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/transport"
)

// CheckTypeAdmin identifies an AdminChecker's Result, distinguishing it
// from the generic HTTP/TCP/exec check types.
const CheckTypeAdmin CheckType = "admin"

// AdminChecker health-checks a service instance by dialing its own admin
// duplex and sending a Ping, the same application-layer liveness signal
// the harness itself answers on every admin connection.
type AdminChecker struct {
	Addr    manifest.Address
	Timeout time.Duration
}

// NewAdminChecker builds an AdminChecker against addr with a 2 second
// default timeout.
func NewAdminChecker(addr manifest.Address) *AdminChecker {
	return &AdminChecker{Addr: addr, Timeout: 2 * time.Second}
}

// Check dials addr, sends a Ping, and reports healthy only on a Pong
// reply within Timeout.
func (a *AdminChecker) Check(ctx context.Context) Result {
	start := time.Now()

	duplex, err := transport.DialAdmin(a.Addr, a.Timeout)
	if err != nil {
		return Result{Healthy: false, Message: "dial failed: " + err.Error(), CheckedAt: start, Duration: time.Since(start)}
	}
	defer duplex.Close()

	ping := transport.AdminPayload{Kind: transport.PayloadCommand, Command: &transport.AdminCommand{Kind: transport.AdminPing}}
	if err := duplex.SendPayload(ping); err != nil {
		return Result{Healthy: false, Message: "send failed: " + err.Error(), CheckedAt: start, Duration: time.Since(start)}
	}

	recvCtx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()
	resp, err := duplex.RecvPayload(recvCtx)
	if err != nil || resp.Response == nil || resp.Response.Kind != transport.AdminPong {
		return Result{Healthy: false, Message: "no pong received", CheckedAt: start, Duration: time.Since(start)}
	}

	return Result{Healthy: true, Message: "pong", CheckedAt: start, Duration: time.Since(start)}
}

// Type reports CheckTypeAdmin.
func (a *AdminChecker) Type() CheckType {
	return CheckTypeAdmin
}
