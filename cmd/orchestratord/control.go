package main

import (
	"context"
	"sync"

	"github.com/ManuMario0/trading-lab-sub000/pkg/controlapi"
	"github.com/ManuMario0/trading-lab-sub000/pkg/supervisor"
)

// newControlHandler builds the control API's command dispatcher over a
// running Supervisor. Shutdown closes shutdownCh rather than calling
// os.Exit directly, so run.go's signal-handling select can perform the
// same orderly teardown path a SIGTERM would.
func newControlHandler(super *supervisor.Supervisor, shutdownCh chan struct{}) controlapi.Handler {
	var shutdownOnce sync.Once
	return func(ctx context.Context, cmd controlapi.Command) controlapi.Response {
		switch cmd.Kind {
		case controlapi.CmdDeploy:
			if cmd.Layout == nil {
				return controlapi.Response{Kind: controlapi.RespError, Error: "Deploy requires a layout"}
			}
			super.RequestDeploy(*cmd.Layout)
			return controlapi.Response{Kind: controlapi.RespSuccess, Message: "scheduled"}

		case controlapi.CmdStop:
			if ok := super.Teardown(cmd.LayoutID); !ok {
				return controlapi.Response{Kind: controlapi.RespError, Error: "unknown or inactive layout_id"}
			}
			return controlapi.Response{Kind: controlapi.RespSuccess, Message: "scheduled"}

		case controlapi.CmdGetStatus:
			nodes := super.Status(ctx)
			out := make([]controlapi.ServiceStatus, 0, len(nodes))
			for _, n := range nodes {
				out = append(out, controlapi.ServiceStatus{ID: n.ID, Name: n.ServiceType, Status: n.Status})
			}
			return controlapi.Response{Kind: controlapi.RespStatusInfo, Status: out}

		case controlapi.CmdGetWallet:
			return controlapi.Response{Kind: controlapi.RespError, Error: "wallet state is owned by the broker service, not the orchestrator"}

		case controlapi.CmdShutdown:
			shutdownOnce.Do(func() { close(shutdownCh) })
			return controlapi.Response{Kind: controlapi.RespSuccess, Message: "shutting down"}

		default:
			return controlapi.Response{Kind: controlapi.RespError, Error: "unknown command"}
		}
	}
}
