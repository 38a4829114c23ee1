// Package controlapi implements the orchestrator ⇄ front-end control
// surface: Deploy/Stop/GetStatus/GetWallet/Shutdown over the same
// websocket-duplex discipline the per-service admin protocol uses
// (pkg/transport/admin.go), kept as a separate wire protocol since its
// command/response vocabulary is unrelated to a single service's admin
// commands.
package controlapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
)

// Mode is the deployment mode a Deploy command requests.
type Mode string

const (
	ModeBacktestFast Mode = "BacktestFast"
	ModePaper        Mode = "Paper"
	ModeLive         Mode = "Live"
)

// CommandKind tags the variant of a Command.
type CommandKind string

const (
	CmdDeploy     CommandKind = "Deploy"
	CmdStop       CommandKind = "Stop"
	CmdGetStatus  CommandKind = "GetStatus"
	CmdGetWallet  CommandKind = "GetWallet"
	CmdShutdown   CommandKind = "Shutdown"
)

// Command is the request half of the control protocol.
type Command struct {
	Kind     CommandKind   `json:"kind"`
	Layout   *layout.Layout `json:"layout,omitempty"`
	Mode     Mode          `json:"mode,omitempty"`
	LayoutID string        `json:"layout_id,omitempty"`
}

// ResponseKind tags the variant of a Response.
type ResponseKind string

const (
	RespSuccess    ResponseKind = "Success"
	RespStatusInfo ResponseKind = "StatusInfo"
	RespWalletInfo ResponseKind = "WalletInfo"
	RespError      ResponseKind = "Error"
)

// ServiceStatus is one entry of a StatusInfo response.
type ServiceStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Response is the reply half of the control protocol.
type Response struct {
	Kind    ResponseKind    `json:"kind"`
	Message string          `json:"message,omitempty"`
	Status  []ServiceStatus `json:"status,omitempty"`
	Wallet  json.RawMessage `json:"wallet,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Payload is the point-to-point message exchanged over the control
// duplex: either a Command or a Response.
type Payload struct {
	Kind     string    `json:"kind"`
	Command  *Command  `json:"command,omitempty"`
	Response *Response `json:"response,omitempty"`
}

const (
	PayloadCommand  = "Command"
	PayloadResponse = "Response"
)

// Duplex wraps a websocket connection carrying JSON Payloads.
type Duplex struct {
	conn *websocket.Conn
}

func (d *Duplex) SendPayload(p Payload) error {
	return d.conn.WriteJSON(p)
}

func (d *Duplex) RecvPayload(ctx context.Context) (Payload, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.conn.SetReadDeadline(deadline)
	}
	var p Payload
	err := d.conn.ReadJSON(&p)
	return p, err
}

func (d *Duplex) Close() error {
	return d.conn.Close()
}

// Handler is the callback a Server invokes per Command.
type Handler func(ctx context.Context, cmd Command) Response

// Server binds a websocket endpoint for the control API and dispatches
// each connected duplex's commands to Handler until a read or write on
// that connection fails.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Bind starts listening on addr and serving /control, invoking handle for
// every received Command on every connection.
func Bind(addr string, handle Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("controlapi: bind %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/control", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		duplex := &Duplex{conn: conn}
		defer duplex.Close()
		serveConn(duplex, handle)
	})

	srv := &Server{httpServer: &http.Server{Handler: mux}, listener: ln}
	go srv.httpServer.Serve(ln)
	return srv, nil
}

func serveConn(duplex *Duplex, handle Handler) {
	ctx := context.Background()
	for {
		payload, err := duplex.RecvPayload(ctx)
		if err != nil {
			return
		}
		if payload.Kind != PayloadCommand || payload.Command == nil {
			continue
		}

		resp := handle(ctx, *payload.Command)
		if err := duplex.SendPayload(Payload{Kind: PayloadResponse, Response: &resp}); err != nil {
			return
		}
	}
}

// Close shuts the control API's HTTP server down.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// DialClient connects to a running orchestrator's control API, the
// front-end side of the duplex.
func DialClient(addr string, timeout time.Duration) (*Duplex, error) {
	url := fmt.Sprintf("ws://%s/control", addr)
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("controlapi: dial %s: %w", addr, err)
	}
	return &Duplex{conn: conn}, nil
}
