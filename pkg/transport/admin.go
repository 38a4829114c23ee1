package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// AdminCommandKind tags the variant of an AdminCommand.
type AdminCommandKind string

const (
	AdminPing           AdminCommandKind = "Ping"
	AdminStatus         AdminCommandKind = "Status"
	AdminRegistry       AdminCommandKind = "Registry"
	AdminUpdateRegistry AdminCommandKind = "UpdateRegistry"
	AdminUpdateBindings AdminCommandKind = "UpdateBindings"
	AdminShutdown       AdminCommandKind = "Shutdown"
)

// AdminCommand is the request half of the admin wire protocol. Config
// carries a JSON-encoded layout.ServiceConfig for UpdateBindings; kept
// as a raw message here so the transport layer has no dependency on the
// layout engine's types.
type AdminCommand struct {
	Kind   AdminCommandKind `json:"kind"`
	Key    string           `json:"key,omitempty"`
	Value  string           `json:"value,omitempty"`
	Config json.RawMessage  `json:"config,omitempty"`
}

// AdminResponseKind tags the variant of an AdminResponse.
type AdminResponseKind string

const (
	AdminPong  AdminResponseKind = "Pong"
	AdminOk    AdminResponseKind = "Ok"
	AdminInfo  AdminResponseKind = "Info"
	AdminError AdminResponseKind = "Error"
)

// AdminResponse is the reply half of the admin wire protocol.
type AdminResponse struct {
	Kind  AdminResponseKind `json:"kind"`
	Info  json.RawMessage   `json:"info,omitempty"`
	Error string            `json:"error,omitempty"`
}

// AdminPayloadKind tags which half of AdminPayload is populated.
type AdminPayloadKind string

const (
	PayloadCommand  AdminPayloadKind = "Command"
	PayloadResponse AdminPayloadKind = "Response"
)

// AdminPayload is the point-to-point message exchanged over the admin
// duplex: either a Command or a Response, JSON-encoded per the spec's
// explicit allowance of JSON for admin payloads.
type AdminPayload struct {
	Kind     AdminPayloadKind `json:"kind"`
	Command  *AdminCommand    `json:"command,omitempty"`
	Response *AdminResponse   `json:"response,omitempty"`
}

// AdminDuplex wraps a websocket connection carrying JSON AdminPayloads in
// both directions.
type AdminDuplex struct {
	conn *websocket.Conn
}

// SendPayload writes one AdminPayload as a JSON text frame.
func (d *AdminDuplex) SendPayload(p AdminPayload) error {
	return d.conn.WriteJSON(p)
}

// RecvPayload blocks (honoring ctx's deadline) for the next AdminPayload.
func (d *AdminDuplex) RecvPayload(ctx context.Context) (AdminPayload, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.conn.SetReadDeadline(deadline)
	}
	var p AdminPayload
	err := d.conn.ReadJSON(&p)
	return p, err
}

// Close closes the underlying connection.
func (d *AdminDuplex) Close() error {
	return d.conn.Close()
}

// AdminListener is the service side of the admin duplex: it binds an
// HTTP server with a single websocket upgrade handler, matching the
// transport's "service binds a reply socket" discipline.
type AdminListener struct {
	server   *http.Server
	listener net.Listener
	accepted chan *AdminDuplex
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// BindAdminListener binds addr's endpoint and serves /admin as a
// websocket upgrade endpoint. Bind failure is fatal at process startup.
func BindAdminListener(addr manifest.Address) (*AdminListener, error) {
	if addr.Kind != manifest.AddressZmq {
		return nil, fmt.Errorf("transport: BindAdminListener requires a zmq address, got %v", addr)
	}

	ln, err := net.Listen("tcp", endpointAddr(addr.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("transport: bind admin %s: %w", addr, err)
	}

	al := &AdminListener{listener: ln, accepted: make(chan *AdminDuplex)}

	mux := http.NewServeMux()
	mux.HandleFunc("/admin", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		al.accepted <- &AdminDuplex{conn: conn}
	})
	al.server = &http.Server{Handler: mux}

	go al.server.Serve(ln)
	return al, nil
}

// Accept blocks until the orchestrator connects, returning the duplex
// for this service's admin loop to drive.
func (al *AdminListener) Accept(ctx context.Context) (*AdminDuplex, error) {
	select {
	case d := <-al.accepted:
		return d, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the admin HTTP server.
func (al *AdminListener) Close() error {
	return al.server.Close()
}

// DialAdmin connects to a service's admin endpoint, the orchestrator
// side of the bind/connect pair.
func DialAdmin(addr manifest.Address, timeout time.Duration) (*AdminDuplex, error) {
	if addr.Kind != manifest.AddressZmq {
		return nil, fmt.Errorf("transport: DialAdmin requires a zmq address, got %v", addr)
	}

	url := fmt.Sprintf("ws://%s/admin", endpointAddr(addr.Endpoint))
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial admin %s: %w", addr, err)
	}
	return &AdminDuplex{conn: conn}, nil
}
