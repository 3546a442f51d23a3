// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	applog "bass/internal/log"
	"bass/internal/param"

	"github.com/gorilla/websocket"
)

const (
	wsPath         = "/ws"
	wsWriteTimeout = time.Second
	wsQueueSize    = 256
)

// ErrServerClosed is returned by Send after Close.
var ErrServerClosed = errors.New("websocket server closed")

// ControlMessage is a client request. Exactly one of Value (plain units) or
// Normalized ([0, 1]) must be set for "set".
type ControlMessage struct {
	Type       string   `json:"type"`
	Param      param.ID `json:"param"`
	Value      *float32 `json:"value,omitempty"`
	Normalized *float32 `json:"normalized,omitempty"`
}

// ParamMessage acknowledges a change with the resulting values.
type ParamMessage struct {
	Type       string   `json:"type"` // "param"
	Param      param.ID `json:"param"`
	Value      float32  `json:"value"`
	Normalized float32  `json:"normalized"`
	Display    string   `json:"display"`
}

// ErrorMessage reports a rejected client request.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// wsClient serializes writes; gorilla connections allow one concurrent writer.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

// WebSocketServer broadcasts frames and events to every client on /ws and
// applies "set" messages from clients to the parameter set.
type WebSocketServer struct {
	addr     string
	ctrl     Controller
	upgrader websocket.Upgrader

	clients   map[*wsClient]struct{}
	clientsMu sync.Mutex

	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	server   *http.Server
	listener net.Listener
}

// NewWebSocketServer creates the server and starts its broadcast loop. ctrl
// may be nil, in which case control messages are rejected. Call Start to
// listen on addr, or mount Handler on an existing server.
func NewWebSocketServer(addr string, ctrl Controller) *WebSocketServer {
	s := &WebSocketServer{
		addr: addr,
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local monitoring tool; any origin may connect.
			},
		},
		clients:   make(map[*wsClient]struct{}),
		broadcast: make(chan any, wsQueueSize),
		done:      make(chan struct{}),
	}

	s.wg.Add(1)
	go s.handleBroadcasts()
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint.
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(wsPath, s.handleWebSocket)
	return mux
}

// Start binds addr and serves in the background. Bind errors are returned.
func (s *WebSocketServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on '%s': %w", s.addr, err)
	}
	s.listener = ln
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		applog.Infof("WebSocket: Serving on ws://%s%s", ln.Addr(), wsPath)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocket: Server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started, or the configured one.
func (s *WebSocketServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Clients returns the number of connected clients.
func (s *WebSocketServer) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocket: Upgrade error: %v", err)
		return
	}
	client := &wsClient{conn: conn}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	total := len(s.clients)
	s.clientsMu.Unlock()
	applog.Infof("WebSocket: Client connected from %s, total: %d", r.RemoteAddr, total)

	go s.readLoop(client)
}

// readLoop handles control messages until the client goes away.
func (s *WebSocketServer) readLoop(client *wsClient) {
	defer s.removeClient(client)
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		reply := s.handleMessage(data)
		if err := client.writeJSON(reply); err != nil {
			return
		}
	}
}

func (s *WebSocketServer) removeClient(client *wsClient) {
	s.clientsMu.Lock()
	_, ok := s.clients[client]
	delete(s.clients, client)
	total := len(s.clients)
	s.clientsMu.Unlock()

	client.conn.Close()
	if ok {
		applog.Infof("WebSocket: Client disconnected, total: %d", total)
	}
}

// handleMessage applies one control message and returns the reply.
func (s *WebSocketServer) handleMessage(data []byte) any {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ErrorMessage{Type: "error", Message: fmt.Sprintf("invalid message: %v", err)}
	}
	if msg.Type != "set" {
		return ErrorMessage{Type: "error", Message: fmt.Sprintf("unsupported message type '%s'", msg.Type)}
	}
	if s.ctrl == nil {
		return ErrorMessage{Type: "error", Message: "remote control disabled"}
	}
	if (msg.Value == nil) == (msg.Normalized == nil) {
		return ErrorMessage{Type: "error", Message: "exactly one of value or normalized is required"}
	}

	p, err := s.ctrl.Get(msg.Param)
	if err != nil {
		return ErrorMessage{Type: "error", Message: err.Error()}
	}
	if msg.Value != nil {
		p.Set(*msg.Value)
	} else {
		p.SetNormalized(*msg.Normalized)
	}
	applog.Debugf("WebSocket: %s set to %s", p.ID, p.String())

	return ParamMessage{
		Type:       "param",
		Param:      p.ID,
		Value:      p.Value(),
		Normalized: p.Normalized(),
		Display:    p.String(),
	}
}

// handleBroadcasts sends queued messages to all connected clients.
func (s *WebSocketServer) handleBroadcasts() {
	defer s.wg.Done()
	for {
		select {
		case data := <-s.broadcast:
			s.clientsMu.Lock()
			clients := make([]*wsClient, 0, len(s.clients))
			for c := range s.clients {
				clients = append(clients, c)
			}
			s.clientsMu.Unlock()

			for _, c := range clients {
				if err := c.writeJSON(data); err != nil {
					applog.Debugf("WebSocket: Error sending to client: %v", err)
					s.removeClient(c)
				}
			}
		case <-s.done:
			return
		}
	}
}

// Send queues data for broadcast. When the queue is full the message is
// dropped; meters are superseded by the next frame anyway.
func (s *WebSocketServer) Send(data any) error {
	select {
	case <-s.done:
		return ErrServerClosed
	default:
	}
	select {
	case s.broadcast <- data:
	default:
		applog.Debugf("WebSocket: Broadcast queue full, dropping %T", data)
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (s *WebSocketServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		applog.Infof("WebSocket: Closing server")
		close(s.done)
		s.wg.Wait()

		s.clientsMu.Lock()
		for c := range s.clients {
			c.conn.Close()
		}
		s.clients = make(map[*wsClient]struct{})
		s.clientsMu.Unlock()

		if s.server != nil {
			err = s.server.Close()
		}
	})
	return err
}

var _ Transport = (*WebSocketServer)(nil)
