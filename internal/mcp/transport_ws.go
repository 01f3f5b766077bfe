package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// wsPongWait and wsWriteWait bound the keepalive round trip, grounded on
// internal/gateway/ws_control_plane.go's ping/pong timing.
const (
	wsPongWait   = 45 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
)

// WSTransport speaks MCP over a single full-duplex WebSocket connection,
// demultiplexing responses (by request ID), notifications, and
// server-initiated requests off one read loop the same way StdioTransport
// demultiplexes a subprocess's stdout.
type WSTransport struct {
	config *ServerConfig
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	pending   map[int64]chan *JSONRPCResponse
	pendingMu sync.Mutex
	events    chan *JSONRPCNotification
	requests  chan *JSONRPCRequest
	nextID    atomic.Int64

	connected atomic.Bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewWSTransport creates a WebSocket transport for cfg.
func NewWSTransport(cfg *ServerConfig) *WSTransport {
	return &WSTransport{
		config:   cfg,
		logger:   slog.Default().With("mcp_server", cfg.ID, "transport", "websocket"),
		pending:  make(map[int64]chan *JSONRPCResponse),
		events:   make(chan *JSONRPCNotification, 100),
		requests: make(chan *JSONRPCRequest, 100),
		stopChan: make(chan struct{}),
	}
}

// Connect dials cfg.URL and starts the read and keepalive loops.
func (t *WSTransport) Connect(ctx context.Context) error {
	if t.config.URL == "" {
		return fmt.Errorf("URL is required for websocket transport")
	}

	header := make(map[string][]string, len(t.config.Headers))
	for k, v := range t.config.Headers {
		header[k] = []string{v}
	}

	dialer := websocket.Dialer{HandshakeTimeout: t.dialTimeout()}
	conn, _, err := dialer.DialContext(ctx, t.config.URL, header)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}
	t.conn = conn
	t.connected.Store(true)
	t.logger.Info("websocket transport connected", "url", t.config.URL)

	t.wg.Add(2)
	go t.readLoop()
	go t.pingLoop()
	return nil
}

func (t *WSTransport) dialTimeout() time.Duration {
	if t.config.Timeout > 0 {
		return t.config.Timeout
	}
	return 30 * time.Second
}

// Close closes the connection and unblocks the reader/keepalive goroutines.
func (t *WSTransport) Close() error {
	t.connected.Store(false)
	close(t.stopChan)
	if t.conn != nil {
		t.conn.Close()
	}
	t.wg.Wait()
	return nil
}

// Call sends a request and blocks until its response, timeout, or cancellation.
func (t *WSTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !t.connected.Load() {
		return nil, fmt.Errorf("not connected")
	}

	id := t.nextID.Add(1)
	req := JSONRPCRequest{JSONRPC: "2.0", ID: id, Method: method}
	if params != nil {
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = paramsJSON
	}

	respChan := make(chan *JSONRPCResponse, 1)
	t.pendingMu.Lock()
	t.pending[id] = respChan
	t.pendingMu.Unlock()
	defer func() {
		t.pendingMu.Lock()
		delete(t.pending, id)
		t.pendingMu.Unlock()
	}()

	if err := t.writeJSON(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	timeout := t.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	select {
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, fmt.Errorf("MCP error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("request timeout after %v", timeout)
	case <-t.stopChan:
		return nil, fmt.Errorf("transport closed")
	}
}

// Notify sends a fire-and-forget message.
func (t *WSTransport) Notify(ctx context.Context, method string, params any) error {
	if !t.connected.Load() {
		return fmt.Errorf("not connected")
	}

	notif := JSONRPCNotification{JSONRPC: "2.0", Method: method}
	if params != nil {
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		notif.Params = paramsJSON
	}
	return t.writeJSON(notif)
}

// Events returns the notification channel.
func (t *WSTransport) Events() <-chan *JSONRPCNotification { return t.events }

// Requests returns the server-initiated request channel.
func (t *WSTransport) Requests() <-chan *JSONRPCRequest { return t.requests }

// Respond answers a server-initiated request over the same connection.
func (t *WSTransport) Respond(ctx context.Context, id any, result any, rpcErr *JSONRPCError) error {
	if !t.connected.Load() {
		return fmt.Errorf("not connected")
	}
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
	if rpcErr == nil && result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		resp.Result = data
	}
	return t.writeJSON(resp)
}

// Connected reports whether the connection is currently usable.
func (t *WSTransport) Connected() bool { return t.connected.Load() }

func (t *WSTransport) writeJSON(v any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return t.conn.WriteJSON(v)
}

func (t *WSTransport) readLoop() {
	defer t.wg.Done()
	defer t.connected.Store(false)

	t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.stopChan:
			default:
				t.logger.Debug("websocket read error", "error", err)
			}
			return
		}
		t.processMessage(data)
	}
}

func (t *WSTransport) processMessage(data []byte) {
	var resp JSONRPCResponse
	if err := json.Unmarshal(data, &resp); err == nil && resp.ID != nil {
		var id int64
		switch v := resp.ID.(type) {
		case float64:
			id = int64(v)
		case int64:
			id = v
		case int:
			id = int64(v)
		default:
			t.logger.Warn("unexpected response ID type", "id", resp.ID)
			return
		}

		t.pendingMu.Lock()
		if ch, ok := t.pending[id]; ok {
			select {
			case ch <- &resp:
			default:
			}
			delete(t.pending, id)
		}
		t.pendingMu.Unlock()
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err == nil && req.Method != "" && req.ID != nil {
		select {
		case t.requests <- &req:
		default:
			t.logger.Warn("request channel full, dropping")
		}
		return
	}

	var notif JSONRPCNotification
	if err := json.Unmarshal(data, &notif); err == nil && notif.Method != "" {
		select {
		case t.events <- &notif:
		default:
			t.logger.Warn("notification channel full, dropping")
		}
	}
}

func (t *WSTransport) pingLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				t.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}
