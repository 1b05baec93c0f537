// Package conn is the client side of the WebSocket protocol: one request
// out, one response back.
package conn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/server/protocol"
	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("connection closed")

// Request is an outbound message. Only the fields relevant to Action are
// sent.
type Request struct {
	Action       protocol.Action `json:"action"`
	Username     string          `json:"username,omitempty"`
	Password     string          `json:"password,omitempty"`
	SessionToken string          `json:"sessionToken,omitempty"`
	Name         string          `json:"name,omitempty"`
	Content      string          `json:"content,omitempty"`
}

// Conn serializes requests over one WebSocket so responses pair up with the
// request that caused them.
type Conn struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	timeout time.Duration
	closed  bool
}

// Dial connects to url. timeout bounds each Do call when ctx has no earlier
// deadline.
func Dial(ctx context.Context, url string, timeout time.Duration) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Conn{ws: ws, timeout: timeout}, nil
}

// Do sends req and waits for its response.
func (c *Conn) Do(ctx context.Context, req Request) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return protocol.Response{}, ErrClosed
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	_ = c.ws.SetReadDeadline(deadline)

	if err := c.ws.WriteJSON(req); err != nil {
		return protocol.Response{}, fmt.Errorf("send: %w", err)
	}

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return protocol.Response{}, fmt.Errorf("receive: %w", err)
	}

	var resp protocol.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return protocol.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Close sends a close frame and releases the connection. Safe to call more
// than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}
