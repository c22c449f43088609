package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"padlink/internal/protocol"
)

const writeTimeout = 10 * time.Second

// Client sends pointer actions to a relay host. It is the Go counterpart
// of the browser page and is safe for concurrent use.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to the relay at hostAddr ("ip:port")
func Dial(ctx context.Context, hostAddr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: hostAddr, Path: "/ws"}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.String(), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}

	return &Client{conn: conn}, nil
}

// Send writes one action as a text frame
func (c *Client) Send(action protocol.Action) error {
	data, err := json.Marshal(action)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw writes data as a text frame without validating it
func (c *Client) SendRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal close frame and closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
	return c.conn.Close()
}
