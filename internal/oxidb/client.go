// Package oxidb is a minimal TCP client for oxidb-server, covering the
// commands the lead store needs.
//
// Protocol: each message is [4-byte little-endian length][JSON payload].
// Server responds with {"ok": true, "data": ...} or {"ok": false, "error": "..."}.
package oxidb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// maxFrame bounds a single response so a corrupt length prefix cannot
// trigger a huge allocation.
const maxFrame = 64 << 20

// Client is a TCP client for oxidb-server. Safe for concurrent use; requests
// are serialized on the single connection.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
}

type response struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Connect dials oxidb-server at host:port.
func Connect(host string, port int, timeout time.Duration) (*Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("oxidb: connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) writeFrame(data []byte) error {
	frame := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	_, err := c.conn.Write(frame)
	return err
}

func (c *Client) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.conn, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("oxidb: read length: %w", err)
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length > maxFrame {
		return nil, fmt.Errorf("oxidb: frame of %d bytes exceeds limit", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("oxidb: read payload: %w", err)
	}
	return payload, nil
}

// do sends one command and decodes the data member of a successful reply
// into out (when out is non-nil). The context deadline bounds the round trip.
func (c *Client) do(ctx context.Context, cmd map[string]any, out any) error {
	req, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("oxidb: marshal request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("oxidb: set deadline: %w", err)
	}
	if err := c.writeFrame(req); err != nil {
		return fmt.Errorf("oxidb: send: %w", err)
	}
	raw, err := c.readFrame()
	if err != nil {
		return err
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("oxidb: unmarshal response: %w", err)
	}
	if !resp.OK {
		return serverError(resp.Error)
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("oxidb: decode %v data: %w", cmd["cmd"], err)
	}
	return nil
}

// Ping checks the connection. The server answers "pong".
func (c *Client) Ping(ctx context.Context) (string, error) {
	var pong string
	err := c.do(ctx, map[string]any{"cmd": "ping"}, &pong)
	return pong, err
}

// Insert stores one document and returns the server-assigned ID.
func (c *Client) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	var result map[string]any
	if err := c.do(ctx, map[string]any{"cmd": "insert", "collection": collection, "doc": doc}, &result); err != nil {
		return "", err
	}
	switch id := result["id"].(type) {
	case string:
		return id, nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	}
	return "", nil
}

// Count returns the number of documents matching query.
func (c *Client) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, map[string]any{"cmd": "count", "collection": collection, "query": query}, &result)
	return result.Count, err
}

// CreateIndex creates a non-unique index on field.
func (c *Client) CreateIndex(ctx context.Context, collection, field string) error {
	return c.do(ctx, map[string]any{"cmd": "create_index", "collection": collection, "field": field}, nil)
}

// CreateUniqueIndex creates a unique index on field.
func (c *Client) CreateUniqueIndex(ctx context.Context, collection, field string) error {
	return c.do(ctx, map[string]any{"cmd": "create_unique_index", "collection": collection, "field": field}, nil)
}
