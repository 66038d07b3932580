package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/morrowland-code/morrowland77777/pkg/protocol"
)

const DefaultCallTimeout = 30 * time.Second

type Client struct {
	conn    *jsonrpc2.Conn
	timeout time.Duration
}

// Dial connects to a running daemon.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	netConn, err := NewSocketConnector(socketPath).Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}

	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.PlainObjectCodec{})
	return &Client{
		conn:    jsonrpc2.NewConn(context.Background(), stream, clientHandler{}),
		timeout: DefaultCallTimeout,
	}, nil
}

// The service never calls back into clients.
type clientHandler struct{}

func (clientHandler) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.conn.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) (protocol.HealthResponse, error) {
	var resp protocol.HealthResponse
	err := c.call(ctx, protocol.MethodPing, nil, &resp)
	return resp, err
}

// Lookup asks for one code; an empty code asks for the default code.
func (c *Client) Lookup(ctx context.Context, code string) (protocol.LookupResult, error) {
	var resp protocol.LookupResult
	err := c.call(ctx, protocol.MethodLookup, protocol.LookupParams{Code: code}, &resp)
	return resp, err
}

func (c *Client) Audit(ctx context.Context) (protocol.AuditResult, error) {
	var resp protocol.AuditResult
	err := c.call(ctx, protocol.MethodAudit, nil, &resp)
	return resp, err
}

func (c *Client) Stats(ctx context.Context) (protocol.StatsResult, error) {
	var resp protocol.StatsResult
	err := c.call(ctx, protocol.MethodStats, nil, &resp)
	return resp, err
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
