package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/ginn/internal/runtimepath"
)

// DefaultTimeout bounds a whole request, including a reload on the daemon.
const DefaultTimeout = 5 * time.Second

// ErrDaemon wraps errors reported by the daemon itself.
var ErrDaemon = errors.New("daemon error")

// Client talks to a running daemon. Every call opens its own connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient targets the socket in the runtime directory. Resolution
// failures surface on the first call.
func NewClient() *Client {
	socketPath, _ := runtimepath.SocketPath()
	return NewClientAt(socketPath, DefaultTimeout)
}

func NewClientAt(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{socketPath: socketPath, timeout: timeout}
}

// call sends one command and decodes the response data into out, which
// may be nil.
func (c *Client) call(command CommandType, out interface{}) error {
	if c.socketPath == "" {
		return fmt.Errorf("failed to connect to daemon: no runtime directory")
	}
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}

	data, err := json.Marshal(&Request{Command: command})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return fmt.Errorf("%w: %s", ErrDaemon, resp.Error)
	}

	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload asks the daemon to reload its wish files and waits for the result.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil)
}

func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListWatches retrieves the live (window, wish) bindings.
func (c *Client) ListWatches() (*WatchesData, error) {
	var data WatchesData
	if err := c.call(CommandListWatches, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) ListWishes() (*WishesData, error) {
	var data WishesData
	if err := c.call(CommandListWishes, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	return c.call(CommandGetStatus, nil)
}
