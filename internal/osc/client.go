package osc

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	goosc "github.com/hypebeast/go-osc/osc"
)

// ClientConfig holds the outbound target.
type ClientConfig struct {
	Host string
	Port int
}

// ClientStats holds sender statistics.
type ClientStats struct {
	MessagesTx uint64
	SendErrors uint64
}

// Client sends OSC messages over UDP. Delivery is best effort.
type Client struct {
	cfg    ClientConfig
	client *goosc.Client

	messagesTx atomic.Uint64
	sendErrors atomic.Uint64
}

// NewClient creates a sender for the configured host and port.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: goosc.NewClient(cfg.Host, cfg.Port),
	}
}

// SendMessage sends a single message. Go int values are narrowed to int32;
// other argument types must be ones OSC can encode.
func (c *Client) SendMessage(address string, args ...any) error {
	if !strings.HasPrefix(address, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	msg := goosc.NewMessage(address)
	for i, arg := range args {
		v, err := normaliseArg(arg)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		msg.Append(v)
	}

	if err := c.client.Send(msg); err != nil {
		c.sendErrors.Add(1)
		return fmt.Errorf("%w: %s to %s: %w", ErrSendFailed, address, c.Target(), err)
	}
	c.messagesTx.Add(1)
	return nil
}

func normaliseArg(arg any) (any, error) {
	switch v := arg.(type) {
	case int:
		return int32(v), nil //nolint:gosec // OSC int is 32-bit
	case int32, int64, float32, float64, string, bool, []byte, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedArgument, arg)
	}
}

// Target returns the host:port messages are sent to.
func (c *Client) Target() string {
	return net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

// Stats returns current sender statistics.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		MessagesTx: c.messagesTx.Load(),
		SendErrors: c.sendErrors.Load(),
	}
}
