// internal/notify/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// BlockClient pushes status blocks to one Modbus TCP endpoint.
// Requests are serialized because SlaveId is set per write.
// The connection is opened on first use and dropped after a failed
// write, so a restarted endpoint is picked up on the next call.
type BlockClient struct {
	mu     sync.Mutex
	target string
	tcp    *modbus.TCPClientHandler
	mb     modbus.Client
	open   bool
}

// Config selects the endpoint ("host:port") and the per-request timeout.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewBlockClient(cfg Config) (*BlockClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("notify modbus: endpoint required")
	}

	tcp := modbus.NewTCPClientHandler(cfg.Endpoint)
	tcp.Timeout = cfg.Timeout

	return &BlockClient{
		target: cfg.Endpoint,
		tcp:    tcp,
		mb:     modbus.NewClient(tcp),
	}, nil
}

// Endpoint returns the configured target address.
func (c *BlockClient) Endpoint() string { return c.target }

func (c *BlockClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return c.tcp.Close()
}

// WriteRegisters writes holding registers (FC16) starting at addr.
func (c *BlockClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if len(regs) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureOpen(); err != nil {
		return err
	}
	c.tcp.SlaveId = unitID

	if _, err := c.mb.WriteMultipleRegisters(addr, uint16(len(regs)), encodeRegisters(regs)); err != nil {
		c.drop()
		return fmt.Errorf("write %d registers at %d on %s: %w", len(regs), addr, c.target, err)
	}
	return nil
}

// ensureOpen must be called with mu held.
func (c *BlockClient) ensureOpen() error {
	if c.open {
		return nil
	}
	if err := c.tcp.Connect(); err != nil {
		return fmt.Errorf("connect %s: %w", c.target, err)
	}
	c.open = true
	return nil
}

// drop must be called with mu held.
func (c *BlockClient) drop() {
	_ = c.tcp.Close()
	c.open = false
}

// encodeRegisters lays registers out big-endian (Modbus wire order).
func encodeRegisters(regs []uint16) []byte {
	out := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}
