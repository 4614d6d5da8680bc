// internal/notify/modbus/client_test.go
package modbus

import (
	"bytes"
	"testing"
	"time"
)

func TestNewBlockClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewBlockClient(Config{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestNewBlockClient_DoesNotDial(t *testing.T) {
	// nothing listens here; construction must still succeed
	c, err := NewBlockClient(Config{Endpoint: "127.0.0.1:1", Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Endpoint() != "127.0.0.1:1" {
		t.Fatalf("endpoint: got %q", c.Endpoint())
	}
	if err := c.WriteRegisters(1, 0, nil); err != nil {
		t.Fatalf("empty write must be a no-op, got %v", err)
	}
	_ = c.Close()
}

func TestEncodeRegisters_BigEndian(t *testing.T) {
	got := encodeRegisters([]uint16{0x0102, 0xA0B0, 0x0000})
	want := []byte{0x01, 0x02, 0xA0, 0xB0, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}
