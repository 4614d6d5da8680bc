// internal/notify/statusblock.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tamzrod/sabwatch/internal/status"
)

// registerWriter is the exact contract the status block sink uses.
type registerWriter interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusBlockConfig places the block in the endpoint's memory.
type StatusBlockConfig struct {
	UnitID       uint8
	BaseSlot     uint16 // block index; address = BaseSlot * SlotsPerInstance
	InstanceName string
}

// StatusBlockSink mirrors watchdog state into Modbus holding registers.
// It writes the state it is given verbatim. No interpretation.
type StatusBlockSink struct {
	cfg StatusBlockConfig
	cli registerWriter

	needFull bool
	last     status.Block
	nameRegs []uint16
}

// NewStatusBlockSink creates the sink. The first delivery writes the full block.
func NewStatusBlockSink(cfg StatusBlockConfig, cli registerWriter) (*StatusBlockSink, error) {
	if cli == nil {
		return nil, errors.New("status block: client is nil")
	}
	if uint32(cfg.BaseSlot)*status.SlotsPerInstance+status.SlotsPerInstance > math.MaxUint16+1 {
		return nil, fmt.Errorf("status block: base slot %d out of range", cfg.BaseSlot)
	}
	return &StatusBlockSink{
		cfg:      cfg,
		cli:      cli,
		needFull: true,
		last:     status.Block{Health: status.CodeUnknown},
		nameRegs: status.EncodeName(cfg.InstanceName),
	}, nil
}

func (sw *StatusBlockSink) Name() string { return "status_block" }

// Send delivers the state carried by e.
// On any write failure, the next successful call re-asserts the full block.
func (sw *StatusBlockSink) Send(_ context.Context, e Event) error {
	return sw.write(blockFromEvent(e))
}

func blockFromEvent(e Event) status.Block {
	b := status.Block{
		Health:        status.HealthCode(e.Health),
		RecoveryState: e.Recovery.Code(),
		FailureStreak: saturate16(int64(e.Streak)),
		LastOutcome:   status.OutcomeCode(e.Outcome),
	}
	if !e.FailingSince.IsZero() {
		b.SecondsFailing = saturate16(int64(e.At.Sub(e.FailingSince).Seconds()))
	}
	return b.WithProgress(status.Snapshot{
		RemainingBytes:  e.RemainingBytes,
		RateBytesPerSec: e.RateBytesPerSec,
	})
}

func (sw *StatusBlockSink) write(b status.Block) error {
	baseAddr := sw.baseAddr()
	unitID := sw.cfg.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		regs := status.Encode(b)
		copy(regs[status.SlotNameStart:], sw.nameRegs)

		if err := sw.cli.WriteRegisters(unitID, baseAddr, regs); err != nil {
			sw.needFull = true
			return fmt.Errorf("status block: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = b
		return nil
	}

	// ------------------------------------------------------------
	// Changed slots only
	// ------------------------------------------------------------
	cur := status.Encode(b)
	prev := status.Encode(sw.last)

	var errs []string
	for slot := 0; slot < status.SlotNameStart; slot++ {
		if cur[slot] == prev[slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(unitID, baseAddr+uint16(slot), cur[slot:slot+1]); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return errors.New("status block: " + strings.Join(errs, " | "))
	}

	sw.last = b
	return nil
}

func (sw *StatusBlockSink) baseAddr() uint16 {
	// Each instance owns a fixed SlotsPerInstance block.
	return sw.cfg.BaseSlot * status.SlotsPerInstance
}

func saturate16(v int64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}
