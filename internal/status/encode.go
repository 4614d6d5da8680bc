// internal/status/encode.go
package status

import "math"

// Block is the watchdog state the status block sink is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Block struct {
	Health         uint16
	RecoveryState  uint16
	FailureStreak  uint16
	SecondsFailing uint16
	LastOutcome    uint16
	RemainingMiB   uint32
	RateKiB        uint16
}

// WithProgress returns b with the progress fields taken from a snapshot.
func (b Block) WithProgress(s Snapshot) Block {
	mib := s.RemainingBytes / (1 << 20)
	switch {
	case mib < 0:
		b.RemainingMiB = 0
	case mib > math.MaxUint32:
		b.RemainingMiB = math.MaxUint32
	default:
		b.RemainingMiB = uint32(mib)
	}

	kib := s.RateBytesPerSec / 1024
	switch {
	case kib <= 0:
		b.RateKiB = 0
	case kib >= math.MaxUint16:
		b.RateKiB = math.MaxUint16
	default:
		b.RateKiB = uint16(kib)
	}
	return b
}

// Encode converts a Block into the live-status part of a full block.
// Name slots are left zero. Layout is protocol-locked.
// No IO. No side effects.
func Encode(b Block) []uint16 {
	regs := make([]uint16, SlotsPerInstance)

	regs[SlotHealthCode] = b.Health
	regs[SlotRecoveryState] = b.RecoveryState
	regs[SlotFailureStreak] = b.FailureStreak
	regs[SlotSecondsFailing] = b.SecondsFailing
	regs[SlotLastOutcome] = b.LastOutcome
	regs[SlotRemainingMiBHi] = uint16(b.RemainingMiB >> 16)
	regs[SlotRemainingMiBLo] = uint16(b.RemainingMiB)
	regs[SlotRateKiB] = b.RateKiB

	return regs
}

// EncodeName fills the name registers, two characters per register with
// the first one in the high byte. Characters past NameMaxChars are cut,
// anything outside printable ASCII becomes '?', unused bytes stay zero.
func EncodeName(name string) []uint16 {
	var raw [2 * SlotNameSlots]byte
	for i := 0; i < len(name) && i < NameMaxChars; i++ {
		raw[i] = printable(name[i])
	}

	regs := make([]uint16, SlotNameSlots)
	for i := range regs {
		regs[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return regs
}

func printable(c byte) byte {
	if c < ' ' || c > '~' {
		return '?'
	}
	return c
}
