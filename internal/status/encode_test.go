// internal/status/encode_test.go
package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_SlotPlacement(t *testing.T) {
	regs := Encode(Block{
		Health:         HealthCode(HealthStalled),
		RecoveryState:  2,
		FailureStreak:  4,
		SecondsFailing: 90,
		LastOutcome:    OutcomeCode(OutcomeFailed),
		RemainingMiB:   0x00012345,
		RateKiB:        512,
	})

	require.Len(t, regs, SlotsPerInstance)
	assert.Equal(t, uint16(3), regs[SlotHealthCode])
	assert.Equal(t, uint16(2), regs[SlotRecoveryState])
	assert.Equal(t, uint16(4), regs[SlotFailureStreak])
	assert.Equal(t, uint16(90), regs[SlotSecondsFailing])
	assert.Equal(t, uint16(2), regs[SlotLastOutcome])
	assert.Equal(t, uint16(0x0001), regs[SlotRemainingMiBHi])
	assert.Equal(t, uint16(0x2345), regs[SlotRemainingMiBLo])
	assert.Equal(t, uint16(512), regs[SlotRateKiB])

	for i := SlotReservedStart; i <= SlotNameEnd; i++ {
		assert.Zero(t, regs[i], "slot %d", i)
	}
}

func TestWithProgress_Saturates(t *testing.T) {
	b := Block{}.WithProgress(Snapshot{
		RemainingBytes:  -1,
		RateBytesPerSec: 1 << 40,
	})
	assert.Equal(t, uint32(0), b.RemainingMiB)
	assert.Equal(t, uint16(65535), b.RateKiB)

	b = Block{}.WithProgress(Snapshot{
		RemainingBytes:  10 << 20,
		RateBytesPerSec: 2048,
	})
	assert.Equal(t, uint32(10), b.RemainingMiB)
	assert.Equal(t, uint16(2), b.RateKiB)
}

func TestEncodeName_TruncatesAndSanitizes(t *testing.T) {
	regs := EncodeName("sab\x01watch-instance-01")
	require.Len(t, regs, SlotNameSlots)

	assert.Equal(t, uint16('s')<<8|uint16('a'), regs[0])
	assert.Equal(t, uint16('b')<<8|uint16('?'), regs[1])
	// 16 chars max: "sab?watch-instan"
	assert.Equal(t, uint16('a')<<8|uint16('n'), regs[7])
}

func TestEncodeName_ShortNameZeroPadded(t *testing.T) {
	regs := EncodeName("abc")
	require.Len(t, regs, SlotNameSlots)

	assert.Equal(t, uint16('a')<<8|uint16('b'), regs[0])
	assert.Equal(t, uint16('c')<<8, regs[1])
	for i := 2; i < SlotNameSlots; i++ {
		assert.Zero(t, regs[i], "slot %d", i)
	}
}

func TestParseServiceState(t *testing.T) {
	cases := map[string]ServiceState{
		"Idle":        ServiceIdle,
		"DOWNLOADING": ServiceDownloading,
		" paused ":    ServicePaused,
		"Error":       ServiceError,
	}
	for in, want := range cases {
		got, ok := ParseServiceState(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseServiceState("Propagating")
	assert.False(t, ok)
}

func TestHealthCode_UnknownIsZero(t *testing.T) {
	assert.Equal(t, uint16(1), HealthCode(HealthHealthy))
	assert.Equal(t, uint16(4), HealthCode(HealthUnreachable))
	assert.NotEqual(t, CodeUnknown, HealthCode(HealthHealthy))
}
