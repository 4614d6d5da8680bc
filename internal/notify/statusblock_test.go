// internal/notify/statusblock_test.go
package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/sabwatch/internal/policy"
	"github.com/tamzrod/sabwatch/internal/status"
)

// ---- fake register client ----

type fakeRegisterClient struct {
	writes []regWrite
	fail   bool
}

type regWrite struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

func (f *fakeRegisterClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail {
		return errors.New("connection refused")
	}
	cp := append([]uint16(nil), regs...)
	f.writes = append(f.writes, regWrite{unitID: unitID, addr: addr, regs: cp})
	return nil
}

func (f *fakeRegisterClient) last() regWrite {
	return f.writes[len(f.writes)-1]
}

func statusEvent(h status.Health, at time.Time) Event {
	e := NewEvent(KindStatus, at)
	e.Health = h
	return e
}

func newBlockSink(t *testing.T, cli *fakeRegisterClient, base uint16) *StatusBlockSink {
	t.Helper()
	sw, err := NewStatusBlockSink(StatusBlockConfig{UnitID: 1, BaseSlot: base, InstanceName: "SABWATCH-01"}, cli)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	return sw
}

func TestInstanceNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newBlockSink(t, cli, 2)
	now := time.Now()

	// ---- first write: FULL ASSERT ----
	if err := sw.Send(context.Background(), statusEvent(status.HealthHealthy, now)); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	w := cli.last()
	if len(w.regs) != status.SlotsPerInstance {
		t.Fatalf("expected full block write (%d regs), got %d", status.SlotsPerInstance, len(w.regs))
	}
	if w.addr != 2*status.SlotsPerInstance {
		t.Fatalf("unexpected base addr: got=%d want=%d", w.addr, 2*status.SlotsPerInstance)
	}
	if w.unitID != 1 {
		t.Fatalf("unexpected unit id: %d", w.unitID)
	}

	expectedName := status.EncodeName("SABWATCH-01")
	for i := 0; i < status.SlotNameSlots; i++ {
		slot := status.SlotNameStart + i
		if w.regs[slot] != expectedName[i] {
			t.Fatalf("name slot %d mismatch: got=%d want=%d", slot, w.regs[slot], expectedName[i])
		}
	}
	if w.regs[status.SlotHealthCode] != status.HealthCode(status.HealthHealthy) {
		t.Fatalf("health slot: got=%d", w.regs[status.SlotHealthCode])
	}

	// ---- second write: INCREMENTAL ONLY ----
	if err := sw.Send(context.Background(), statusEvent(status.HealthSuspect, now)); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	w = cli.last()
	if len(w.regs) != 1 || w.addr != 2*status.SlotsPerInstance+status.SlotHealthCode {
		t.Fatalf("expected single health slot write, got addr=%d len=%d", w.addr, len(w.regs))
	}
	if len(cli.writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(cli.writes))
	}
}

func TestUnchangedStateWritesNothing(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newBlockSink(t, cli, 0)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := sw.Send(context.Background(), statusEvent(status.HealthHealthy, now)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}
	if len(cli.writes) != 1 {
		t.Fatalf("expected only the initial full write, got %d writes", len(cli.writes))
	}
}

func TestFailureForcesFullReassert(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newBlockSink(t, cli, 0)
	now := time.Now()

	if err := sw.Send(context.Background(), statusEvent(status.HealthHealthy, now)); err != nil {
		t.Fatalf("initial write failed: %v", err)
	}

	cli.fail = true
	if err := sw.Send(context.Background(), statusEvent(status.HealthStalled, now)); err == nil {
		t.Fatalf("expected write error")
	}

	cli.fail = false
	if err := sw.Send(context.Background(), statusEvent(status.HealthStalled, now)); err != nil {
		t.Fatalf("write after failure: %v", err)
	}
	if len(cli.last().regs) != status.SlotsPerInstance {
		t.Fatalf("expected full block after failure, got %d regs", len(cli.last().regs))
	}
}

func TestSecondsFailingResetOnRecovery(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newBlockSink(t, cli, 0)
	now := time.Now()

	failing := statusEvent(status.HealthStalled, now)
	failing.FailingSince = now.Add(-90 * time.Second)
	failing.Recovery = policy.StateBackoff
	failing.Streak = 2
	failing.Outcome = status.OutcomeFailed

	if err := sw.Send(context.Background(), failing); err != nil {
		t.Fatalf("failing write: %v", err)
	}
	regs := cli.last().regs
	if regs[status.SlotSecondsFailing] != 90 {
		t.Fatalf("seconds failing: got=%d want=90", regs[status.SlotSecondsFailing])
	}
	if regs[status.SlotRecoveryState] != policy.StateBackoff.Code() {
		t.Fatalf("recovery state: got=%d", regs[status.SlotRecoveryState])
	}
	if regs[status.SlotFailureStreak] != 2 {
		t.Fatalf("streak: got=%d", regs[status.SlotFailureStreak])
	}
	if regs[status.SlotLastOutcome] != status.OutcomeCode(status.OutcomeFailed) {
		t.Fatalf("outcome: got=%d", regs[status.SlotLastOutcome])
	}

	healthy := statusEvent(status.HealthHealthy, now.Add(time.Minute))
	healthy.Outcome = status.OutcomeFailed
	if err := sw.Send(context.Background(), healthy); err != nil {
		t.Fatalf("recovery write: %v", err)
	}

	var sawReset bool
	for _, w := range cli.writes[1:] {
		if w.addr == status.SlotSecondsFailing && len(w.regs) == 1 && w.regs[0] == 0 {
			sawReset = true
		}
	}
	if !sawReset {
		t.Fatalf("seconds_failing not reset on recovery")
	}
}

func TestBlockFromEventSaturates(t *testing.T) {
	now := time.Now()
	e := statusEvent(status.HealthStalled, now)
	e.FailingSince = now.Add(-48 * time.Hour)
	e.Streak = 1 << 20

	b := blockFromEvent(e)
	if b.SecondsFailing != 65535 {
		t.Fatalf("seconds failing must saturate, got %d", b.SecondsFailing)
	}
	if b.FailureStreak != 65535 {
		t.Fatalf("streak must saturate, got %d", b.FailureStreak)
	}
}

func TestNewStatusBlockSinkRejectsOutOfRangeBase(t *testing.T) {
	if _, err := NewStatusBlockSink(StatusBlockConfig{BaseSlot: 4000}, &fakeRegisterClient{}); err == nil {
		t.Fatalf("expected base slot error")
	}
}
