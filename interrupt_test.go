package steering

import (
	"errors"
	"testing"
)

func TestGuard_EmptyChannel(t *testing.T) {
	g := NewGuard(NewInterruptChannel())
	for i := 0; i < 3; i++ {
		if err := g.Check(); err != nil {
			t.Fatalf("Check() on empty channel = %v, want nil", err)
		}
	}
}

func TestGuard_SignalRaisesAndDrains(t *testing.T) {
	ch := NewInterruptChannel()
	g := NewGuard(ch)

	ch.Signal()
	if err := g.Check(); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Check() = %v, want ErrInterrupted", err)
	}
	// Drained; the next turn must not see a stale signal.
	if err := g.Check(); err != nil {
		t.Fatalf("Check() after drain = %v, want nil", err)
	}
}

func TestGuard_DrainsAllPendingSignals(t *testing.T) {
	ch := NewInterruptChannel()
	g := NewGuard(ch)

	for i := 0; i < 5; i++ {
		ch.Signal()
	}
	if err := g.Check(); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Check() = %v, want ErrInterrupted", err)
	}
	if err := g.Check(); err != nil {
		t.Fatalf("Check() after drain = %v, want nil; pending signals leaked", err)
	}
}

func TestInterruptChannel_SignalNeverBlocks(t *testing.T) {
	ch := NewInterruptChannel()
	// Far past the buffer; extra signals are dropped, not queued.
	for i := 0; i < interruptBuffer*3; i++ {
		ch.Signal()
	}
	if err := NewGuard(ch).Check(); !errors.Is(err, ErrInterrupted) {
		t.Fatal("signal not observed after overflow")
	}
}
