package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/riftcore/engine/pkg/journal"
)

func TestResetClearsJournalAndCallLog(t *testing.T) {
	cs, _ := newTestEngine(t, TickConfig{})
	ctx := context.Background()

	if err := cs.CallAt(ctx, ts(1, 0, 0), "inc", nil); err != nil {
		t.Fatalf("CallAt: %v", err)
	}
	if cs.JournalLen() == 0 || cs.CallLogLen() == 0 {
		t.Fatalf("expected non-empty journal/call log before reset")
	}

	image := bytes.Repeat([]byte{0x01}, 65536)
	if err := cs.Reset(ctx, image, 100, 200); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if cs.JournalLen() != 0 {
		t.Errorf("journal length after reset = %d, want 0", cs.JournalLen())
	}
	if cs.CallLogLen() != 0 {
		t.Errorf("call log length after reset = %d, want 0", cs.CallLogLen())
	}
	if cs.CurrentTime() != 100 {
		t.Errorf("CurrentTime after reset = %d, want 100", cs.CurrentTime())
	}
	if cs.NextFireTime() != 200 {
		t.Errorf("NextFireTime after reset = %d, want 200", cs.NextFireTime())
	}
}

func TestResetSharesJournalWithVM(t *testing.T) {
	// Reset must mutate the Journal in place (Reset(), not a new instance)
	// since the VM's host callbacks hold the same pointer passed to Setup.
	j := journal.New()
	vm := newFakeVM(j, 1)
	cs, err := Setup(vm, j, TickConfig{}, true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	ctx := context.Background()

	if err := cs.CallAt(ctx, ts(1, 0, 0), "inc", nil); err != nil {
		t.Fatalf("CallAt: %v", err)
	}
	if err := cs.Reset(ctx, make([]byte, 65536), 0, 0); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if err := cs.CallAt(ctx, ts(1, 0, 0), "inc", nil); err != nil {
		t.Fatalf("CallAt after reset: %v", err)
	}
	if j.Len() != 1 {
		t.Errorf("vm's original Journal pointer sees len=%d after post-reset call, want 1 (same underlying Journal)", j.Len())
	}
}
