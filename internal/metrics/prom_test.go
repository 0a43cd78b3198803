package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register() // must not panic on double registration
}

func TestUpdateGauges(t *testing.T) {
	Register()
	UpdateGauges(3, 5, false)
	if got := testutil.ToFloat64(JournalLength); got != 3 {
		t.Errorf("JournalLength = %v, want 3", got)
	}
	if got := testutil.ToFloat64(CallLogLength); got != 5 {
		t.Errorf("CallLogLength = %v, want 5", got)
	}
	if got := testutil.ToFloat64(Poisoned); got != 0 {
		t.Errorf("Poisoned = %v, want 0", got)
	}

	UpdateGauges(0, 0, true)
	if got := testutil.ToFloat64(Poisoned); got != 1 {
		t.Errorf("Poisoned = %v, want 1", got)
	}
}
