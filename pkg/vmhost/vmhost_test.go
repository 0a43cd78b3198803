package vmhost

import (
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/riftcore/engine/pkg/journal"
)

// Instantiating a real wazero runtime against compiled wasm bytes is not
// covered by any test in this repository: internal/core's scheduler tests
// drive the VM interface through a fake instead of vmhost.Instance. Here we
// cover the pure helpers that do not require a running guest.

func TestGlobalExportNameConvention(t *testing.T) {
	cases := map[uint32]string{0: "__global0", 1: "__global1", 41: "__global41"}
	for idx, want := range cases {
		if got := globalExportName(idx); got != want {
			t.Errorf("globalExportName(%d) = %q, want %q", idx, got, want)
		}
	}
}

func TestValueTypeMapping(t *testing.T) {
	cases := []struct {
		in   api.ValueType
		want journal.ValueType
	}{
		{api.ValueTypeI32, journal.TypeI32},
		{api.ValueTypeI64, journal.TypeI64},
		{api.ValueTypeF32, journal.TypeF32},
		{api.ValueTypeF64, journal.TypeF64},
	}
	for _, c := range cases {
		if got := valueType(c.in); got != c.want {
			t.Errorf("valueType(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTypedConstructorsRoundTrip(t *testing.T) {
	i32 := NewI32(-7)
	if i32.Type != journal.TypeI32 || int32(uint32(i32.Bits)) != -7 {
		t.Errorf("NewI32 round trip failed: %+v", i32)
	}
	i64 := NewI64(-123456789)
	if i64.Type != journal.TypeI64 || int64(i64.Bits) != -123456789 {
		t.Errorf("NewI64 round trip failed: %+v", i64)
	}
	f32 := NewF32(3.5)
	if f32.Type != journal.TypeF32 {
		t.Errorf("NewF32 wrong type: %+v", f32)
	}
	f64 := NewF64(2.718281828)
	if f64.Type != journal.TypeF64 {
		t.Errorf("NewF64 wrong type: %+v", f64)
	}
}
