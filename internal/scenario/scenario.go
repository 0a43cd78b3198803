// Package scenario implements the gzip-JSON trace file format consumed and
// produced by cmd/riftctl's run/inspect sub-commands (the SUPPLEMENTED
// FEATURES "Scenario file format", not part of the core algorithm).
//
// The format follows the same convention as other gzip-framed recording
// file types in this codebase: a gzip-compressed JSON payload, read and
// written with compress/gzip + encoding/json rather than a bespoke binary
// encoding.
package scenario

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/riftcore/engine/internal/core"
	"github.com/riftcore/engine/pkg/timestamp"
)

// Op names the operation a Record drives against a core.CoreState.
type Op string

const (
	OpCallAt      Op = "call_at"
	OpCallRevert  Op = "call_and_revert"
	OpAdvanceTime Op = "advance_time"
	OpReset       Op = "reset"
	OpForget      Op = "forget_before"
)

// Record is one ordered entry of a trace file.
type Record struct {
	Op Op `json:"op"`

	// call_at / call_and_revert
	Time     int64    `json:"time,omitempty"`
	Offset   int64    `json:"offset,omitempty"`
	PlayerID int64    `json:"player_id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Args     []uint64 `json:"args,omitempty"`

	// advance_time
	Delta int64 `json:"delta,omitempty"`

	// reset
	MemoryImageBase64 []byte `json:"memory_image,omitempty"`
	NewCurrentTime    int64  `json:"new_current_time,omitempty"`
	NewNextFireTime   int64  `json:"new_next_fire_time,omitempty"`

	// forget_before
	ForgetTime int64 `json:"forget_time,omitempty"`
}

// Trace is an ordered sequence of Records, the unit stored in a .riftt file.
type Trace struct {
	Records []Record `json:"records"`
}

// Encode gzip-compresses the JSON encoding of tr, the .riftt on-disk format.
func Encode(tr Trace) ([]byte, error) {
	payload, err := json.Marshal(tr)
	if err != nil {
		return nil, fmt.Errorf("scenario: marshal trace: %w", err)
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(payload); err != nil {
		_ = gw.Close()
		return nil, fmt.Errorf("scenario: gzip encode: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("scenario: gzip encode: close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) (Trace, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return Trace{}, fmt.Errorf("scenario: gzip decode: %w", err)
	}
	defer gr.Close()

	raw, err := io.ReadAll(gr)
	if err != nil {
		return Trace{}, fmt.Errorf("scenario: gzip decode: %w", err)
	}

	var tr Trace
	if err := json.Unmarshal(raw, &tr); err != nil {
		return Trace{}, fmt.Errorf("scenario: unmarshal trace: %w", err)
	}
	return tr, nil
}

// Run applies every Record in tr, in order, against cs. It is the driver
// behind `cmd/riftctl run`.
func Run(ctx context.Context, cs *core.CoreState, tr Trace) error {
	for i, r := range tr.Records {
		if err := apply(ctx, cs, r); err != nil {
			return fmt.Errorf("scenario: record %d (%s): %w", i, r.Op, err)
		}
	}
	return nil
}

func apply(ctx context.Context, cs *core.CoreState, r Record) error {
	switch r.Op {
	case OpCallAt:
		return cs.CallAt(ctx, timestamp.Timestamp{Time: r.Time, Offset: r.Offset, PlayerID: r.PlayerID}, r.Name, r.Args)
	case OpCallRevert:
		return cs.CallAndRevert(ctx, r.Name, r.Args)
	case OpAdvanceTime:
		return cs.AdvanceTime(ctx, r.Delta)
	case OpReset:
		return cs.Reset(ctx, r.MemoryImageBase64, r.NewCurrentTime, r.NewNextFireTime)
	case OpForget:
		cs.ForgetBefore(r.ForgetTime)
		return nil
	default:
		return fmt.Errorf("unknown op %q", r.Op)
	}
}
