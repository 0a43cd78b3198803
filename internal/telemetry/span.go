// internal/telemetry/span.go
// Package telemetry wraps OpenTelemetry spans around engine operations
// (call_at, call_and_revert, advance_time, reset) and, repurposing the teacher's
// goroutine-id trick, lets internal/core assert its single-owning-task
// invariant (spec.md §5): the engine is single-threaded cooperative, and a
// call arriving from a different goroutine than the one that constructed
// the CoreState is an engine bug (spec.md §7 "assertion failures indicate
// an engine bug"), not a recoverable condition.
//
// No span exporter is attached to the default TracerProvider returned by
// Provider(): spans are created and ended in-process only. This keeps
// observability ambient stack intact without reintroducing the network
// transport the spec marks a non-goal.
package telemetry

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	otrace "go.opentelemetry.io/otel/trace"
)

const attrEngineIDKey = "riftcore.engine_id"
const attrJournalLenKey = "riftcore.journal_length"

// Provider returns a process-local TracerProvider with no span exporter
// registered. Embedders that want spans shipped somewhere can call
// otel.SetTracerProvider with their own provider before constructing a
// CoreState; RiftCore never does that itself.
func Provider() *trace.TracerProvider {
	return trace.NewTracerProvider()
}

// Tracer returns the global tracer under the "riftcore" instrumentation
// name.
func Tracer() otrace.Tracer { return otel.Tracer("riftcore") }

// StartSpan starts a child span named op, tagged with engineID and the
// current journal length so concurrent-engine test harnesses can tell
// spans apart in shared trace output.
func StartSpan(ctx context.Context, op, engineID string, journalLen int) (context.Context, otrace.Span) {
	return Tracer().Start(ctx, op, otrace.WithAttributes(
		attribute.String(attrEngineIDKey, engineID),
		attribute.Int(attrJournalLenKey, journalLen),
	))
}

// GoroutineID returns the numeric ID of the current goroutine by parsing
// the stack trace header. Cheap (~30ns) and safe because the header format
// is stable since Go 1.4.
func GoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	if len(fields) == 0 {
		return 0
	}
	id, _ := strconv.ParseUint(fields[0], 10, 64)
	return id
}
