// internal/metrics/prom.go
// Package metrics centralises Prometheus metric registration for the
// RiftCore engine and its CLI. It exposes typed collectors and helper
// update functions so that code can remain import-cycle‑free. The package
// registers with the global prometheus.DefaultRegisterer, which callers
// typically expose via a /metrics HTTP handler from the Prometheus client
// library.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// Gauge metrics ---------------------------------------------------------
	JournalLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "riftcore",
		Subsystem: "engine",
		Name:      "journal_length",
		Help:      "Current number of undo records held by the Journal.",
	})

	CallLogLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "riftcore",
		Subsystem: "engine",
		Name:      "call_log_length",
		Help:      "Current number of entries held by the Call Log.",
	})

	Poisoned = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "riftcore",
		Subsystem: "engine",
		Name:      "poisoned",
		Help:      "1 if the engine is poisoned after a fatal rewind failure, else 0.",
	})

	// Counter metrics -------------------------------------------------------
	RewindsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riftcore",
		Subsystem: "engine",
		Name:      "rewinds_total",
		Help:      "Total number of rewind_to invocations.",
	})

	ReplaysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riftcore",
		Subsystem: "engine",
		Name:      "replays_total",
		Help:      "Total number of Call Log entries replayed after an insert.",
	})

	TicksFiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riftcore",
		Subsystem: "engine",
		Name:      "ticks_fired_total",
		Help:      "Total number of recurring-tick invocations synthesized by advance_time.",
	})

	CallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riftcore",
		Subsystem: "engine",
		Name:      "calls_total",
		Help:      "Total number of call_at invocations accepted.",
	})
)

// Register exports all metrics; safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			JournalLength,
			CallLogLength,
			Poisoned,
			RewindsTotal,
			ReplaysTotal,
			TicksFiredTotal,
			CallsTotal,
		)
	})
}

// UpdateGauges refreshes the gauges that reflect point-in-time engine
// state; counters are incremented directly at their call sites.
func UpdateGauges(journalLen, callLogLen int, poisoned bool) {
	JournalLength.Set(float64(journalLen))
	CallLogLength.Set(float64(callLogLen))
	if poisoned {
		Poisoned.Set(1)
	} else {
		Poisoned.Set(0)
	}
}
