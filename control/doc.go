// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics telemetry for the hioload-mux selector: selection cycle
// counters and durations, registration gauges, wakeup and error counters.
// Collectors are registered against an injectable prometheus.Registerer so
// embedding applications keep full control of their metrics namespace.
package control
