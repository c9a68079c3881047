// Package metrics defines the sink contracts for dispatch observability.
// Sinks like PromSink and InfluxSink (infra/metrics) record recommendation
// slates, offers, acks and discovery cycles, and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured; optional capabilities (latency, pool
// size, fallbacks) are detected per sink via interface assertion.
package metrics
