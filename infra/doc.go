// Package infra holds the technical adapters behind the core contracts:
// the Paho offer client and pool discovery, metrics exporters, log and KPI
// stores, the drive-time routing client and the Sentry monitor. Adapters
// depend on core interfaces only, never the other way around.
package infra
