// Package mock provides deterministic test doubles for the ai interfaces.
// Behavior can be injected through the exported function fields; the defaults
// are deterministic so tests stay reproducible without external services.
package mock
