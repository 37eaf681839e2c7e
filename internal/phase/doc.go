// Package phase holds the shared vocabulary of the phase-portrait engine.
//
// It defines:
//
//   - [ChartID]: the closed set of charts covering the compactified plane
//   - [OrbitPoint]: one drawable point of a traced curve
//   - [IntegrationConfig]: step-size bounds and tolerance of a trace session
//   - [Results]: the explicit context object every session is built from
//   - [TraceState]: direction, curve side, chart and type of a running trace
//   - [Classify]: the color policy for traced segments
//
// # Results
//
// Results replaces process-wide "current results" state. It is read-only
// while a session runs and may only be mutated between sessions:
//
//	res := phase.NewResults(field)
//	res.Integration.Tolerance = 1e-9
//	sep := trace.NewSeparatrixTracer(res)
package phase
