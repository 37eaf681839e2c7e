// Package trace drives the integrator across the charts of an atlas.
//
// Four controllers share one stepping skeleton:
//
//   - SeparatrixTracer follows a separatrix from the local manifold of a
//     singular point, optionally through a blow-up.
//   - OrbitTracer follows the orbit of an arbitrary point.
//   - LimitCycleSearch integrates seeds on a transverse section and records
//     the return map.
//   - CurveTracer traces the zero set of the common factor chart by chart.
//
// Controllers are cooperative: Start prepares a session, every Continue call
// does a bounded amount of work and returns, and Finish closes the session.
// A step either commits a whole point or leaves the session untouched, so a
// session interrupted by Cancel or by its context keeps a consistent prefix.
//
// Controllers are not safe for concurrent use, except Cancel, which may be
// called from any goroutine.
package trace
