// Package chaos implements per-route latency and fault injection for the
// dispatch pipeline's chaos pre-phase.
//
// Each RouteConfig may carry a RouteLatencyConfig and/or a
// RouteFaultInjectionConfig. On every request the Injector:
//
//  1. Rolls an independent probability for latency; if it fires, computes a
//     delay from the configured distribution (Fixed, Uniform, Normal,
//     Exponential), applies jitter, and suspends the calling goroutine via a
//     cancellable sleep.
//  2. Rolls a second independent probability for faults; if it fires, picks
//     one of the configured fault variants uniformly at random and returns it
//     to short-circuit the remainder of the dispatch pipeline.
//
// Both probabilities are clamped to [0,1] at construction time so a
// misconfigured value never panics or behaves as "always"/"never"
// unexpectedly.
package chaos
