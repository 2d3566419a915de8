// Package dispatch wires the request-handling pipeline end to end:
// fingerprint the inbound request, roll chaos (latency/fault), consult
// the priority-ordered response sources (fixture, recorded replay, proxy,
// stateful, mock/OpenAPI), and fire a recorder exchange — all behind a
// single http.Handler.
//
// Pipeline failures are typed (RouteNotFoundError, ValidationFailedError,
// PredicateError, UpstreamUnavailableError, FaultInjectedError,
// StatefulConflictError, RecorderOverflowError, ChainStepFailedError), and
// WriteError is the one place that turns them into an HTTP response. An
// injected chaos fault and a recovered panic are written directly with
// http.Error instead.
package dispatch
