package dispatch

import (
	"net/http"

	"github.com/mockforge/mockforge/pkg/httputil"
)

// RouteNotFoundError means no response source claimed the request.
type RouteNotFoundError struct {
	Method string
	Path   string
}

func (e *RouteNotFoundError) Error() string {
	return "dispatch: no route matched " + e.Method + " " + e.Path
}

// ValidationFailedError wraps a source's validation rejection (e.g. an
// OpenAPI request-body mismatch) with the body the source wants written.
type ValidationFailedError struct {
	StatusCode int
	Body       []byte
}

func (e *ValidationFailedError) Error() string {
	return "dispatch: request failed validation"
}

// PredicateError means a proxy rule's condition failed to parse at load
// time; requests are never the cause, so this is always a 500 at runtime
// if it somehow reaches dispatch (it should be caught at config load).
type PredicateError struct {
	Condition string
	Cause     error
}

func (e *PredicateError) Error() string {
	return "dispatch: malformed predicate " + e.Condition + ": " + e.Cause.Error()
}

func (e *PredicateError) Unwrap() error { return e.Cause }

// UpstreamUnavailableError means a proxy rule matched but the upstream
// could not be reached.
type UpstreamUnavailableError struct {
	Upstream string
	Cause    error
}

func (e *UpstreamUnavailableError) Error() string {
	return "dispatch: upstream unavailable (" + e.Upstream + "): " + e.Cause.Error()
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Cause }

// FaultInjectedError signals a chaos fault variant fired for this request;
// the caller already wrote the fault response and this is informational
// for logging, not something WriteError renders.
type FaultInjectedError struct {
	FaultType string
}

func (e *FaultInjectedError) Error() string {
	return "dispatch: fault injected (" + e.FaultType + ")"
}

// StatefulConflictError means the stateful machine had no transition for
// the resource's current state, and no default response applies.
type StatefulConflictError struct {
	ResourceID string
	FromState  string
}

func (e *StatefulConflictError) Error() string {
	return "dispatch: no transition from state " + e.FromState + " for resource " + e.ResourceID
}

// RecorderOverflowError means the recorder's ingest queue dropped this
// exchange; it never blocks the response and is logged, not surfaced to
// the client, but is typed so callers can count/alert on it.
type RecorderOverflowError struct{}

func (e *RecorderOverflowError) Error() string {
	return "dispatch: recorder queue overflowed, exchange dropped"
}

// ChainStepFailedError wraps a request-chain step that failed without
// ContinueOnError set.
type ChainStepFailedError struct {
	Chain string
	Step  string
	Cause error
}

func (e *ChainStepFailedError) Error() string {
	return "dispatch: chain " + e.Chain + " step " + e.Step + " failed: " + e.Cause.Error()
}

func (e *ChainStepFailedError) Unwrap() error { return e.Cause }

// WriteError translates a typed dispatch error into an HTTP response. It
// is the single place response bodies for pipeline failures are composed.
func WriteError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *RouteNotFoundError:
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":  "no route matched",
			"method": e.Method,
			"path":   e.Path,
		})
	case *ValidationFailedError:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(e.StatusCode)
		w.Write(e.Body)
	case *PredicateError:
		http.Error(w, e.Error(), http.StatusInternalServerError)
	case *UpstreamUnavailableError:
		http.Error(w, e.Error(), http.StatusBadGateway)
	case *StatefulConflictError:
		http.Error(w, e.Error(), http.StatusConflict)
	case *ChainStepFailedError:
		http.Error(w, e.Error(), http.StatusFailedDependency)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
