// Package stateful implements the stateful response handler: a
// resource-keyed state machine driven by declarative TransitionTrigger
// rules. Unlike a CRUD resource store, the state here is a single named
// state per resource id; requests either trigger a transition, render the
// current state's templated response, or both.
//
// States are plain strings (not a closed Go enum) because configs are
// user-provided data — the machine itself is just a map from
// (fromState, method, pathPattern) to toState, evaluated in declaration
// order with an optional guard condition.
//
// Concurrency: each (resourceType, resourceID) pair is protected by its own
// mutex so transitions on one resource never block transitions on another,
// while two concurrent requests against the same resource observe a
// serializable ordering.
package stateful
