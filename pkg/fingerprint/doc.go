// Package fingerprint computes a canonical identity for an inbound HTTP
// request: method, path, sorted query, an allowlisted set of "important"
// headers, and a body hash. The fingerprint is the pipeline's cache key for
// replay lookups and the grouping key for chaos/stateful route matching.
//
// A Fingerprint is constructed once at pipeline entry and never mutated.
package fingerprint
