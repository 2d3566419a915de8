// Package protocol defines the thin adapter that lets the dispatch
// pipeline's fingerprinting and recording stages treat an inbound HTTP
// request uniformly, independent of the transport it arrived over.
package protocol
