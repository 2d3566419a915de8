// Package priority implements the dispatch pipeline's ordered-consultation
// handler: a fixed-priority list of ResponseSources is consulted in turn for
// every request, and the first source that claims it wins.
//
// Priority order (highest first): custom fixture, recorded replay, proxy,
// mock. A source reports a miss by returning (nil, nil) from Resolve; a
// transport failure falls through to the next source; a source-internal
// error is logged and skipped. The winning response is annotated with an
// X-MockForge-Source header identifying which source produced it.
package priority
