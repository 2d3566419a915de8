// Package proxy implements the conditional proxy rule matcher: a declared,
// ordered list of ProxyRule entries, each gating forwarding to an upstream
// behind a glob path pattern and an optional boolean predicate over
// headers/query/the JSON body.
//
// Predicates are parsed once at config load into a small tagged AST
// (Atom{Header|Query|JsonPath} and Combinator{And|Or|Not}) and evaluated per
// request against a Context view of the inbound request. Evaluation errors
// (e.g. a JSONPath atom against a non-JSON body) make the predicate false
// rather than raising — a rule simply doesn't match.
package proxy
