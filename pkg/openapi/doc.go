// Package openapi parses an OpenAPI document into a route registry, drives
// request/response validation at a configurable Mode (off, warn, enforce),
// and selects a mock response for each operation when no higher-priority
// source has claimed the request.
//
// # Route generation
//
// Registry walks every (path, pathItem) in the document and, for each
// present HTTP operation, builds a Route carrying the operation and whether
// it requires a bearer token. Request validation goes through the shared
// validator's router; the response is selected per request (the lowest 2xx
// status code, else the lowest declared status code).
//
// # Validation
//
// Disabled skips validation entirely. Warn validates and logs but still
// serves the route's selected mock response. Enforce validates and, on
// failure, short-circuits with a structured 4xx (default 400, configurable
// via ValidationConfig.ValidationStatus) instead of ever reaching response
// selection.
//
// # Security-scheme shape-check
//
// When an operation declares a bearerAuth-style security requirement and
// the mode is not Disabled, the registry also checks for a well-formed,
// unexpired JWT in the Authorization header. This is a shape check only —
// no signature verification is performed, since key management is out of
// scope.
package openapi
