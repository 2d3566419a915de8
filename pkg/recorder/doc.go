// Package recorder durably captures request/response exchanges and makes
// them queryable and convertible back into declarative stub mappings.
//
// Ingest is fire-and-forget from the hot path: Record appends to a bounded
// in-memory queue drained by a background writer goroutine that persists
// to SQLite. On overflow with DropOnOverflow set, the oldest queued (not
// yet written) exchange is discarded; with it unset, the new exchange is
// discarded. Either way the dropped counter is incremented and the serving
// path never blocks on a write.
//
// Sensitive headers (Authorization, Cookie, Set-Cookie, X-API-Key,
// X-Auth-Token by default) are redacted before a row is ever written.
// Retention is enforced by two periodic policies: age-based deletion and a
// size-based row cap, both run by a second background goroutine, separate
// from the writer.
package recorder
