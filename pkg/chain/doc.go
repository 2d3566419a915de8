// Package chain executes ordered or dependency-ordered multi-step request
// scripts that share a ChainContext.
//
// Each Step has a name, a request template (method/url/headers/body with
// {{steps.<name>.*}}/{{vars.<name>}} substitution), optional response
// extractors, optional expr-lang assertions, and an optional depends_on
// list. When any step declares depends_on, steps execute in topological
// order; steps with no dependency edge between them run concurrently when
// the Runner operates in parallel mode. A failing step (non-2xx, a failed
// assertion, or a timeout) terminates the chain unless the step is marked
// continue_on_error; context already written by prior steps is retained for
// post-mortem inspection.
package chain
