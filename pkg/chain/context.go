package chain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
)

var tokenRegex = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Context is the shared state steps read from and write to as a chain
// executes: prior steps' responses and user-declared vars.
type Context struct {
	mu    sync.RWMutex
	steps map[string]StepResult
	bodyJSON map[string]interface{} // lazily parsed per step name
	vars  map[string]string
}

// NewContext creates an empty Context seeded with initial vars.
func NewContext(initialVars map[string]string) *Context {
	vars := make(map[string]string, len(initialVars))
	for k, v := range initialVars {
		vars[k] = v
	}
	return &Context{
		steps:    make(map[string]StepResult),
		bodyJSON: make(map[string]interface{}),
		vars:     vars,
	}
}

// RecordStep stores a completed step's result for later template references
// and JSON-path extraction.
func (c *Context) RecordStep(result StepResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps[result.Name] = result
	var parsed interface{}
	if len(result.Body) > 0 && json.Unmarshal(result.Body, &parsed) == nil {
		c.bodyJSON[result.Name] = parsed
	}
}

// SetVar binds a var, as an extractor does after a step completes.
func (c *Context) SetVar(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = value
}

// Render resolves every {{...}} token in tmpl against this Context.
// Unresolved references are an error unless optional is true, per
// SPEC_FULL's "unresolved references are fatal unless marked optional".
func (c *Context) Render(tmpl string, optional bool) (string, error) {
	var firstErr error
	result := tokenRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		value, err := c.resolve(expr)
		if err != nil {
			if !optional && firstErr == nil {
				firstErr = err
			}
			return ""
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func (c *Context) resolve(expr string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case strings.HasPrefix(expr, "steps."):
		return c.resolveStep(expr[len("steps."):])
	case strings.HasPrefix(expr, "vars."):
		name := expr[len("vars."):]
		v, ok := c.vars[name]
		if !ok {
			return "", fmt.Errorf("chain: unresolved var reference %q", expr)
		}
		return v, nil
	default:
		return "", fmt.Errorf("chain: unrecognized template reference %q", expr)
	}
}

func (c *Context) resolveStep(rest string) (string, error) {
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return "", fmt.Errorf("chain: malformed steps reference %q", rest)
	}
	stepName, field := rest[:dot], rest[dot+1:]

	result, ok := c.steps[stepName]
	if !ok {
		return "", fmt.Errorf("chain: reference to unexecuted step %q", stepName)
	}

	switch {
	case field == "status":
		return fmt.Sprintf("%d", result.StatusCode), nil
	case strings.HasPrefix(field, "body."):
		path := field[len("body."):]
		data, ok := c.bodyJSON[stepName]
		if !ok {
			return "", fmt.Errorf("chain: step %q response is not JSON", stepName)
		}
		expr, err := jp.ParseString("$." + path)
		if err != nil {
			return "", fmt.Errorf("chain: invalid json path %q: %w", path, err)
		}
		results := expr.Get(data)
		if len(results) == 0 {
			return "", fmt.Errorf("chain: json path %q not found in step %q body", path, stepName)
		}
		return fmt.Sprintf("%v", results[0]), nil
	case field == "body":
		return string(result.Body), nil
	default:
		return "", fmt.Errorf("chain: unknown step field %q", field)
	}
}

// EvalEnv is the environment assertions run against: status, headers, body
// (parsed JSON when possible), and vars.
type EvalEnv struct {
	Status  int
	Headers map[string]string
	Body    interface{}
	Vars    map[string]string
}

// EnvFor builds the assertion-evaluation env for a just-completed step.
func (c *Context) EnvFor(result StepResult) EvalEnv {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var body interface{}
	if parsed, ok := c.bodyJSON[result.Name]; ok {
		body = parsed
	} else {
		body = string(result.Body)
	}
	vars := make(map[string]string, len(c.vars))
	for k, v := range c.vars {
		vars[k] = v
	}
	return EvalEnv{Status: result.StatusCode, Headers: result.Headers, Body: body, Vars: vars}
}

// Results returns a snapshot of every recorded step, for post-mortem
// inspection after a chain terminates early.
func (c *Context) Results() map[string]StepResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]StepResult, len(c.steps))
	for k, v := range c.steps {
		out[k] = v
	}
	return out
}
