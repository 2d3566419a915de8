package chain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const defaultStepTimeout = 30 * time.Second

// Runner executes Chains against a real http.Client, caching compiled
// assertion programs the same way pkg/stateful caches transition-condition
// programs: an expr-lang program per distinct assertion string, guarded by
// a double-checked-locking RWMutex.
type Runner struct {
	client *http.Client

	programMu    sync.RWMutex
	programCache map[string]*vm.Program
}

// NewRunner builds a Runner that issues step requests through client. A nil
// client is replaced by one whose Timeout is defaultStepTimeout.
func NewRunner(client *http.Client) *Runner {
	if client == nil {
		client = &http.Client{Timeout: defaultStepTimeout}
	}
	return &Runner{client: client, programCache: make(map[string]*vm.Program)}
}

// Run executes c's steps to completion or until a non-continue_on_error
// failure, honoring depends_on ordering and Mode.
func (run *Runner) Run(ctx context.Context, c *Chain) (*Result, *Context) {
	chainCtx := NewContext(c.Vars)
	result := &Result{}

	order, err := topologicalOrder(c.Steps)
	if err != nil {
		result.Failed = true
		result.FailedAt = "<ordering>"
		return result, chainCtx
	}

	if c.Mode == ModeParallel && hasIndependentGroups(c.Steps) {
		run.runParallel(ctx, c, order, chainCtx, result)
	} else {
		run.runSequential(ctx, c, order, chainCtx, result)
	}

	return result, chainCtx
}

func (run *Runner) runSequential(ctx context.Context, c *Chain, order []string, chainCtx *Context, result *Result) {
	byName := stepsByName(c.Steps)
	for _, name := range order {
		step := byName[name]
		sr := run.executeStep(ctx, step, chainCtx)
		chainCtx.RecordStep(sr)
		result.Steps = append(result.Steps, sr)
		if sr.Err != nil && !step.ContinueOnError {
			result.Failed = true
			result.FailedAt = name
			return
		}
	}
}

// runParallel groups steps into dependency waves: all steps in a wave have
// every dependency already recorded, and run concurrently within the wave.
func (run *Runner) runParallel(ctx context.Context, c *Chain, order []string, chainCtx *Context, result *Result) {
	byName := stepsByName(c.Steps)
	remaining := make(map[string]bool, len(order))
	for _, n := range order {
		remaining[n] = true
	}

	for len(remaining) > 0 {
		var wave []string
		for _, name := range order {
			if !remaining[name] {
				continue
			}
			if dependenciesSatisfied(byName[name], chainCtx) {
				wave = append(wave, name)
			}
		}
		if len(wave) == 0 {
			break // cycle or unmet dependency guarded elsewhere
		}

		var wg sync.WaitGroup
		results := make([]StepResult, len(wave))
		for i, name := range wave {
			wg.Add(1)
			go func(i int, step Step) {
				defer wg.Done()
				results[i] = run.executeStep(ctx, step, chainCtx)
			}(i, byName[name])
		}
		wg.Wait()

		failed := false
		for i, name := range wave {
			sr := results[i]
			chainCtx.RecordStep(sr)
			result.Steps = append(result.Steps, sr)
			delete(remaining, name)
			if sr.Err != nil && !byName[name].ContinueOnError {
				result.Failed = true
				result.FailedAt = name
				failed = true
			}
		}
		if failed {
			return
		}
	}
}

func dependenciesSatisfied(step Step, chainCtx *Context) bool {
	results := chainCtx.Results()
	for _, dep := range step.DependsOn {
		if _, ok := results[dep]; !ok {
			return false
		}
	}
	return true
}

func (run *Runner) executeStep(ctx context.Context, step Step, chainCtx *Context) StepResult {
	method, err := chainCtx.Render(step.Request.Method, false)
	if err != nil {
		return StepResult{Name: step.Name, Err: err}
	}
	url, err := chainCtx.Render(step.Request.URL, false)
	if err != nil {
		return StepResult{Name: step.Name, Err: err}
	}
	body, err := chainCtx.Render(step.Request.Body, false)
	if err != nil {
		return StepResult{Name: step.Name, Err: err}
	}

	timeout := step.Timeout
	if timeout == 0 {
		timeout = defaultStepTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(stepCtx, method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		return StepResult{Name: step.Name, Err: err}
	}
	for k, v := range step.Request.Headers {
		rendered, err := chainCtx.Render(v, false)
		if err != nil {
			return StepResult{Name: step.Name, Err: err}
		}
		req.Header.Set(k, rendered)
	}

	resp, err := run.client.Do(req)
	if err != nil {
		return StepResult{Name: step.Name, Err: fmt.Errorf("chain: step %q request failed: %w", step.Name, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return StepResult{Name: step.Name, Err: fmt.Errorf("chain: step %q reading response: %w", step.Name, err)}
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	sr := StepResult{Name: step.Name, StatusCode: resp.StatusCode, Headers: headers, Body: respBody}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sr.Err = fmt.Errorf("chain: step %q returned non-2xx status %d", step.Name, resp.StatusCode)
	}

	for _, ex := range step.Extractors {
		if err := run.applyExtractor(ex, sr, chainCtx); err != nil && !ex.Optional {
			sr.Err = err
		}
	}

	if sr.Err == nil {
		if err := run.runAssertions(step, sr, chainCtx); err != nil {
			sr.Err = err
		}
	}

	return sr
}

func (run *Runner) applyExtractor(ex Extractor, sr StepResult, chainCtx *Context) error {
	tmp := NewContext(nil)
	tmp.RecordStep(sr)
	value, err := tmp.Render(fmt.Sprintf("{{steps.%s.body.%s}}", sr.Name, ex.JSONPath), false)
	if err != nil {
		return fmt.Errorf("chain: extractor %q: %w", ex.Name, err)
	}
	chainCtx.SetVar(ex.Name, value)
	return nil
}

func (run *Runner) runAssertions(step Step, sr StepResult, chainCtx *Context) error {
	if len(step.Assertions) == 0 {
		return nil
	}
	env := chainCtx.EnvFor(sr)
	for _, assertion := range step.Assertions {
		prog, err := run.compileAssertion(assertion)
		if err != nil {
			return fmt.Errorf("chain: step %q assertion %q: %w", step.Name, assertion, err)
		}
		out, err := expr.Run(prog, env)
		if err != nil {
			return fmt.Errorf("chain: step %q assertion %q: %w", step.Name, assertion, err)
		}
		ok, _ := out.(bool)
		if !ok {
			return fmt.Errorf("chain: step %q assertion failed: %s", step.Name, assertion)
		}
	}
	return nil
}

func (run *Runner) compileAssertion(assertion string) (*vm.Program, error) {
	run.programMu.RLock()
	prog, ok := run.programCache[assertion]
	run.programMu.RUnlock()
	if ok {
		return prog, nil
	}

	run.programMu.Lock()
	defer run.programMu.Unlock()
	if prog, ok := run.programCache[assertion]; ok {
		return prog, nil
	}
	prog, err := expr.Compile(assertion, expr.Env(EvalEnv{}), expr.AsBool())
	if err != nil {
		return nil, err
	}
	run.programCache[assertion] = prog
	return prog, nil
}

func stepsByName(steps []Step) map[string]Step {
	m := make(map[string]Step, len(steps))
	for _, s := range steps {
		m[s.Name] = s
	}
	return m
}

func hasIndependentGroups(steps []Step) bool {
	for _, s := range steps {
		if len(s.DependsOn) == 0 && len(steps) > 1 {
			return true
		}
	}
	return false
}

// topologicalOrder returns step names ordered so every dependency precedes
// its dependents. Steps with no depends_on declared anywhere in the chain
// fall back to declared order.
func topologicalOrder(steps []Step) ([]string, error) {
	hasDeps := false
	for _, s := range steps {
		if len(s.DependsOn) > 0 {
			hasDeps = true
			break
		}
	}
	if !hasDeps {
		names := make([]string, len(steps))
		for i, s := range steps {
			names[i] = s.Name
		}
		return names, nil
	}

	byName := stepsByName(steps)
	visited := make(map[string]int) // 0=unvisited 1=visiting 2=done
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch visited[name] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("chain: dependency cycle detected at step %q", name)
		}
		visited[name] = 1
		step, ok := byName[name]
		if !ok {
			return fmt.Errorf("chain: unknown step %q in depends_on", name)
		}
		for _, dep := range step.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visited[name] = 2
		order = append(order, name)
		return nil
	}

	for _, s := range steps {
		if err := visit(s.Name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
