package stateful

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"

	"github.com/mockforge/mockforge/internal/matching"
)

// ResolvedResponse is what Render produces when a StateResponse exists for
// the post-transition state.
type ResolvedResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// resourceState holds the current state for one resource id, protected by
// its own mutex so distinct resources never contend.
type resourceState struct {
	mu    sync.Mutex
	state string
}

// Machine is the runtime state machine for one stateful Config. It owns one
// resourceState per extracted resource id.
type Machine struct {
	cfg *Config

	mapMu     sync.Mutex
	resources map[string]*resourceState

	programMu    sync.RWMutex
	programCache map[string]*vm.Program
}

// NewMachine constructs a Machine for cfg. cfg is validated; callers should
// treat a non-nil error as fatal at config-load time, matching the spec's
// "predicate-parse errors at config load are fatal" policy for proxy rules
// (applied here to transition invariants).
func NewMachine(cfg *Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Machine{
		cfg:          cfg,
		resources:    make(map[string]*resourceState),
		programCache: make(map[string]*vm.Program),
	}, nil
}

// ExtractResourceID pulls the resource id from the request per cfg's
// ResourceIDExtract. ok is false if extraction fails (request is not
// stateful; handler should pass through).
func (m *Machine) ExtractResourceID(path string, headers http.Header, query url.Values, body []byte) (string, bool) {
	switch m.cfg.ResourceIDExtract.Kind {
	case ExtractHeader:
		v := headers.Get(m.cfg.ResourceIDExtract.Name)
		if v == "" {
			return "", false
		}
		return v, true
	case ExtractQuery:
		v := query.Get(m.cfg.ResourceIDExtract.Name)
		if v == "" {
			return "", false
		}
		return v, true
	case ExtractBodyJSONPath:
		if len(body) == 0 {
			return "", false
		}
		expr, err := jp.ParseString(m.cfg.ResourceIDExtract.Name)
		if err != nil {
			return "", false
		}
		data, err := parseJSONLoose(body)
		if err != nil {
			return "", false
		}
		results := expr.Get(data)
		if len(results) == 0 {
			return "", false
		}
		return fmt.Sprintf("%v", results[0]), true
	case ExtractPathParam:
		for _, t := range m.cfg.Transitions {
			captures := matching.MatchPathVariable(t.PathPattern, path)
			if v, ok := captures[m.cfg.ResourceIDExtract.Name]; ok {
				return v, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

// reqEnv is the environment exposed to transition condition expressions.
type reqEnv struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	Body    map[string]interface{}
}

func (m *Machine) evalCondition(condition string, env reqEnv) (bool, error) {
	m.programMu.RLock()
	prog, ok := m.programCache[condition]
	m.programMu.RUnlock()
	if !ok {
		m.programMu.Lock()
		prog, ok = m.programCache[condition]
		if !ok {
			var err error
			prog, err = expr.Compile(condition, expr.Env(reqEnv{}), expr.AsBool())
			if err != nil {
				m.programMu.Unlock()
				return false, err
			}
			m.programCache[condition] = prog
		}
		m.programMu.Unlock()
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}

// TransitionResult is the outcome of attempting a transition.
type TransitionResult struct {
	ResourceID string
	FromState  string
	ToState    string
	Matched    bool
	Response   *ResolvedResponse // non-nil if a StateResponse exists for ToState
}

// Transition runs the §4.3 algorithm: extract id, lock the resource,
// find the first matching transition in declaration order, apply it (or
// leave state unchanged), render the post-state's response if any, release
// the lock.
func (m *Machine) Transition(method, path string, headers http.Header, query url.Values, body []byte) (*TransitionResult, bool) {
	resourceID, ok := m.ExtractResourceID(path, headers, query, body)
	if !ok {
		return nil, false
	}

	rs := m.resourceFor(resourceID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current := rs.state
	if current == "" {
		current = InitialState
	}

	var env reqEnv
	bodyJSON, _ := parseJSONLoose(body)
	if bodyJSON != nil {
		if m, ok := bodyJSON.(map[string]interface{}); ok {
			env.Body = m
		}
	}
	env.Method = strings.ToUpper(method)
	env.Path = path
	env.Headers = flattenHeader(headers)
	env.Query = flattenQuery(query)

	result := &TransitionResult{ResourceID: resourceID, FromState: current, ToState: current}

	for _, t := range m.cfg.Transitions {
		if !strings.EqualFold(t.Method, method) {
			continue
		}
		score, captures := matching.MatchPathPattern(t.PathPattern, path)
		if score == 0 {
			if !matchesSegmentwise(t.PathPattern, path) {
				continue
			}
		}
		_ = captures
		if t.FromState != current && !(t.FromState == InitialState && current == InitialState) {
			continue
		}
		if t.Condition != "" {
			holds, err := m.evalCondition(t.Condition, env)
			if err != nil || !holds {
				continue
			}
		}
		current = t.ToState
		result.Matched = true
		break
	}

	rs.state = current
	result.ToState = current

	if sr, ok := m.cfg.StateResponses[current]; ok {
		result.Response = render(sr, resourceID, current)
	}

	return result, true
}

func matchesSegmentwise(pattern, path string) bool {
	pp := strings.Split(strings.Trim(pattern, "/"), "/")
	qp := strings.Split(strings.Trim(path, "/"), "/")
	if len(pp) != len(qp) {
		return false
	}
	for i, seg := range pp {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			continue
		}
		if seg != qp[i] {
			return false
		}
	}
	return true
}

func render(sr StateResponse, resourceID, state string) *ResolvedResponse {
	body := sr.BodyTemplate
	body = strings.ReplaceAll(body, "{{resource_id}}", resourceID)
	body = strings.ReplaceAll(body, "{{state}}", state)

	headers := make(map[string]string, len(sr.Headers)+1)
	for k, v := range sr.Headers {
		headers[k] = v
	}
	if sr.ContentType != "" {
		headers["Content-Type"] = sr.ContentType
	}

	return &ResolvedResponse{
		StatusCode: sr.StatusCode,
		Headers:    headers,
		Body:       body,
	}
}

func (m *Machine) resourceFor(id string) *resourceState {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	rs, ok := m.resources[id]
	if !ok {
		rs = &resourceState{state: InitialState}
		m.resources[id] = rs
	}
	return rs
}

// StateOf returns the current state for a resource id without mutating it,
// or InitialState if unseen.
func (m *Machine) StateOf(id string) string {
	m.mapMu.Lock()
	rs, ok := m.resources[id]
	m.mapMu.Unlock()
	if !ok {
		return InitialState
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.state == "" {
		return InitialState
	}
	return rs.state
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[strings.ToLower(k)] = v[0]
		}
	}
	return out
}

func flattenQuery(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
