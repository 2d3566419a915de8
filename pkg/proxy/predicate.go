package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Op is a comparison operator for an Atom.
type Op string

const (
	OpEq       Op = "=="
	OpNeq      Op = "!="
	OpHas      Op = "has"
	OpNotHas   Op = "!has"
)

// AtomKind identifies which part of the request an Atom inspects.
type AtomKind string

const (
	AtomHeader   AtomKind = "header"
	AtomQuery    AtomKind = "query"
	AtomJSONPath AtomKind = "jsonpath"
)

// Node is any node in the predicate AST: an Atom or a Combinator.
type Node interface {
	eval(ctx *evalContext) bool
	usesJSONPath() bool
}

// Atom is a leaf predicate: `header[name] op value`, `query[name] op value`,
// or `$.json.path op value`.
type Atom struct {
	Kind  AtomKind
	Name  string // header/query name, or the raw JSONPath expression
	Op    Op
	Value string // literal; "null" parses specially for JSONPath null comparisons

	path jp.Expr // compiled once, for AtomJSONPath
}

// Combinator combines child nodes with And/Or/Not.
type Combinator struct {
	Kind     string // "and" | "or" | "not"
	Children []Node
}

func (c *Combinator) usesJSONPath() bool {
	for _, ch := range c.Children {
		if ch.usesJSONPath() {
			return true
		}
	}
	return false
}

func (a *Atom) usesJSONPath() bool { return a.Kind == AtomJSONPath }

func (c *Combinator) eval(ctx *evalContext) bool {
	switch c.Kind {
	case "not":
		return !c.Children[0].eval(ctx)
	case "and":
		for _, ch := range c.Children {
			if !ch.eval(ctx) {
				return false
			}
		}
		return true
	case "or":
		for _, ch := range c.Children {
			if ch.eval(ctx) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// evalContext is the per-request view a compiled predicate is evaluated
// against.
type evalContext struct {
	headers http.Header
	query   url.Values
	body    []byte
	json    interface{} // lazily parsed
	jsonErr error
	jsonSet bool
}

func newEvalContext(headers http.Header, query url.Values, body []byte) *evalContext {
	return &evalContext{headers: headers, query: query, body: body}
}

func (c *evalContext) jsonBody() (interface{}, error) {
	if c.jsonSet {
		return c.json, c.jsonErr
	}
	c.jsonSet = true
	if len(c.body) == 0 {
		c.jsonErr = fmt.Errorf("empty body")
		return nil, c.jsonErr
	}
	c.jsonErr = json.Unmarshal(c.body, &c.json)
	return c.json, c.jsonErr
}

func (a *Atom) eval(ctx *evalContext) bool {
	switch a.Kind {
	case AtomHeader:
		v := ctx.headers.Get(a.Name)
		return compareString(v, a.Op, a.Value, v != "")
	case AtomQuery:
		v := ctx.query.Get(a.Name)
		_, present := ctx.query[a.Name]
		return compareString(v, a.Op, a.Value, present)
	case AtomJSONPath:
		data, err := ctx.jsonBody()
		if err != nil {
			// Predicate safety: never raise, just false.
			return false
		}
		results := a.path.Get(data)
		if len(results) == 0 {
			return a.Op == OpNotHas
		}
		return compareValue(results[0], a.Op, a.Value)
	default:
		return false
	}
}

func compareString(actual string, op Op, want string, present bool) bool {
	switch op {
	case OpHas:
		return present
	case OpNotHas:
		return !present
	case OpEq:
		return actual == want
	case OpNeq:
		return actual != want
	default:
		return false
	}
}

func compareValue(actual interface{}, op Op, want string) bool {
	switch op {
	case OpHas:
		return true
	case OpNotHas:
		return false
	}
	if want == "null" {
		isNil := actual == nil
		if op == OpEq {
			return isNil
		}
		return !isNil
	}
	// Try numeric compare first.
	if wantNum, err := strconv.ParseFloat(want, 64); err == nil {
		if actualNum, ok := toFloat64(actual); ok {
			if op == OpEq {
				return actualNum == wantNum
			}
			return actualNum != wantNum
		}
	}
	wantStr := strings.Trim(want, `"'`)
	actualStr := fmt.Sprintf("%v", actual)
	if op == OpEq {
		return actualStr == wantStr
	}
	return actualStr != wantStr
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Compile parses a predicate string into a Node tree. Parse errors are
// returned so the caller can treat them as fatal at config-load time (per
// §7's PredicateError policy: "predicate-parse errors at config load are
// fatal and prevent startup").
func Compile(predicate string) (Node, error) {
	p := &parser{tokens: tokenize(predicate)}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("proxy: unexpected trailing tokens in predicate %q", predicate)
	}
	if err := bindJSONPaths(node); err != nil {
		return nil, err
	}
	return node, nil
}

func bindJSONPaths(n Node) error {
	switch v := n.(type) {
	case *Atom:
		if v.Kind == AtomJSONPath {
			path, err := jp.ParseString(v.Name)
			if err != nil {
				return fmt.Errorf("proxy: invalid jsonpath %q: %w", v.Name, err)
			}
			v.path = path
		}
	case *Combinator:
		for _, ch := range v.Children {
			if err := bindJSONPaths(ch); err != nil {
				return err
			}
		}
	}
	return nil
}
