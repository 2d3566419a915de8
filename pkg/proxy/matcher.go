package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher holds an ordered, compiled set of Rules and forwards requests for
// whichever rule matches first.
type Matcher struct {
	rules  []*Rule
	client *http.Client
}

// NewMatcher compiles each rule's Condition and returns a Matcher. Rules are
// consulted in declaration order; the first whose path pattern and predicate
// both match wins, mirroring the dispatch pipeline's first-match-wins
// resolution elsewhere in the project.
func NewMatcher(rules []*Rule) (*Matcher, error) {
	for i, r := range rules {
		if err := r.Compile(); err != nil {
			return nil, fmt.Errorf("proxy: rule %d (%s): %w", i, r.PathPattern, err)
		}
	}
	return &Matcher{
		rules:  rules,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Match returns the first rule whose glob PathPattern matches path and whose
// predicate (if any) holds against the supplied request view. The glob
// syntax follows doublestar: "*" matches within one path segment, "**"
// matches across segments.
func (m *Matcher) Match(path string, headers http.Header, query url.Values, body []byte) (*Rule, bool) {
	trimmed := trimLeadingSlash(path)
	for _, r := range m.rules {
		ok, err := doublestar.Match(trimLeadingSlash(r.PathPattern), trimmed)
		if err != nil || !ok {
			continue
		}
		if !r.Matches(headers, query, body) {
			continue
		}
		return r, true
	}
	return nil, false
}

func trimLeadingSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

// ForwardResult carries the upstream response, already buffered, so the
// dispatch pipeline can write it out or fall back to the mock on failure.
type ForwardResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Forward proxies req to rule.UpstreamURL and returns the buffered
// response. Per ModeAuto semantics, a transport-level failure is returned
// as an error so the caller can fall back to the mock response rather than
// surface a 502 to the client.
func (m *Matcher) Forward(ctx context.Context, rule *Rule, req *http.Request, body []byte) (*ForwardResult, error) {
	upstream, err := url.Parse(rule.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("proxy: invalid upstream url %q: %w", rule.UpstreamURL, err)
	}
	target := *upstream
	target.Path = singleJoiningSlash(upstream.Path, req.URL.Path)
	target.RawQuery = req.URL.RawQuery

	outReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	outReq.Header = req.Header.Clone()

	resp, err := m.client.Do(outReq)
	if err != nil {
		return nil, fmt.Errorf("proxy: upstream %s unreachable: %w", rule.UpstreamURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("proxy: reading upstream response: %w", err)
	}
	return &ForwardResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// ShouldForward applies MigrationMode semantics on top of a path+predicate
// match: ManualOff matches never forward, ManualOn and Auto do (Auto's
// upstream-unreachable fallback is handled by the caller inspecting the
// error from Forward).
func ShouldForward(rule *Rule) bool {
	return rule.Forwards()
}

func singleJoiningSlash(a, b string) string {
	aslash := len(a) > 0 && a[len(a)-1] == '/'
	bslash := len(b) > 0 && b[0] == '/'
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	default:
		return a + b
	}
}
