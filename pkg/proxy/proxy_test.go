package proxy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherHeaderConditionalRouting(t *testing.T) {
	rules := []*Rule{
		{
			PathPattern:   "/api/**",
			UpstreamURL:   "http://upstream.internal",
			MigrationMode: ModeAuto,
			Condition:     `header[X-Env] == "staging"`,
		},
	}
	m, err := NewMatcher(rules)
	require.NoError(t, err)

	staging := http.Header{"X-Env": []string{"staging"}}
	rule, ok := m.Match("/api/users", staging, url.Values{}, nil)
	require.True(t, ok)
	assert.Equal(t, "http://upstream.internal", rule.UpstreamURL)

	prod := http.Header{"X-Env": []string{"prod"}}
	_, ok = m.Match("/api/users", prod, url.Values{}, nil)
	assert.False(t, ok)
}

func TestMatcherJSONPathConditionalRouting(t *testing.T) {
	rules := []*Rule{
		{
			PathPattern:   "/api/orders",
			UpstreamURL:   "http://legacy.internal",
			MigrationMode: ModeAuto,
			Condition:     `$.customer.tier == "enterprise"`,
		},
	}
	m, err := NewMatcher(rules)
	require.NoError(t, err)

	enterpriseBody := []byte(`{"customer":{"tier":"enterprise"}}`)
	rule, ok := m.Match("/api/orders", http.Header{}, url.Values{}, enterpriseBody)
	require.True(t, ok)
	assert.Equal(t, "http://legacy.internal", rule.UpstreamURL)

	retailBody := []byte(`{"customer":{"tier":"retail"}}`)
	_, ok = m.Match("/api/orders", http.Header{}, url.Values{}, retailBody)
	assert.False(t, ok)

	_, ok = m.Match("/api/orders", http.Header{}, url.Values{}, []byte("not json"))
	assert.False(t, ok)
}

func TestMatcherManualOffRuleMatchesButDoesNotForward(t *testing.T) {
	rule := &Rule{PathPattern: "/api/**", UpstreamURL: "http://upstream.internal", MigrationMode: ModeManualOff}
	m, err := NewMatcher([]*Rule{rule})
	require.NoError(t, err)

	matched, ok := m.Match("/api/orders", http.Header{}, url.Values{}, nil)
	require.True(t, ok)
	assert.False(t, ShouldForward(matched))
}

func TestMatcherFirstRuleWinsInDeclarationOrder(t *testing.T) {
	rules := []*Rule{
		{PathPattern: "/api/**", UpstreamURL: "http://first.internal", MigrationMode: ModeAuto},
		{PathPattern: "/api/orders", UpstreamURL: "http://second.internal", MigrationMode: ModeAuto},
	}
	m, err := NewMatcher(rules)
	require.NoError(t, err)

	rule, ok := m.Match("/api/orders", http.Header{}, url.Values{}, nil)
	require.True(t, ok)
	assert.Equal(t, "http://first.internal", rule.UpstreamURL)
}

func TestMatcherForwardsToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "true")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	rule := &Rule{PathPattern: "/api/**", UpstreamURL: upstream.URL, MigrationMode: ModeAuto}
	m, err := NewMatcher([]*Rule{rule})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	result, err := m.Forward(req.Context(), rule, req, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(result.Body))
}

func TestMatcherForwardUnreachableUpstreamReturnsError(t *testing.T) {
	rule := &Rule{PathPattern: "/api/**", UpstreamURL: "http://127.0.0.1:1", MigrationMode: ModeAuto}
	m, err := NewMatcher([]*Rule{rule})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	_, err = m.Forward(req.Context(), rule, req, nil)
	assert.Error(t, err)
}

func TestCompileRejectsMalformedPredicate(t *testing.T) {
	_, err := Compile(`header[X-Env] ==`)
	assert.Error(t, err)
}

func TestCompileCombinators(t *testing.T) {
	node, err := Compile(`header[X-Env] == "staging" && !(query[beta] has)`)
	require.NoError(t, err)

	ctx := newEvalContext(http.Header{"X-Env": []string{"staging"}}, url.Values{}, nil)
	assert.True(t, node.eval(ctx))

	ctx2 := newEvalContext(http.Header{"X-Env": []string{"staging"}}, url.Values{"beta": []string{"1"}}, nil)
	assert.False(t, node.eval(ctx2))
}
