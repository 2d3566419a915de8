package dispatch

import (
	"context"
	"io"
	"net/http"

	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/mockforge/mockforge/pkg/proxy"
)

// ProxySource adapts a proxy.Matcher to priority.ResponseSource.
type ProxySource struct {
	matcher *proxy.Matcher
}

// NewProxySource wraps matcher. A nil matcher makes the source a
// permanent miss.
func NewProxySource(matcher *proxy.Matcher) *ProxySource {
	return &ProxySource{matcher: matcher}
}

func (s *ProxySource) Name() string { return "Proxy" }

func (s *ProxySource) Resolve(ctx context.Context, fp *fingerprint.Fingerprint, r *http.Request) (*priority.ResolvedResponse, error) {
	if s.matcher == nil {
		return nil, nil
	}
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}
	rule, ok := s.matcher.Match(r.URL.Path, r.Header, r.URL.Query(), body)
	if !ok || !s.matcher.ShouldForward(rule) {
		return nil, nil
	}
	result, err := s.matcher.Forward(ctx, rule, r, body)
	if err != nil {
		// Transport miss: fall through to the next source rather than
		// failing the whole request, matching the priority handler's
		// clean-miss contract for upstream unavailability.
		return nil, nil
	}
	return &priority.ResolvedResponse{
		StatusCode: result.StatusCode,
		Header:     result.Header,
		Body:       result.Body,
		Detail:     rule.PathPattern,
	}, nil
}
