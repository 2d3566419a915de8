package dispatch

import (
	"context"
	"io"
	"net/http"

	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/mockforge/mockforge/pkg/stateful"
)

// StatefulSource adapts a stateful.Registry to priority.ResponseSource. It
// tries every registered machine in turn since a Machine's own resource-id
// extractor is what decides whether a request belongs to it.
type StatefulSource struct {
	registry *stateful.Registry
}

// NewStatefulSource wraps registry for priority consultation.
func NewStatefulSource(registry *stateful.Registry) *StatefulSource {
	return &StatefulSource{registry: registry}
}

func (s *StatefulSource) Name() string { return "Stateful" }

func (s *StatefulSource) Resolve(ctx context.Context, fp *fingerprint.Fingerprint, r *http.Request) (*priority.ResolvedResponse, error) {
	if s.registry == nil {
		return nil, nil
	}
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}

	for _, machine := range s.registry.All() {
		result, ok := machine.Transition(r.Method, r.URL.Path, r.Header, r.URL.Query(), body)
		if !ok {
			continue
		}
		if result.Response == nil {
			return nil, &StatefulConflictError{ResourceID: result.ResourceID, FromState: result.FromState}
		}
		header := http.Header{}
		for k, v := range result.Response.Headers {
			header.Set(k, v)
		}
		return &priority.ResolvedResponse{
			StatusCode: result.Response.StatusCode,
			Header:     header,
			Body:       []byte(result.Response.Body),
			Detail:     result.ResourceID,
		}, nil
	}
	return nil, nil
}
