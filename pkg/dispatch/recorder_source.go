package dispatch

import (
	"context"
	"net/http"

	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/mockforge/mockforge/pkg/recorder"
)

// RecordedReplaySource serves responses previously captured by the
// recorder, consulted ahead of the proxy and mock sources in priority
// order.
type RecordedReplaySource struct {
	store *recorder.Store
}

// NewRecordedReplaySource wraps store. A nil store makes the source a
// permanent miss, matching the recorder-disabled case.
func NewRecordedReplaySource(store *recorder.Store) *RecordedReplaySource {
	return &RecordedReplaySource{store: store}
}

func (s *RecordedReplaySource) Name() string { return "Recorded" }

func (s *RecordedReplaySource) Resolve(ctx context.Context, fp *fingerprint.Fingerprint, r *http.Request) (*priority.ResolvedResponse, error) {
	if s.store == nil {
		return nil, nil
	}
	ex, err := s.store.FindByFingerprint(r.Method, r.URL.Path)
	if err != nil {
		return nil, err
	}
	if ex == nil || ex.Response.StatusCode == 0 {
		return nil, nil
	}
	header := http.Header{}
	for k, v := range ex.Response.Headers {
		header[k] = v
	}
	return &priority.ResolvedResponse{
		StatusCode: ex.Response.StatusCode,
		Header:     header,
		Body:       ex.Response.Body,
		Detail:     ex.Request.ID,
	}, nil
}
