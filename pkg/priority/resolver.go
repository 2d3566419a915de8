package priority

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/logging"
)

// ResponseSource is satisfied by each candidate provider of mock responses:
// custom fixtures, recorded replay, the proxy matcher, and the mock/OpenAPI
// generator. Resolve returns (nil, nil) for a clean miss.
type ResponseSource interface {
	Name() string
	Resolve(ctx context.Context, fp *fingerprint.Fingerprint, r *http.Request) (*ResolvedResponse, error)
}

// Handler orchestrates ordered consultation of a fixed-priority source
// list, mirroring the engine handler's single ServeHTTP entry point but
// generalized to a pluggable source chain instead of one hardwired mock
// store.
type Handler struct {
	sources []ResponseSource
	log     *slog.Logger
}

// NewHandler builds a Handler consulting sources in the given order —
// callers pass them highest-priority first (custom fixture, recorded
// replay, proxy, mock).
func NewHandler(sources ...ResponseSource) *Handler {
	return &Handler{sources: sources, log: logging.Nop()}
}

// SetLogger installs an operational logger for source-internal errors.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	} else {
		h.log = logging.Nop()
	}
}

// Resolve consults each source in priority order and returns the first
// claimed response, annotated with its source header. Returns
// *ErrValidationFailed unwrapped so the caller can short-circuit straight to
// a 4xx; any other non-nil error from this method means no source claimed
// the request (a RouteNotFoundError-equivalent, the caller's concern to
// translate).
func (h *Handler) Resolve(ctx context.Context, fp *fingerprint.Fingerprint, r *http.Request) (*ResolvedResponse, error) {
	for _, src := range h.sources {
		resp, err := src.Resolve(ctx, fp, r)
		if err != nil {
			var valErr *ErrValidationFailed
			if errors.As(err, &valErr) {
				return nil, valErr
			}
			// Source-internal error: log and skip to next source.
			h.log.Warn("priority: source errored, skipping",
				"source", src.Name(), "fingerprint", fp.ToHash(), "error", err)
			continue
		}
		if resp == nil {
			// Clean miss (includes transport failure already translated by
			// the source itself, e.g. proxy upstream unreachable).
			continue
		}
		annotate(resp, src.Name())
		return resp, nil
	}
	return nil, fmt.Errorf("priority: no source claimed request %s %s", r.Method, r.URL.Path)
}

func annotate(resp *ResolvedResponse, sourceName string) {
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	label := sourceName
	if resp.Detail != "" {
		label = sourceName + "/" + resp.Detail
	}
	resp.Header.Set(SourceHeader, label)
}
