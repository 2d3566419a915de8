package dispatch

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mockforge/mockforge/pkg/chaos"
	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/logging"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/mockforge/mockforge/pkg/protocol"
	"github.com/mockforge/mockforge/pkg/recorder"
	"github.com/mockforge/mockforge/pkg/requestlog"
	"github.com/mockforge/mockforge/pkg/util"
)

// RouteChaos looks up the chaos policy for a matched route. Routes with no
// configured policy return nil from both methods.
type RouteChaos interface {
	LatencyFor(method, path string) *chaos.RouteLatencyConfig
	FaultFor(method, path string) *chaos.RouteFaultInjectionConfig
}

// Dispatcher is the single http.Handler entry point: fingerprint, chaos,
// priority-ordered resolution, then a fire-and-forget recorder exchange.
type Dispatcher struct {
	priority *priority.Handler
	injector *chaos.Injector
	routes   RouteChaos
	rec      *recorder.Recorder
	reqLog   requestlog.Logger
	log      *slog.Logger
}

// New builds a Dispatcher. routes and rec may be nil to disable chaos and
// recording respectively.
func New(ph *priority.Handler, routes RouteChaos, rec *recorder.Recorder) *Dispatcher {
	return &Dispatcher{
		priority: ph,
		injector: chaos.NewInjector(),
		routes:   routes,
		rec:      rec,
		log:      logging.Nop(),
	}
}

// SetLogger installs an operational logger used for panic recovery and
// pipeline-stage warnings.
func (d *Dispatcher) SetLogger(log *slog.Logger) {
	if log != nil {
		d.log = log
	} else {
		d.log = logging.Nop()
	}
}

// SetRequestLog installs a request log sink for user-facing inspection of
// matched/unmatched requests. Nil disables it.
func (d *Dispatcher) SetRequestLog(reqLog requestlog.Logger) {
	d.reqLog = reqLog
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer d.recoverPanic(w, r)

	start := time.Now()
	preq, err := protocol.FromHTTPRequest(r)
	if err != nil {
		WriteError(w, &RouteNotFoundError{Method: r.Method, Path: r.URL.Path})
		return
	}
	bodyBytes := preq.Body
	fp := fingerprint.New(r.Method, r.URL.RequestURI(), r.Header, bodyBytes, len(bodyBytes) > 0)

	if d.routes != nil {
		if latencyCfg := d.routes.LatencyFor(r.Method, r.URL.Path); latencyCfg != nil {
			if delay, ok := d.injector.RollLatency(latencyCfg); ok {
				if err := d.injector.Sleep(r.Context(), delay); err != nil {
					return
				}
			}
		}
		if faultCfg := d.routes.FaultFor(r.Method, r.URL.Path); faultCfg != nil {
			if variant := d.injector.RollFault(faultCfg); variant != nil {
				d.writeFault(w, variant)
				return
			}
		}
	}

	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	resp, err := d.priority.Resolve(r.Context(), fp, r)
	statusCode := http.StatusNotFound
	if err != nil {
		var valErr *priority.ErrValidationFailed
		if errors.As(err, &valErr) {
			WriteError(w, &ValidationFailedError{StatusCode: valErr.StatusCode, Body: valErr.Body})
			statusCode = valErr.StatusCode
		} else {
			WriteError(w, &RouteNotFoundError{Method: r.Method, Path: r.URL.Path})
		}
	} else {
		statusCode = resp.StatusCode
		for k, vv := range resp.Header {
			for _, v := range vv {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Body)
	}

	duration := time.Since(start)
	d.record(fp, r, bodyBytes, resp, statusCode, duration)
	d.logRequest(r, bodyBytes, resp, statusCode, duration)
}

func (d *Dispatcher) logRequest(r *http.Request, body []byte, resp *priority.ResolvedResponse, statusCode int, duration time.Duration) {
	if d.reqLog == nil {
		return
	}

	entry := &requestlog.Entry{
		ID:             recorder.NewULID(),
		Timestamp:      time.Now(),
		Protocol:       requestlog.ProtocolHTTP,
		Method:         r.Method,
		Path:           r.URL.Path,
		QueryString:    r.URL.RawQuery,
		Headers:        map[string][]string(r.Header),
		Body:           util.TruncateBody(string(body), 0),
		BodySize:       len(body),
		RemoteAddr:     r.RemoteAddr,
		ResponseStatus: statusCode,
		DurationMs:     int(duration.Milliseconds()),
	}
	if resp != nil {
		entry.MatchedMockID = resp.Detail
		entry.ResponseBody = util.TruncateBody(string(resp.Body), 0)
	} else {
		entry.Error = "no response source matched"
	}
	d.reqLog.Log(entry)
}

func (d *Dispatcher) writeFault(w http.ResponseWriter, variant *chaos.FaultVariant) {
	switch variant.Type {
	case chaos.FaultHttpError:
		http.Error(w, variant.Message, variant.StatusCode)
	case chaos.FaultDisconnect:
		// Closing without writing simulates an abrupt disconnect; callers
		// that can hijack the connection should prefer that, but plain
		// WriteHeader(0) is not valid, so we simply return without
		// writing anything further.
	default:
		http.Error(w, "fault injected", http.StatusServiceUnavailable)
	}
}

func (d *Dispatcher) record(fp *fingerprint.Fingerprint, r *http.Request, body []byte, resp *priority.ResolvedResponse, statusCode int, duration time.Duration) {
	if d.rec == nil {
		return
	}
	reqID := recorder.NewULID()
	reqHeaders := map[string][]string(r.Header)
	var respHeaders map[string][]string
	var respBody []byte
	if resp != nil {
		respHeaders = map[string][]string(resp.Header)
		respBody = resp.Body
	}
	d.rec.Record(recorder.Exchange{
		Request: recorder.RecordedRequest{
			ID:         reqID,
			Protocol:   "http",
			Timestamp:  time.Now(),
			Method:     r.Method,
			Path:       r.URL.Path,
			Query:      r.URL.RawQuery,
			Headers:    reqHeaders,
			Body:       body,
			ClientIP:   r.RemoteAddr,
			DurationMs: duration.Milliseconds(),
			StatusCode: statusCode,
		},
		Response: recorder.RecordedResponse{
			RequestID:  reqID,
			StatusCode: statusCode,
			Headers:    respHeaders,
			Body:       respBody,
			SizeBytes:  int64(len(respBody)),
			Timestamp:  time.Now(),
		},
	})
}

func (d *Dispatcher) recoverPanic(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		d.log.Error("dispatch: recovered from panic", "error", rec, "method", r.Method, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
