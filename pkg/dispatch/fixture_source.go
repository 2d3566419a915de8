package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mockforge/mockforge/internal/matching"
	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/mock"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/mockforge/mockforge/pkg/template"
	"github.com/mockforge/mockforge/pkg/util"
	"github.com/mockforge/mockforge/pkg/validation"
)

// FixtureSource is the highest-priority ResponseSource: user-authored HTTP
// mock fixtures, matched and scored the way the engine handler always has.
// It is consulted before recorded replay, the proxy, and the OpenAPI
// generator, so an explicit fixture always wins over anything mockforge
// infers on its own.
type FixtureSource struct {
	mocks   []*mock.Mock
	tmpl    *template.Engine
	baseDir string
}

// NewFixtureSource builds a FixtureSource over a fixed set of HTTP mocks,
// loaded once at startup from the configured mock entries. tmpl may be nil
// to disable template expansion of headers and body.
func NewFixtureSource(mocks []*mock.Mock, tmpl *template.Engine, baseDir string) *FixtureSource {
	return &FixtureSource{mocks: mocks, tmpl: tmpl, baseDir: baseDir}
}

func (s *FixtureSource) Name() string { return "Fixture" }

func (s *FixtureSource) Resolve(ctx context.Context, fp *fingerprint.Fingerprint, r *http.Request) (*priority.ResolvedResponse, error) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
	}

	match := s.selectBest(r, body)
	if match == nil {
		return nil, nil
	}

	spec := match.Mock.HTTP
	if spec.Validation != nil && !spec.Validation.IsEmpty() {
		if err := s.validate(r, body, spec.Validation); err != nil {
			return nil, err
		}
	}

	if spec.Response == nil {
		return &priority.ResolvedResponse{StatusCode: http.StatusOK, Detail: match.Mock.ID}, nil
	}

	return s.render(r, body, match, spec.Response)
}

// selectBest mirrors the engine handler's score-then-priority ordering:
// highest match score wins, ties broken by the mock's own HTTP priority.
func (s *FixtureSource) selectBest(r *http.Request, body []byte) *matching.MatchResult {
	var best *matching.MatchResult
	for _, m := range s.mocks {
		if m == nil || m.Type != mock.TypeHTTP || m.HTTP == nil || m.HTTP.Matcher == nil {
			continue
		}
		if m.Enabled != nil && !*m.Enabled {
			continue
		}
		score, captures := matching.MatchScoreWithCaptures(m.HTTP.Matcher, r, body)
		if score == 0 {
			continue
		}
		if best == nil || score > best.Score || (score == best.Score && m.HTTP.Priority > best.Mock.HTTP.Priority) {
			best = &matching.MatchResult{Mock: m, Score: score, Matched: true, PathPatternCaptures: captures}
		}
	}
	return best
}

// validate runs per-mock request validation, honoring the configured mode:
// warn and permissive-without-required-errors log and let the request
// through, anything else short-circuits with ErrValidationFailed.
func (s *FixtureSource) validate(r *http.Request, body []byte, cfg *validation.RequestValidation) error {
	validator := validation.NewHTTPValidator(cfg)
	if validator == nil {
		return nil
	}

	var parsedBody map[string]interface{}
	var result *validation.Result
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsedBody); err != nil {
			result = &validation.Result{Valid: false}
			result.AddError(validation.NewInvalidJSONError(err.Error()))
		}
	}
	if result == nil {
		queryParams := make(map[string]string)
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				queryParams[key] = values[0]
			}
		}
		headers := make(map[string]string)
		for key, values := range r.Header {
			if len(values) > 0 {
				headers[strings.ToLower(key)] = values[0]
			}
		}
		result = validator.Validate(r.Context(), parsedBody, nil, queryParams, headers)
	}
	if result == nil || result.Valid {
		return nil
	}

	mode := cfg.GetMode()
	if mode == validation.ModeWarn {
		return nil
	}
	if mode == validation.ModePermissive {
		hasRequired := false
		for _, fe := range result.Errors {
			if fe.Code == validation.ErrCodeRequired {
				hasRequired = true
				break
			}
		}
		if !hasRequired {
			return nil
		}
	}

	status := cfg.GetFailStatus()
	resp := validation.NewErrorResponse(result, status)
	respBody, _ := json.Marshal(resp)
	return &priority.ErrValidationFailed{StatusCode: status, Body: respBody}
}

func (s *FixtureSource) render(r *http.Request, body []byte, match *matching.MatchResult, resp *mock.HTTPResponse) (*priority.ResolvedResponse, error) {
	if resp.DelayMs > 0 {
		select {
		case <-time.After(time.Duration(resp.DelayMs) * time.Millisecond):
		case <-r.Context().Done():
			return nil, r.Context().Err()
		}
	}

	var tmplCtx *template.Context
	if s.tmpl != nil {
		tmplCtx = template.NewContext(r, body)
		tmplCtx.SetPathPatternCaptures(match.PathPatternCaptures)
	}

	header := http.Header{}
	for name, value := range resp.Headers {
		if tmplCtx != nil {
			if processed, err := s.tmpl.Process(value, tmplCtx); err == nil {
				value = processed
			}
		}
		header.Set(name, value)
	}

	bodyStr := resp.Body
	if bodyStr == "" && resp.BodyFile != "" {
		clean, safe := util.SafeFilePathAllowAbsolute(resp.BodyFile)
		if !safe {
			return nil, &PredicateError{Condition: "bodyFile", Cause: fmt.Errorf("unsafe path %q", resp.BodyFile)}
		}
		if !filepath.IsAbs(clean) && s.baseDir != "" {
			clean = filepath.Join(s.baseDir, clean)
		}
		data, err := os.ReadFile(clean)
		if err != nil {
			return nil, &PredicateError{Condition: "bodyFile", Cause: err}
		}
		bodyStr = string(data)
	}

	if bodyStr != "" && tmplCtx != nil {
		if processed, err := s.tmpl.Process(bodyStr, tmplCtx); err == nil {
			bodyStr = processed
		}
	}

	return &priority.ResolvedResponse{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       []byte(bodyStr),
		Detail:     match.Mock.ID,
	}, nil
}
