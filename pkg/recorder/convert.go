package recorder

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// StubFormat selects the serialization of a converted stub.
type StubFormat string

const (
	StubFormatYAML StubFormat = "yaml"
	StubFormatJSON StubFormat = "json"
)

var (
	uuidPattern      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	isoTimestampRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	bearerTokenRe    = regexp.MustCompile(`^Bearer\s+[A-Za-z0-9\-_\.]+$`)
)

// Stub is the declarative mapping emitted by conversion — the same
// shape a hand-authored fixture would have.
type Stub struct {
	Method   string            `json:"method" yaml:"method"`
	Path     string            `json:"path" yaml:"path"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Status   int               `json:"status" yaml:"status"`
	Response map[string]string `json:"responseHeaders,omitempty" yaml:"responseHeaders,omitempty"`
	Body     string            `json:"body,omitempty" yaml:"body,omitempty"`
}

// ToStub converts a recorded exchange to a declarative stub, templating
// dynamic values so the stub generalizes beyond the single capture. Only
// UUIDs, ISO-8601 timestamps, Bearer tokens and all-digit path segments are
// detected; any other dynamic value is kept as captured and may need
// hand-editing.
func ToStub(ex Exchange) Stub {
	stub := Stub{
		Method: ex.Request.Method,
		Path:   templatePath(ex.Request.Path),
		Status: ex.Response.StatusCode,
	}
	if len(ex.Request.Headers) > 0 {
		stub.Headers = make(map[string]string, len(ex.Request.Headers))
		for k, v := range ex.Request.Headers {
			if len(v) == 0 {
				continue
			}
			stub.Headers[k] = templateValue(v[0])
		}
	}
	if len(ex.Response.Headers) > 0 {
		stub.Response = make(map[string]string, len(ex.Response.Headers))
		for k, v := range ex.Response.Headers {
			if len(v) == 0 {
				continue
			}
			stub.Response[k] = templateValue(v[0])
		}
	}
	if len(ex.Response.Body) > 0 {
		stub.Body = templateBody(string(ex.Response.Body))
	}
	return stub
}

// Marshal serializes a stub to the requested format.
func Marshal(stub Stub, format StubFormat) ([]byte, error) {
	switch format {
	case StubFormatJSON:
		return json.MarshalIndent(stub, "", "  ")
	case StubFormatYAML, "":
		return yaml.Marshal(stub)
	default:
		return nil, fmt.Errorf("recorder: unknown stub format %q", format)
	}
}

// templatePath parameterizes dynamic path segments: a UUID segment becomes
// {{uuid}} and an all-digit segment becomes {{id}}; other segments are kept
// as captured. It emits template placeholders instead of named route params
// since stubs are matched against literal or glob paths, not a router.
func templatePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if uuidPattern.MatchString(seg) {
			segments[i] = "{{uuid}}"
			continue
		}
		if isNumericSegment(seg) {
			segments[i] = "{{id}}"
		}
	}
	return strings.Join(segments, "/")
}

func isNumericSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// templateValue replaces a single scalar value with a template
// placeholder when it matches a known dynamic-value shape.
func templateValue(v string) string {
	switch {
	case uuidPattern.MatchString(v):
		return "{{uuid}}"
	case isoTimestampRe.MatchString(v):
		return "{{timestamp}}"
	case bearerTokenRe.MatchString(v):
		return "{{token}}"
	default:
		return v
	}
}

// templateBody walks a JSON body and templates dynamic-looking string
// leaves. Non-JSON bodies are scanned as a single opaque string.
func templateBody(body string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return templateValue(body)
	}
	templateJSONValue(v)
	out, err := json.Marshal(v)
	if err != nil {
		return body
	}
	return string(out)
}

func templateJSONValue(v interface{}) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if s, ok := val.(string); ok {
				t[k] = templateValue(s)
			} else {
				templateJSONValue(val)
			}
		}
	case []interface{}:
		for i, val := range t {
			if s, ok := val.(string); ok {
				t[i] = templateValue(s)
			} else {
				templateJSONValue(val)
			}
		}
	}
}
