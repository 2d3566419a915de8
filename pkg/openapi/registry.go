package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/logging"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/mockforge/mockforge/pkg/template"
)

// operationMethods enumerates the HTTP verbs a path item may declare, in a
// fixed order so route enumeration is deterministic.
var operationMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
	http.MethodPatch, http.MethodHead, http.MethodOptions, http.MethodTrace,
}

// Route is one (path, method) pair generated from the spec, carrying
// everything needed to validate and answer a matching request.
type Route struct {
	Path      string
	Method    string
	Operation *openapi3.Operation
	PathItem  *openapi3.PathItem

	requiresBearer bool
}

// Registry enumerates every route in an OpenAPI document and serves as a
// priority.ResponseSource: it validates the request per the configured
// Mode and, absent a higher-priority match elsewhere, generates a mock
// response from the matched operation.
type Registry struct {
	validator *OpenAPIValidator
	routes    []*Route
	tmpl      *template.Engine
	log       *slog.Logger
}

// NewRegistry builds a Registry from a ValidationConfig, loading and
// validating the spec, enumerating routes, and wiring the given template
// engine for response-template expansion.
func NewRegistry(config *ValidationConfig, tmpl *template.Engine) (*Registry, error) {
	validator, err := NewOpenAPIValidator(config)
	if err != nil {
		return nil, err
	}
	reg := &Registry{validator: validator, tmpl: tmpl, log: logging.Nop()}
	if validator.GetSpec() != nil {
		reg.routes = enumerateRoutes(validator.GetSpec())
	}
	return reg, nil
}

// SetLogger installs an operational logger for Warn-mode validation
// failures and security-scheme shape-check failures.
func (reg *Registry) SetLogger(log *slog.Logger) {
	if log != nil {
		reg.log = log
	} else {
		reg.log = logging.Nop()
	}
}

func enumerateRoutes(doc *openapi3.T) []*Route {
	var routes []*Route
	paths := doc.Paths
	if paths == nil {
		return routes
	}
	keys := make([]string, 0, paths.Len())
	for path := range paths.Map() {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		item := paths.Value(path)
		if item == nil {
			continue
		}
		ops := item.Operations()
		for _, method := range operationMethods {
			op, ok := ops[method]
			if !ok || op == nil {
				continue
			}
			routes = append(routes, &Route{
				Path:           path,
				Method:         method,
				Operation:      op,
				PathItem:       item,
				requiresBearer: requiresBearerAuth(doc, op),
			})
		}
	}
	return routes
}

func requiresBearerAuth(doc *openapi3.T, op *openapi3.Operation) bool {
	var reqs openapi3.SecurityRequirements
	if op.Security != nil {
		reqs = *op.Security
	} else {
		reqs = doc.Security
	}
	if len(reqs) == 0 || doc.Components == nil {
		return false
	}
	for _, req := range reqs {
		for name := range req {
			scheme := doc.Components.SecuritySchemes[name]
			if scheme == nil || scheme.Value == nil {
				continue
			}
			if scheme.Value.Type == "http" && strings.EqualFold(scheme.Value.Scheme, "bearer") {
				return true
			}
		}
	}
	return false
}

// Name satisfies priority.ResponseSource.
func (reg *Registry) Name() string { return "Mock" }

// MatchRoute finds the Route for method+path, using the validator's
// already-built gorillamux router so path-parameter segments ({id}) match
// correctly.
func (reg *Registry) MatchRoute(r *http.Request) (*Route, map[string]string, error) {
	if reg.validator.router == nil {
		return nil, nil, fmt.Errorf("openapi: no spec loaded")
	}
	route, pathParams, err := reg.validator.router.FindRoute(r)
	if err != nil {
		return nil, nil, err
	}
	for _, candidate := range reg.routes {
		if candidate.Operation == route.Operation {
			return candidate, pathParams, nil
		}
	}
	return nil, nil, fmt.Errorf("openapi: matched operation not in registry")
}

// Resolve implements priority.ResponseSource: validate per Mode, then
// generate a mock response from the matched route's selected schema.
func (reg *Registry) Resolve(ctx context.Context, fp *fingerprint.Fingerprint, r *http.Request) (*priority.ResolvedResponse, error) {
	cfg := reg.validator.GetConfig()
	if cfg == nil || cfg.Mode == ModeDisabled || reg.validator.GetSpec() == nil {
		return nil, nil
	}

	route, pathParams, err := reg.MatchRoute(r)
	if err != nil {
		return nil, nil // no matching route: not this source's concern
	}

	if route.requiresBearer {
		if failure := checkBearerShape(r); failure != nil {
			if _, err := reg.handleFailure(cfg, &Result{Valid: false, Errors: []*FieldError{failure}}); err != nil {
				return nil, err
			}
		}
	}

	if cfg.ValidateRequest {
		result := reg.validator.ValidateRequest(r)
		if !result.Valid {
			if _, err := reg.handleFailure(cfg, result); err != nil {
				return nil, err
			}
		}
	}

	status, resp := selectResponse(route.Operation)
	if resp == nil {
		return &priority.ResolvedResponse{StatusCode: http.StatusOK, Detail: "OpenApi"}, nil
	}

	body, contentType := renderResponseBody(resp, pathParams)
	if contentType == "application/json" {
		sanityCheckGeneratedInstance(reg.log, route.Path, resp, body)
	}
	if cfg.ResponseTemplateExpand && reg.tmpl != nil && strings.Contains(body, "{{") {
		tmplCtx := template.NewContext(r, nil)
		tmplCtx.Request.PathParams = pathParams
		if expanded, err := reg.tmpl.Process(body, tmplCtx); err == nil {
			body = expanded
		}
	}

	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	resolved := &priority.ResolvedResponse{
		StatusCode: status,
		Header:     header,
		Body:       []byte(body),
		Detail:     "OpenApi",
	}

	if cfg.ValidateResponse {
		validation := reg.validator.ValidateResponse(r, status, header, resolved.Body)
		if !validation.Valid {
			reg.log.Warn("openapi: generated response failed its own schema", "path", route.Path, "method", route.Method)
		}
	}

	return resolved, nil
}

func (reg *Registry) handleFailure(cfg *ValidationConfig, result *Result) (*priority.ResolvedResponse, error) {
	switch cfg.Mode {
	case ModeWarn:
		reg.log.Warn("openapi: request failed validation, serving anyway", "errors", len(result.Errors))
		return nil, nil
	default: // ModeEnforce
		status := cfg.ValidationStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		body, _ := marshalValidationErrors(result)
		return nil, &priority.ErrValidationFailed{StatusCode: status, Body: body}
	}
}

// checkBearerShape verifies an Authorization: Bearer <jwt> header parses as
// a well-formed, unexpired JWT without verifying its signature.
func checkBearerShape(r *http.Request) *FieldError {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return &FieldError{Location: LocationHeader, Field: "Authorization", Code: "missing_bearer", Message: "missing bearer token"}
	}
	tokenStr := strings.TrimPrefix(auth, prefix)

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return &FieldError{Location: LocationHeader, Field: "Authorization", Code: "malformed_jwt", Message: err.Error()}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return &FieldError{Location: LocationHeader, Field: "Authorization", Code: "malformed_jwt", Message: "unreadable claims"}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if exp.Before(time.Now()) {
			return &FieldError{Location: LocationHeader, Field: "Authorization", Code: "expired_jwt", Message: "token expired"}
		}
	}
	return nil
}

// selectResponse picks the response definition per SPEC_FULL §4.6: explicit
// 2xx exemplar, then first success-class response, then first response.
func selectResponse(op *openapi3.Operation) (int, *openapi3.Response) {
	if op.Responses == nil || op.Responses.Len() == 0 {
		return http.StatusOK, nil
	}
	codes := make([]string, 0, op.Responses.Len())
	for code := range op.Responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	pick := func(pred func(string) bool) (int, *openapi3.Response, bool) {
		for _, code := range codes {
			if !pred(code) {
				continue
			}
			ref := op.Responses.Value(code)
			if ref == nil || ref.Value == nil {
				continue
			}
			status, err := strconv.Atoi(code)
			if err != nil {
				continue
			}
			return status, ref.Value, true
		}
		return 0, nil, false
	}

	if status, resp, ok := pick(func(c string) bool { return strings.HasPrefix(c, "2") }); ok {
		return status, resp
	}
	if status, resp, ok := pick(func(string) bool { return true }); ok {
		return status, resp
	}
	return http.StatusOK, nil
}

func renderResponseBody(resp *openapi3.Response, pathParams map[string]string) (string, string) {
	for contentType, media := range resp.Content {
		if media.Example != nil {
			if s, ok := media.Example.(string); ok {
				return s, contentType
			}
			return fmt.Sprintf("%v", media.Example), contentType
		}
		for _, ex := range media.Examples {
			if ex != nil && ex.Value != nil {
				return fmt.Sprintf("%v", ex.Value.Value), contentType
			}
		}
		if media.Schema != nil && media.Schema.Value != nil {
			instance := generateInstance(media.Schema.Value, 0)
			return instance, contentType
		}
	}
	return "", ""
}

// generateInstance produces a JSON-literal string instance of schema,
// preferring declared examples/defaults/enum members and falling back to a
// type-appropriate placeholder. depth guards against self-referential
// schemas.
func generateInstance(schema *openapi3.Schema, depth int) string {
	if depth > 3 {
		return "null"
	}
	if schema.Example != nil {
		return fmt.Sprintf("%v", schema.Example)
	}
	if schema.Default != nil {
		return fmt.Sprintf("%v", schema.Default)
	}
	if len(schema.Enum) > 0 {
		return fmt.Sprintf("%v", schema.Enum[0])
	}

	types := schema.Type
	typeName := ""
	if types != nil && len(*types) > 0 {
		typeName = (*types)[0]
	}

	switch typeName {
	case "object":
		var sb strings.Builder
		sb.WriteString("{")
		first := true
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !first {
				sb.WriteString(",")
			}
			first = false
			fmt.Fprintf(&sb, "%q:", name)
			propSchema := schema.Properties[name]
			if propSchema != nil && propSchema.Value != nil {
				sb.WriteString(quoteIfString(propSchema.Value, generateInstance(propSchema.Value, depth+1)))
			} else {
				sb.WriteString("null")
			}
		}
		sb.WriteString("}")
		return sb.String()
	case "array":
		if schema.Items != nil && schema.Items.Value != nil {
			item := generateInstance(schema.Items.Value, depth+1)
			return "[" + quoteIfString(schema.Items.Value, item) + "]"
		}
		return "[]"
	case "string":
		return placeholderForFormat(schema.Format)
	case "integer":
		return "0"
	case "number":
		return "0"
	case "boolean":
		return "true"
	default:
		return "null"
	}
}

func quoteIfString(schema *openapi3.Schema, value string) string {
	types := schema.Type
	if types != nil && len(*types) > 0 && (*types)[0] == "string" {
		return value // placeholderForFormat already quotes
	}
	return value
}

func placeholderForFormat(format string) string {
	switch format {
	case "uuid":
		return `"00000000-0000-0000-0000-000000000000"`
	case "date-time":
		return `"1970-01-01T00:00:00Z"`
	case "date":
		return `"1970-01-01"`
	case "email":
		return `"user@example.com"`
	default:
		return `"string"`
	}
}

func marshalValidationErrors(result *Result) ([]byte, error) {
	return json.Marshal(result)
}

// sanityCheckGeneratedInstance re-validates a synthesized response body
// against its declared schema using a standalone JSON Schema engine. This
// catches cases kin-openapi's own request/response validators don't
// independently re-check — deep nested oneOf/anyOf instance generation —
// since the generator and the validator are different code paths. A
// mismatch never blocks the response; it's logged for the operator to fix
// the spec or the generator.
func sanityCheckGeneratedInstance(log *slog.Logger, path string, resp *openapi3.Response, body string) {
	media, ok := resp.Content["application/json"]
	if !ok || media.Schema == nil || media.Schema.Value == nil {
		return
	}
	schemaBytes, err := json.Marshal(media.Schema.Value)
	if err != nil {
		return
	}
	compiler := jsonschema.NewCompiler()
	const resourceURI = "mem://generated-instance-schema.json"
	if err := compiler.AddResource(resourceURI, strings.NewReader(string(schemaBytes))); err != nil {
		return
	}
	schema, err := compiler.Compile(resourceURI)
	if err != nil {
		return
	}
	var instance interface{}
	if err := json.Unmarshal([]byte(body), &instance); err != nil {
		return
	}
	if err := schema.Validate(instance); err != nil {
		log.Warn("openapi: generated instance failed schema sanity check", "path", path, "error", err)
	}
}
