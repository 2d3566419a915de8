// Package validation provides per-mock HTTP request validation: required
// fields, type/format/range checks on body, path, query, and header values,
// and best-effort inference of those rules from stateful seed data.
//
// # Basic usage
//
//	validator := validation.NewHTTPValidator(mock.HTTP.Validation)
//	if validator != nil {
//	    result := validator.Validate(ctx, body, pathParams, queryParams, headers)
//	    if !result.Valid {
//	        resp := validation.NewErrorResponse(result, validator.GetFailStatus())
//	        resp.WriteResponse(w)
//	    }
//	}
//
// RequestValidation.Mode controls what a failure does: "strict" (default)
// rejects the request, "warn" logs and continues, "permissive" continues
// unless a required field is missing.
package validation
