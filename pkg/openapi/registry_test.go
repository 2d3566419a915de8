package openapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mockforge/mockforge/pkg/fingerprint"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `
openapi: 3.0.3
info:
  title: sample
  version: "1.0"
paths:
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: string
                  name:
                    type: string
  /secure:
    get:
      operationId: getSecure
      security:
        - bearerAuth: []
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
components:
  securitySchemes:
    bearerAuth:
      type: http
      scheme: bearer
`

func newTestRegistry(t *testing.T, mode Mode) *Registry {
	t.Helper()
	cfg := &ValidationConfig{
		Enabled:         true,
		Spec:            sampleSpec,
		ValidateRequest: mode != ModeDisabled,
		Mode:            mode,
		AggregateErrors: true,
	}
	reg, err := NewRegistry(cfg, nil)
	require.NoError(t, err)
	return reg
}

func TestRegistryEnumeratesRoutes(t *testing.T) {
	reg := newTestRegistry(t, ModeEnforce)
	assert.Len(t, reg.routes, 2)
}

func TestRegistryResolveGeneratesInstance(t *testing.T) {
	reg := newTestRegistry(t, ModeEnforce)
	r := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	fp := fingerprint.FromRequest(r, nil)

	resp, err := reg.Resolve(context.Background(), fp, r)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), `"id"`)
}

func TestRegistryNoMatchingRouteIsMiss(t *testing.T) {
	reg := newTestRegistry(t, ModeEnforce)
	r := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	fp := fingerprint.FromRequest(r, nil)

	resp, err := reg.Resolve(context.Background(), fp, r)
	assert.NoError(t, err)
	assert.Nil(t, resp)
}

func TestRegistrySecureRouteRejectsMissingBearer(t *testing.T) {
	reg := newTestRegistry(t, ModeEnforce)
	r := httptest.NewRequest(http.MethodGet, "/secure", nil)
	fp := fingerprint.FromRequest(r, nil)

	_, err := reg.Resolve(context.Background(), fp, r)
	require.Error(t, err)

	var valErr *priority.ErrValidationFailed
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, http.StatusBadRequest, valErr.StatusCode)
}

func TestRegistryDisabledModeIsNoop(t *testing.T) {
	reg := newTestRegistry(t, ModeDisabled)
	r := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	fp := fingerprint.FromRequest(r, nil)

	resp, err := reg.Resolve(context.Background(), fp, r)
	assert.NoError(t, err)
	assert.Nil(t, resp)
}
