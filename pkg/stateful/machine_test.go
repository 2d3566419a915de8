package stateful

import (
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderLifecycleConfig() *Config {
	return &Config{
		ResourceType: "order",
		ResourceIDExtract: ResourceIDExtract{
			Kind: ExtractPathParam,
			Name: "id",
		},
		StateResponses: map[string]StateResponse{
			"pending": {
				StatusCode:  200,
				ContentType: "application/json",
				BodyTemplate: `{"status":"pending","order_id":"{{resource_id}}"}`,
			},
			"processing": {
				StatusCode:  200,
				ContentType: "application/json",
				BodyTemplate: `{"status":"processing","order_id":"{{resource_id}}"}`,
			},
		},
		Transitions: []TransitionTrigger{
			{Method: "POST", PathPattern: "/api/orders", FromState: InitialState, ToState: "pending"},
			{Method: "POST", PathPattern: "/api/orders/{id}/process", FromState: "pending", ToState: "processing"},
		},
	}
}

func TestStatefulOrderLifecycle(t *testing.T) {
	m, err := NewMachine(orderLifecycleConfig())
	require.NoError(t, err)

	res, ok := m.Transition("POST", "/api/orders", http.Header{}, url.Values{}, []byte(`{"product":"widget"}`))
	require.True(t, ok)
	assert.True(t, res.Matched)
	assert.Equal(t, "pending", res.ToState)

	id := res.ResourceID
	require.NotNil(t, res.Response)
	assert.Contains(t, res.Response.Body, `"status":"pending"`)

	res2, ok := m.Transition("POST", "/api/orders/"+id+"/process", http.Header{}, url.Values{}, nil)
	require.True(t, ok)
	assert.True(t, res2.Matched)
	assert.Equal(t, "processing", res2.ToState)
	require.NotNil(t, res2.Response)
	assert.Contains(t, res2.Response.Body, `"status":"processing"`)
}

func TestStatefulNoMatchingTransitionLeavesStateUnchanged(t *testing.T) {
	m, err := NewMachine(orderLifecycleConfig())
	require.NoError(t, err)

	res, ok := m.Transition("DELETE", "/api/orders/xyz", http.Header{}, url.Values{}, nil)
	require.True(t, ok)
	assert.False(t, res.Matched)
	assert.Equal(t, InitialState, res.ToState)
	assert.Nil(t, res.Response)
}

func TestStatefulConfigValidateRejectsDanglingToState(t *testing.T) {
	cfg := &Config{
		StateResponses: map[string]StateResponse{},
		Transitions: []TransitionTrigger{
			{Method: "POST", PathPattern: "/x", FromState: InitialState, ToState: "nope"},
		},
	}
	_, err := NewMachine(cfg)
	require.Error(t, err)
}

func TestStatefulSerializabilityUnderConcurrency(t *testing.T) {
	cfg := &Config{
		ResourceType:      "counter",
		ResourceIDExtract: ResourceIDExtract{Kind: ExtractPathParam, Name: "id"},
		StateResponses: map[string]StateResponse{
			"bumped": {StatusCode: 200, BodyTemplate: "{{state}}"},
		},
		Transitions: []TransitionTrigger{
			{Method: "POST", PathPattern: "/counters/{id}/bump", FromState: InitialState, ToState: "bumped"},
			{Method: "POST", PathPattern: "/counters/{id}/bump", FromState: "bumped", ToState: "bumped"},
		},
	}
	m, err := NewMachine(cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Transition("POST", "/counters/shared/bump", http.Header{}, url.Values{}, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, "bumped", m.StateOf("shared"))
}

func TestStatefulConditionGuardsTransition(t *testing.T) {
	cfg := &Config{
		ResourceType:      "flag",
		ResourceIDExtract: ResourceIDExtract{Kind: ExtractPathParam, Name: "id"},
		StateResponses: map[string]StateResponse{
			"approved": {StatusCode: 200, BodyTemplate: "ok"},
		},
		Transitions: []TransitionTrigger{
			{
				Method: "POST", PathPattern: "/flags/{id}",
				FromState: InitialState, ToState: "approved",
				Condition: `Body.approve == true`,
			},
		},
	}
	m, err := NewMachine(cfg)
	require.NoError(t, err)

	res, ok := m.Transition("POST", "/flags/f1", http.Header{}, url.Values{}, []byte(`{"approve":false}`))
	require.True(t, ok)
	assert.False(t, res.Matched)

	res2, ok := m.Transition("POST", "/flags/f1", http.Header{}, url.Values{}, []byte(`{"approve":true}`))
	require.True(t, ok)
	assert.True(t, res2.Matched)
}
