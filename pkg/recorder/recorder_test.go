package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T, cfg Config) *Recorder {
	t.Helper()
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(t.TempDir(), "recorder.db")
	}
	r, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r.Close(ctx)
	})
	return r
}

func sampleExchange(id string) Exchange {
	now := time.Now()
	return Exchange{
		Request: RecordedRequest{
			ID:        id,
			Protocol:  "http",
			Timestamp: now,
			Method:    "GET",
			Path:      "/widgets/42",
			Headers:   map[string][]string{"Authorization": {"Bearer secret"}},
			StatusCode: 200,
		},
		Response: RecordedResponse{
			RequestID:  id,
			StatusCode: 200,
			Headers:    map[string][]string{"Content-Type": {"application/json"}},
			Body:       []byte(`{"id":42,"name":"widget"}`),
			Timestamp:  now,
		},
	}
}

func TestRecorderIngestAndFlush(t *testing.T) {
	cfg := DefaultConfig()
	r := newTestRecorder(t, cfg)

	r.Record(sampleExchange("req-1"))

	require.Eventually(t, func() bool {
		return r.Stats().Written == 1
	}, time.Second, 10*time.Millisecond)

	ex, err := r.Store().FindByFingerprint("GET", "/widgets/42")
	require.NoError(t, err)
	require.NotNil(t, ex)
	assert.Equal(t, "[REDACTED]", ex.Request.Headers["Authorization"][0])
}

func TestRecorderDropsOldestOnOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueCapacity = 1
	cfg.DropOnOverflow = true
	// No background writer, so the queue is not drained while we inspect it.
	r := &Recorder{cfg: cfg, notify: make(chan struct{}, 1)}

	r.Record(sampleExchange("stuck-1"))
	r.Record(sampleExchange("stuck-2"))

	require.Len(t, r.queue, 1)
	assert.Equal(t, "stuck-2", r.queue[0].Request.ID)
	assert.Equal(t, int64(1), r.Stats().Dropped)
}

func TestRecorderDisabledIsNoop(t *testing.T) {
	r := newTestRecorder(t, Config{Enabled: false})
	r.Record(sampleExchange("req-1"))
	assert.Equal(t, int64(0), r.Stats().Queued)
	assert.Nil(t, r.Store())
}

func TestStoreDeleteOlderThan(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "retention.db"))
	require.NoError(t, err)
	defer store.Close()

	old := RecordedRequest{ID: "old-1", Protocol: "http", Timestamp: time.Now().Add(-48 * time.Hour), Method: "GET", Path: "/a"}
	fresh := RecordedRequest{ID: "fresh-1", Protocol: "http", Timestamp: time.Now(), Method: "GET", Path: "/b"}
	require.NoError(t, store.InsertRequest(old))
	require.NoError(t, store.InsertRequest(fresh))

	n, err := store.DeleteOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := store.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreEnforceMaxRows(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "maxrows.db"))
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 5; i++ {
		req := RecordedRequest{
			ID:        string(rune('a' + i)),
			Protocol:  "http",
			Timestamp: time.Now().Add(time.Duration(i) * time.Minute),
			Method:    "GET",
			Path:      "/x",
		}
		require.NoError(t, store.InsertRequest(req))
	}

	n, err := store.EnforceMaxRows(3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := store.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestToStubTemplatesDynamicValues(t *testing.T) {
	ex := Exchange{
		Request: RecordedRequest{
			Method: "GET",
			Path:   "/users/550e8400-e29b-41d4-a716-446655440000",
		},
		Response: RecordedResponse{
			StatusCode: 200,
			Headers:    map[string][]string{"Authorization": {"Bearer abc123.def456"}},
			Body:       []byte(`{"createdAt":"2026-01-02T03:04:05Z","id":"550e8400-e29b-41d4-a716-446655440000"}`),
		},
	}

	stub := ToStub(ex)
	assert.Equal(t, "/users/{{uuid}}", stub.Path)
	assert.Equal(t, "{{token}}", stub.Response["Authorization"])
	assert.Contains(t, stub.Body, "{{timestamp}}")
	assert.Contains(t, stub.Body, "{{uuid}}")
}

func TestToStubNumericPathSegment(t *testing.T) {
	ex := Exchange{
		Request:  RecordedRequest{Method: "GET", Path: "/widgets/42"},
		Response: RecordedResponse{StatusCode: 200},
	}
	stub := ToStub(ex)
	assert.Equal(t, "/widgets/{{id}}", stub.Path)
}

func TestMarshalStubYAMLAndJSON(t *testing.T) {
	stub := Stub{Method: "GET", Path: "/ping", Status: 200}

	yamlBytes, err := Marshal(stub, StubFormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(yamlBytes), "method: GET")

	jsonBytes, err := Marshal(stub, StubFormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"method": "GET"`)
}
