package recorder

import "time"

// DefaultFilterHeaders are headers redacted from persisted requests and
// responses by default.
var DefaultFilterHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"X-API-Key",
	"X-Auth-Token",
}

// RedactedValue replaces a filtered header's value in storage.
const RedactedValue = "[REDACTED]"

// Config configures the recorder.
type Config struct {
	Enabled          bool     `json:"enabled" yaml:"enabled"`
	DBPath           string   `json:"dbPath" yaml:"dbPath"`
	RetentionDays    int      `json:"retentionDays,omitempty" yaml:"retentionDays,omitempty"`
	MaxRows          int      `json:"maxRows,omitempty" yaml:"maxRows,omitempty"`
	DropOnOverflow   bool     `json:"dropOnOverflow" yaml:"dropOnOverflow"`
	QueueCapacity    int      `json:"queueCapacity,omitempty" yaml:"queueCapacity,omitempty"`
	FilterHeaders    []string `json:"filterHeaders,omitempty" yaml:"filterHeaders,omitempty"`
	RetentionPeriod  time.Duration `json:"-" yaml:"-"`
}

// DefaultConfig returns sensible recorder defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		DBPath:         "mockforge_recorder.db",
		RetentionDays:  30,
		MaxRows:        100_000,
		DropOnOverflow: true,
		QueueCapacity:  1024,
		FilterHeaders:  DefaultFilterHeaders,
	}
}

// RecordedRequest is one inbound request, matching the persisted
// `requests` table row shape.
type RecordedRequest struct {
	ID         string
	Protocol   string
	Timestamp  time.Time
	Method     string
	Path       string
	Query      string
	Headers    map[string][]string
	Body       []byte
	BodyEncoding string // "utf8" or "base64"
	ClientIP   string
	TraceID    string
	SpanID     string
	DurationMs int64
	StatusCode int
	Tags       map[string]string
}

// RecordedResponse is the response half of an exchange, FK-linked to a
// RecordedRequest by ID.
type RecordedResponse struct {
	RequestID    string
	StatusCode   int
	Headers      map[string][]string
	Body         []byte
	BodyEncoding string
	SizeBytes    int64
	Timestamp    time.Time
}

// Exchange pairs a request and its response for conversion/replay.
type Exchange struct {
	Request  RecordedRequest
	Response RecordedResponse
}

// Stats reports recorder queue health.
type Stats struct {
	Queued  int64
	Written int64
	Dropped int64
}
