package protocol

import (
	"bytes"
	"io"
	"net/http"
)

// Protocol identifies the transport a request arrived over.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
)

// String returns the string representation of the protocol.
func (p Protocol) String() string {
	return string(p)
}

// ProtocolRequest is the transport-agnostic view of an inbound request
// that the dispatch pipeline's fingerprint and recorder stages consume.
type ProtocolRequest struct {
	Protocol Protocol
	Method   string
	Path     string
	Query    string
	Headers  http.Header
	Body     []byte
	ClientIP string
}

// FromHTTPRequest builds a ProtocolRequest from a live *http.Request,
// reading and restoring its body so later pipeline stages can still
// consume it.
func FromHTTPRequest(r *http.Request) (*ProtocolRequest, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
	}
	return &ProtocolRequest{
		Protocol: ProtocolHTTP,
		Method:   r.Method,
		Path:     r.URL.Path,
		Query:    r.URL.RawQuery,
		Headers:  r.Header.Clone(),
		Body:     body,
		ClientIP: r.RemoteAddr,
	}, nil
}
