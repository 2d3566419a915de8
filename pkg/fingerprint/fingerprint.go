package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// importantHeaders is the allowlist of header names considered part of a
// request's identity. Names are matched case-insensitively; anything not in
// this set is ignored during canonicalization.
var importantHeaders = map[string]bool{
	"authorization": true,
	"content-type":  true,
	"accept":        true,
	"x-api-key":     true,
}

// emptyBodyDigest is a sentinel distinct from sha256("") so an absent body
// can never be confused with a zero-byte body.
const emptyBodyDigest = ""

// Fingerprint is the canonical identity of a request.
type Fingerprint struct {
	Method  string
	Path    string
	Query   string
	Headers map[string]string
	BodyHash string
}

// New builds a Fingerprint from the canonicalization contract. hasBody
// distinguishes an absent body (bodyHash ignored, sentinel used) from a
// present-but-empty one (sha256 of zero bytes).
func New(method, rawURI string, headers http.Header, body []byte, hasBody bool) *Fingerprint {
	u, err := url.Parse(rawURI)
	path := rawURI
	rawQuery := ""
	if err == nil {
		path = u.Path
		rawQuery = u.RawQuery
	}

	fp := &Fingerprint{
		Method:  strings.ToUpper(method),
		Path:    path,
		Query:   canonicalQuery(rawQuery),
		Headers: canonicalHeaders(headers),
	}

	if !hasBody {
		fp.BodyHash = emptyBodyDigest
	} else {
		sum := sha256.Sum256(body)
		fp.BodyHash = hex.EncodeToString(sum[:])
	}

	return fp
}

// FromRequest is a convenience constructor reading directly off an
// *http.Request. The caller is responsible for having already buffered body
// (e.g. via io.ReadAll) since the request body reader is consumed once.
func FromRequest(r *http.Request, body []byte) *Fingerprint {
	return New(r.Method, r.URL.RequestURI(), r.Header, body, body != nil)
}

func canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	type kv struct{ k, v string }
	decoded := make([]kv, 0, len(pairs))
	for _, p := range pairs {
		if p == "" {
			continue
		}
		k, v, _ := strings.Cut(p, "=")
		dk, err1 := url.QueryUnescape(k)
		dv, err2 := url.QueryUnescape(v)
		if err1 != nil {
			dk = k
		}
		if err2 != nil {
			dv = v
		}
		decoded = append(decoded, kv{dk, dv})
	}
	sort.SliceStable(decoded, func(i, j int) bool {
		if decoded[i].k != decoded[j].k {
			return decoded[i].k < decoded[j].k
		}
		return decoded[i].v < decoded[j].v
	})
	parts := make([]string, len(decoded))
	for i, p := range decoded {
		parts[i] = url.QueryEscape(p.k) + "=" + url.QueryEscape(p.v)
	}
	return strings.Join(parts, "&")
}

func canonicalHeaders(headers http.Header) map[string]string {
	result := make(map[string]string)
	for name, values := range headers {
		lower := strings.ToLower(name)
		if !importantHeaders[lower] {
			continue
		}
		if len(values) == 0 {
			continue
		}
		result[lower] = strings.TrimRight(values[0], " \t")
	}
	return result
}

// ToHash returns a stable digest of the canonical tuple, usable as a cache
// key across process restarts.
func (fp *Fingerprint) ToHash() string {
	h := sha256.New()
	h.Write([]byte(fp.Method))
	h.Write([]byte{0})
	h.Write([]byte(fp.Path))
	h.Write([]byte{0})
	h.Write([]byte(fp.Query))
	h.Write([]byte{0})

	names := make([]string, 0, len(fp.Headers))
	for name := range fp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte("="))
		h.Write([]byte(fp.Headers[name]))
		h.Write([]byte{0})
	}
	h.Write([]byte(fp.BodyHash))
	return hex.EncodeToString(h.Sum(nil))
}

// Tags returns the lowercased method plus each non-parameter path segment,
// consumed by chaos tag filters.
func (fp *Fingerprint) Tags() map[string]bool {
	tags := map[string]bool{strings.ToLower(fp.Method): true}
	for _, seg := range strings.Split(strings.Trim(fp.Path, "/"), "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			continue
		}
		tags[strings.ToLower(seg)] = true
	}
	return tags
}

// ToDisplay returns a human-readable canonical form for logs and error
// contexts.
func (fp *Fingerprint) ToDisplay() string {
	var sb strings.Builder
	sb.WriteString(fp.Method)
	sb.WriteString(" ")
	sb.WriteString(fp.Path)
	if fp.Query != "" {
		sb.WriteString("?")
		sb.WriteString(fp.Query)
	}
	if len(fp.Headers) > 0 {
		names := make([]string, 0, len(fp.Headers))
		for name := range fp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString(" [")
		for i, name := range names {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%s", name, fp.Headers[name])
		}
		sb.WriteString("]")
	}
	return sb.String()
}

// Equal reports whether two fingerprints share the same canonical tuple.
func (fp *Fingerprint) Equal(other *Fingerprint) bool {
	if fp == nil || other == nil {
		return fp == other
	}
	return fp.ToHash() == other.ToHash()
}
