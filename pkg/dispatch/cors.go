package dispatch

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mockforge/mockforge/pkg/config"
)

// CORSMiddleware wraps an http.Handler with CORS handling based on
// configuration. An OPTIONS request whose origin is not allowed gets 403
// and the wrapped handler does not run; every other request gets CORS
// headers when its origin is allowed and is passed to the wrapped handler.
type CORSMiddleware struct {
	handler http.Handler
	config  *config.CORSConfig
}

// NewCORSMiddleware wraps handler with CORS handling. A nil cfg falls
// back to config.DefaultCORSConfig's secure, localhost-only defaults.
func NewCORSMiddleware(handler http.Handler, cfg *config.CORSConfig) *CORSMiddleware {
	if cfg == nil {
		cfg = config.DefaultCORSConfig()
	}
	return &CORSMiddleware{handler: handler, config: cfg}
}

func (m *CORSMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !m.config.Enabled {
		m.handler.ServeHTTP(w, r)
		return
	}

	origin := r.Header.Get("Origin")
	allowOrigin := m.config.GetAllowOriginValue(origin)

	if allowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)

		methods := m.config.AllowMethods
		if len(methods) == 0 {
			methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
		}
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))

		headers := m.config.AllowHeaders
		if len(headers) == 0 {
			headers = []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"}
		}
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))

		if len(m.config.ExposeHeaders) > 0 {
			w.Header().Set("Access-Control-Expose-Headers", strings.Join(m.config.ExposeHeaders, ", "))
		}

		if m.config.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		maxAge := m.config.MaxAge
		if maxAge <= 0 {
			maxAge = 86400
		}
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	}

	if r.Method == http.MethodOptions && allowOrigin == "" {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	m.handler.ServeHTTP(w, r)
}
