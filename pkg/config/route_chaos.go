package config

import (
	"github.com/mockforge/mockforge/internal/matching"
	"github.com/mockforge/mockforge/pkg/chaos"
)

// RouteConfig binds a chaos latency/fault policy to one route. Method empty
// matches any method; Path follows the same {param}/glob matching the
// fixture matcher uses for HTTPMatcher.Path.
type RouteConfig struct {
	Method  string                            `json:"method,omitempty" yaml:"method,omitempty"`
	Path    string                             `json:"path,omitempty" yaml:"path,omitempty"`
	Latency *chaos.RouteLatencyConfig          `json:"latency,omitempty" yaml:"latency,omitempty"`
	Fault   *chaos.RouteFaultInjectionConfig   `json:"fault,omitempty" yaml:"fault,omitempty"`
}

// RouteChaosTable looks up the configured chaos policy for a request's
// method and path, implementing the dispatch pipeline's RouteChaos seam
// without pkg/config needing to import pkg/dispatch.
type RouteChaosTable struct {
	routes []RouteConfig
}

// NewRouteChaosTable builds a lookup table over the given route configs,
// normalizing each policy's probability bounds on the way in.
func NewRouteChaosTable(routes []RouteConfig) *RouteChaosTable {
	for i := range routes {
		routes[i].Latency.Validate()
		routes[i].Fault.Validate()
	}
	return &RouteChaosTable{routes: routes}
}

func (t *RouteChaosTable) match(method, path string) *RouteConfig {
	for i := range t.routes {
		r := &t.routes[i]
		if r.Method != "" && r.Method != method {
			continue
		}
		if r.Path != "" && matching.MatchPath(r.Path, path) == 0 {
			continue
		}
		return r
	}
	return nil
}

// LatencyFor returns the configured latency policy for a route, or nil.
func (t *RouteChaosTable) LatencyFor(method, path string) *chaos.RouteLatencyConfig {
	if t == nil {
		return nil
	}
	if r := t.match(method, path); r != nil && r.Latency != nil && r.Latency.Enabled {
		return r.Latency
	}
	return nil
}

// FaultFor returns the configured fault policy for a route, or nil.
func (t *RouteChaosTable) FaultFor(method, path string) *chaos.RouteFaultInjectionConfig {
	if t == nil {
		return nil
	}
	if r := t.match(method, path); r != nil && r.Fault != nil && r.Fault.Enabled {
		return r.Fault
	}
	return nil
}
