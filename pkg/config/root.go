package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mockforge/mockforge/pkg/chain"
	"github.com/mockforge/mockforge/pkg/openapi"
	"github.com/mockforge/mockforge/pkg/proxy"
	"github.com/mockforge/mockforge/pkg/recorder"
	"github.com/mockforge/mockforge/pkg/stateful"
)

// RootConfig is the top-level configuration for a mockforge instance: the
// ambient server settings plus each dispatch-pipeline component's
// declarative configuration.
type RootConfig struct {
	Server *ServerConfiguration `json:"server,omitempty" yaml:"server,omitempty"`

	// Mocks lists fixture entries, reusing the existing MockEntry loader.
	Mocks []MockEntry `json:"mocks,omitempty" yaml:"mocks,omitempty"`

	// Routes binds per-route chaos (latency/fault) policies.
	Routes []RouteConfig `json:"routes,omitempty" yaml:"routes,omitempty"`

	// Proxy holds conditional forwarding rules, consulted after recorded
	// replay and before the mock/OpenAPI source.
	Proxy []*proxy.Rule `json:"proxy,omitempty" yaml:"proxy,omitempty"`

	// Stateful maps a route pattern to its transition-machine config.
	Stateful map[string]*stateful.Config `json:"stateful,omitempty" yaml:"stateful,omitempty"`

	// OpenAPI configures the spec-driven route registry and validation mode.
	OpenAPI *openapi.ValidationConfig `json:"openapi,omitempty" yaml:"openapi,omitempty"`

	// Chains lists request-chaining definitions runnable via the chain API.
	Chains []*chain.Chain `json:"chains,omitempty" yaml:"chains,omitempty"`

	// Recorder configures exchange capture and retention.
	Recorder recorder.Config `json:"recorder,omitempty" yaml:"recorder,omitempty"`
}

// DefaultRootConfig returns a RootConfig with every component defaulted
// off or to its safest setting.
func DefaultRootConfig() *RootConfig {
	return &RootConfig{
		Server:   DefaultServerConfiguration(),
		Recorder: recorder.DefaultConfig(),
	}
}

// LoadRootConfig reads a RootConfig from a JSON or YAML file, auto-detected
// by extension, following the same convention as LoadFromFile.
func LoadRootConfig(path string) (*RootConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg := DefaultRootConfig()
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidYAML, err)
		}
		return cfg, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, path)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
