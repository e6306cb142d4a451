// Package config loads the YAML configuration describing which specifications
// to expose and how to reach and authenticate against their backends. The
// resulting Config is an explicit value passed into the registry and the
// credential source; nothing here is global.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/openapi-actions/internal/dispatch"
	"github.com/mark3labs/openapi-actions/internal/registry"
)

// EnvConfigPath names the environment variable consulted for the config file
// location when no --config flag is given.
const EnvConfigPath = "OPENAPI_ACTIONS_CONFIG"

// Config is the full configuration for one process.
type Config struct {
	Debug    bool               `yaml:"debug"`
	LogFile  string             `yaml:"log_file"`
	Services map[string]Service `yaml:"services"`
}

// Service configures one specification binding.
type Service struct {
	FileLocation   string         `yaml:"file_location"`
	BaseURL        string         `yaml:"base_url"`
	Prefix         string         `yaml:"prefix"`
	Authentication Authentication `yaml:"authentication"`
	IncludeTags    StringList     `yaml:"include_tags"`
	ExcludeTags    StringList     `yaml:"exclude_tags"`
	IncludePaths   StringList     `yaml:"include_paths"`
	ExcludePaths   StringList     `yaml:"exclude_paths"`
}

// Authentication holds a service's auth scheme and credentials. Credentials
// omitted here fall back to <SERVICE>_API_KEY / _API_SECRET / _API_TOKEN
// environment variables.
type Authentication struct {
	AuthType  string `yaml:"auth_type"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	APIToken  string `yaml:"api_token"`
}

// StringList unmarshals from either a YAML sequence or a comma-joined string.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = splitAndTrim(s)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("expected string or list")
	}
}

// Load reads the config file at path. When path is empty the OPENAPI_ACTIONS
// _CONFIG environment variable and then ./config.yaml are tried; if no file
// exists, a single binding is synthesized from OPENAPI_SPEC_PATH and friends.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	explicit := path != ""
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
		explicit = path != ""
	}
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return fromEnv()
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// fromEnv synthesizes a single-service config from environment variables, for
// deployments without a config file.
func fromEnv() (*Config, error) {
	specPath := strings.TrimSpace(os.Getenv("OPENAPI_SPEC_PATH"))
	baseURL := strings.TrimSpace(os.Getenv("OPENAPI_BASE_URL"))
	if specPath == "" || baseURL == "" {
		return nil, fmt.Errorf("config: no config file found and OPENAPI_SPEC_PATH/OPENAPI_BASE_URL are not set")
	}
	service := strings.TrimSpace(os.Getenv("OPENAPI_SERVICE_NAME"))
	if service == "" {
		service = "default"
	}
	return &Config{
		Services: map[string]Service{
			service: {
				FileLocation: specPath,
				BaseURL:      baseURL,
				Authentication: Authentication{
					AuthType: strings.TrimSpace(os.Getenv("OPENAPI_AUTH_TYPE")),
				},
			},
		},
	}, nil
}

// Bindings returns the configured specification bindings, ordered by service
// name for deterministic registry construction. The name prefix defaults to
// the service name.
func (c *Config) Bindings() []registry.Binding {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]registry.Binding, 0, len(names))
	for _, name := range names {
		svc := c.Services[name]
		prefix := svc.Prefix
		if prefix == "" {
			prefix = name
		}
		out = append(out, registry.Binding{
			Service:      name,
			FileLocation: svc.FileLocation,
			Prefix:       prefix,
			AuthType:     svc.Authentication.AuthType,
			BaseURL:      svc.BaseURL,
			IncludeTags:  svc.IncludeTags,
			ExcludeTags:  svc.ExcludeTags,
			IncludePaths: svc.IncludePaths,
			ExcludePaths: svc.ExcludePaths,
		})
	}
	return out
}

// BaseURL returns the configured base address for a service, or "".
func (c *Config) BaseURL(service string) string {
	return c.Services[service].BaseURL
}

// Credentials resolves a service's secrets, preferring the config file and
// falling back to <SERVICE>_API_KEY / _API_SECRET / _API_TOKEN environment
// variables. Missing values stay empty; the dispatcher decides whether that
// is fatal for the action's auth scheme.
func (c *Config) Credentials(service string) (dispatch.Credentials, error) {
	auth := c.Services[service].Authentication
	creds := dispatch.Credentials{
		Key:    auth.APIKey,
		Secret: auth.APISecret,
		Token:  auth.APIToken,
	}
	envPrefix := strings.ToUpper(strings.ReplaceAll(service, "-", "_"))
	if creds.Key == "" {
		creds.Key = os.Getenv(envPrefix + "_API_KEY")
	}
	if creds.Secret == "" {
		creds.Secret = os.Getenv(envPrefix + "_API_SECRET")
	}
	if creds.Token == "" {
		creds.Token = os.Getenv(envPrefix + "_API_TOKEN")
	}
	return creds, nil
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
