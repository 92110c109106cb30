// Package config loads and validates the offline client configuration.
// Role names and version tags are explicit configuration passed into the
// lifecycle manager, not compiled-in constants.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Site    SiteConfig    `yaml:"site"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains the local proxy server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// CacheConfig names the generation roles and selects the store backend.
// Bumping Version on deploy is the sole trigger for superseding and later
// deleting the prior generations.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `yaml:"backend"`

	// RedisAddr is the Redis address when Backend is "redis".
	RedisAddr string `yaml:"redis_addr"`

	// StaticRole names the static-assets generation role.
	StaticRole string `yaml:"static_role"`

	// DynamicRole names the dynamic-content generation role.
	DynamicRole string `yaml:"dynamic_role"`

	// Version is the deploy version tag appended to each role name.
	Version string `yaml:"version"`
}

// SiteConfig describes the site being cached.
type SiteConfig struct {
	// Origin is the base URL the layer fetches from.
	Origin string `yaml:"origin"`

	// Manifest is the ordered set of paths cached eagerly at install.
	Manifest []string `yaml:"manifest"`

	// FallbackPath is the offline document served when both network and
	// cache fail for a navigable request. It must appear in Manifest so it
	// lands in the static generation.
	FallbackPath string `yaml:"fallback_path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration defaults for the news digest site.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8090},
		Cache: CacheConfig{
			Backend:     "memory",
			RedisAddr:   "localhost:6379",
			StaticRole:  "static-assets",
			DynamicRole: "dynamic-content",
			Version:     "v1",
		},
		Site: SiteConfig{
			Manifest: []string{
				"/",
				"/index.html",
				"/css/site.css",
				"/js/app.js",
				"/manifest.json",
				"/offline.html",
			},
			FallbackPath: "/offline.html",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file, applying defaults for any
// unset fields.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	return config, nil
}

// StaticGeneration returns the versioned static generation name.
func (c *Config) StaticGeneration() string {
	return c.Cache.StaticRole + "-" + c.Cache.Version
}

// DynamicGeneration returns the versioned dynamic generation name.
func (c *Config) DynamicGeneration() string {
	return c.Cache.DynamicRole + "-" + c.Cache.Version
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache backend must be 'memory' or 'redis', got: %s", c.Cache.Backend)
	}

	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required for the redis backend")
	}

	if c.Cache.StaticRole == "" || c.Cache.DynamicRole == "" {
		return fmt.Errorf("both generation role names are required")
	}

	if c.Cache.StaticRole == c.Cache.DynamicRole {
		return fmt.Errorf("generation roles must differ, both are %q", c.Cache.StaticRole)
	}

	if c.Cache.Version == "" {
		return fmt.Errorf("cache version tag is required")
	}

	if c.Site.Origin == "" {
		return fmt.Errorf("site origin is required")
	}
	if !strings.HasPrefix(c.Site.Origin, "http://") && !strings.HasPrefix(c.Site.Origin, "https://") {
		return fmt.Errorf("site origin must be an http(s) URL, got: %s", c.Site.Origin)
	}

	if len(c.Site.Manifest) == 0 {
		return fmt.Errorf("static manifest cannot be empty")
	}

	if c.Site.FallbackPath == "" {
		return fmt.Errorf("fallback path is required")
	}
	if !contains(c.Site.Manifest, c.Site.FallbackPath) {
		return fmt.Errorf("fallback path %s must be listed in the manifest", c.Site.FallbackPath)
	}

	return nil
}

func contains(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}
