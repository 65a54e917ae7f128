// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the process configuration from .env files, the
// environment and command line flags, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jcodagnone/crowdmap/pipeline"
	"github.com/jcodagnone/crowdmap/resolver"
	"github.com/jcodagnone/crowdmap/spatial"
	"github.com/jcodagnone/crowdmap/utils/textutils"
)

var (
	ErrMissingAPIKey  = errors.New("missing API key: set GOOGLE_MAPS_API_KEY or --api-key")
	ErrMissingBaseURL = errors.New("missing backend address: set CROWDMAP_BACKEND_URL or --backend-url")
	ErrMissingFixture = errors.New("missing fixture file: set --fixture")
)

// ResolverKind selects the City Resolver implementation.
type ResolverKind string

const (
	ResolverBackend ResolverKind = "backend"
	ResolverGoogle  ResolverKind = "google"
	ResolverFile    ResolverKind = "file"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey             = "GOOGLE_MAPS_API_KEY"
	EnvBackendURL         = "CROWDMAP_BACKEND_URL"
	EnvDefaultCity        = "CROWDMAP_DEFAULT_CITY"
	EnvRefreshInterval    = "CROWDMAP_REFRESH_INTERVAL"
	EnvExcludedCategories = "CROWDMAP_EXCLUDED_CATEGORIES"
	EnvResolver           = "CROWDMAP_RESOLVER"
	EnvListen             = "CROWDMAP_LISTEN"
	EnvRadius             = "CROWDMAP_RADIUS"
	EnvLimit              = "CROWDMAP_LIMIT"
)

// DefaultEnvFiles are read by Load when no files are given.
var DefaultEnvFiles = []string{".env"}

type Config struct {
	APIKey string
	// ADCKeyName is the display name of an API Keys resource used when APIKey
	// is empty. ADCProject overrides the project of the default credentials.
	ADCKeyName string
	ADCProject string

	Resolver   ResolverKind
	BackendURL string
	Fixture    string
	Radius     int
	Limit      int
	PageDelay  time.Duration

	DefaultCity        string
	RefreshInterval    time.Duration
	Zoom               int
	Center             spatial.Point
	ExcludedCategories []string

	Listen        string
	Debug         bool
	TraceHTTP     bool
	TraceHTTPBody bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Resolver:        ResolverBackend,
		Radius:          resolver.DefaultRadius,
		Limit:           resolver.DefaultLimit,
		PageDelay:       resolver.DefaultPageDelay,
		DefaultCity:     pipeline.DefaultCity,
		RefreshInterval: pipeline.DefaultRefreshInterval,
		Zoom:            pipeline.DefaultZoom,
		Center:          pipeline.DefaultCenter,
		Listen:          "localhost:8080",
	}
}

// LoadOptions tweaks Load, mostly for tests.
type LoadOptions struct {
	// EnvFiles are dotenv files; missing files are skipped. Nil means
	// DefaultEnvFiles.
	EnvFiles []string
	// Lookup reads the process environment; nil means os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load layers the defaults, the dotenv files and the environment. Non-empty
// variables in the environment win over the files, like godotenv.Load.
func Load(opts LoadOptions) (Config, error) {
	files := opts.EnvFiles
	if files == nil {
		files = DefaultEnvFiles
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fromFiles := map[string]string{}

	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", f, err)
		}

		for k, v := range m {
			if _, ok := fromFiles[k]; !ok {
				fromFiles[k] = v
			}
		}
	}

	cfg := Default()
	err := cfg.ApplyEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return v, true
		}

		v, ok := fromFiles[key]

		return v, ok
	})

	return cfg, err
}

// ApplyEnv overrides fields with the non-empty variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)

		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIKey); ok {
		c.APIKey = v
	}

	if v, ok := get(EnvBackendURL); ok {
		c.BackendURL = v
	}

	if v, ok := get(EnvDefaultCity); ok {
		c.DefaultCity = v
	}

	if v, ok := get(EnvResolver); ok {
		c.Resolver = ResolverKind(strings.ToLower(v))
	}

	if v, ok := get(EnvListen); ok {
		c.Listen = v
	}

	if v, ok := get(EnvExcludedCategories); ok {
		c.ExcludedCategories = textutils.SplitList(v)
	}

	if v, ok := get(EnvRefreshInterval); ok {
		d, err := ParseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRefreshInterval, err)
		}

		c.RefreshInterval = d
	}

	for key, dst := range map[string]*int{EnvRadius: &c.Radius, EnvLimit: &c.Limit} {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}

			*dst = n
		}
	}

	return nil
}

// ParseInterval accepts a Go duration ("4.5s") or a plain number of
// milliseconds ("4500").
func ParseInterval(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", s)
	}

	return d, nil
}

// RequireAPIKey fails when no credential is configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// Validate checks what the selected resolver needs, so a misconfigured
// process fails at startup.
func (c *Config) Validate() error {
	switch c.Resolver {
	case ResolverBackend:
		if strings.TrimSpace(c.BackendURL) == "" {
			return ErrMissingBaseURL
		}

		u, err := url.Parse(c.BackendURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("backend address must be an absolute http(s) URL, got %q", c.BackendURL)
		}

		if err := c.RequireAPIKey(); err != nil {
			return err
		}
	case ResolverGoogle:
		if err := c.RequireAPIKey(); err != nil {
			return err
		}
	case ResolverFile:
		if strings.TrimSpace(c.Fixture) == "" {
			return ErrMissingFixture
		}
	default:
		return fmt.Errorf("unknown resolver %q (want backend, google or file)", c.Resolver)
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}

	if c.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %d", c.Radius)
	}

	if c.Limit < 1 || c.Limit > resolver.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d, got %d", resolver.MaxLimit, c.Limit)
	}

	if err := c.Center.Validate(); err != nil {
		return fmt.Errorf("initial center: %w", err)
	}

	return nil
}

// ResolverOptions returns the search parameters for the network resolvers.
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{Radius: c.Radius, Limit: c.Limit}
}
