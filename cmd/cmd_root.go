// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/crowdmap/config"
	"github.com/jcodagnone/crowdmap/pipeline"
	"github.com/jcodagnone/crowdmap/resolver"
	"github.com/jcodagnone/crowdmap/utils/httputils"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "crowdmap",
	Short: "points of interest with a live, synthetic crowd level",
	Long: `
crowdmap resolves a city to the points of interest around it and annotates
each one with a simulated crowd level that drifts over time.
`,
	SilenceUsage: true,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	APIKey          string
	ADCKeyName      string
	ADCProject      string
	Resolver        string
	BackendURL      string
	Fixture         string
	Radius          int
	Limit           int
	PageDelay       time.Duration
	City            string
	RefreshInterval time.Duration
	Exclude         []string
	Debug           bool
	TraceHTTP       bool
	TraceHTTPBody   bool
}

var rootOpts = &rootOptions{}

// loadConfig layers .env, the environment and the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	}

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}

	set("api-key", func() { cfg.APIKey = rootOpts.APIKey })
	set("adc-key-name", func() { cfg.ADCKeyName = rootOpts.ADCKeyName })
	set("adc-project", func() { cfg.ADCProject = rootOpts.ADCProject })
	set("resolver", func() { cfg.Resolver = config.ResolverKind(rootOpts.Resolver) })
	set("backend-url", func() { cfg.BackendURL = rootOpts.BackendURL })
	set("fixture", func() { cfg.Fixture = rootOpts.Fixture })
	set("radius", func() { cfg.Radius = rootOpts.Radius })
	set("limit", func() { cfg.Limit = rootOpts.Limit })
	set("page-delay", func() { cfg.PageDelay = rootOpts.PageDelay })
	set("city", func() { cfg.DefaultCity = rootOpts.City })
	set("refresh-interval", func() { cfg.RefreshInterval = rootOpts.RefreshInterval })
	set("exclude", func() { cfg.ExcludedCategories = rootOpts.Exclude })

	cfg.Debug = rootOpts.Debug
	cfg.TraceHTTP = rootOpts.TraceHTTP || rootOpts.TraceHTTPBody
	cfg.TraceHTTPBody = rootOpts.TraceHTTPBody

	if cfg.Fixture != "" && !f.Changed("resolver") {
		cfg.Resolver = config.ResolverFile
	}

	if err := cfg.ResolveAPIKey(cmd.Context()); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func newHTTPClient(cfg *config.Config) *http.Client {
	opts := httputils.ClientOptions{
		UserAgent: fmt.Sprintf("crowdmap/%s (+https://github.com/jcodagnone/crowdmap)", Version),
		TraceBody: cfg.TraceHTTPBody,
	}

	if cfg.TraceHTTP {
		opts.Trace = os.Stderr
	}

	return httputils.NewClient(opts)
}

// newResolver builds the configured City Resolver, instrumented.
func newResolver(cfg *config.Config) (resolver.Resolver, error) {
	switch cfg.Resolver {
	case config.ResolverBackend:
		r, err := resolver.NewBackendResolver(cfg.BackendURL, cfg.APIKey, newHTTPClient(cfg), cfg.ResolverOptions())
		if err != nil {
			return nil, err
		}

		return resolver.Instrument(string(cfg.Resolver), r), nil
	case config.ResolverGoogle:
		r := resolver.NewGoogleResolver(cfg.APIKey, cfg.ResolverOptions(),
			resolver.WithHTTPClient(newHTTPClient(cfg)),
			resolver.WithPageDelay(cfg.PageDelay),
		)

		return resolver.Instrument(string(cfg.Resolver), r), nil
	case config.ResolverFile:
		r, err := resolver.LoadFileResolver(cfg.Fixture)
		if err != nil {
			return nil, fmt.Errorf("loading fixture: %w", err)
		}

		log.Printf("Serving %d recorded cities from %s", len(r.Cities()), cfg.Fixture)

		return resolver.Instrument(string(cfg.Resolver), r), nil
	default:
		return nil, fmt.Errorf("unknown resolver %q", cfg.Resolver)
	}
}

func newOrchestrator(cfg *config.Config, r resolver.Resolver, onRefresh func(pipeline.View)) *pipeline.Orchestrator {
	return pipeline.New(r, pipeline.Config{
		DefaultCity:        cfg.DefaultCity,
		RefreshInterval:    cfg.RefreshInterval,
		Zoom:               cfg.Zoom,
		Center:             &cfg.Center,
		ExcludedCategories: cfg.ExcludedCategories,
		OnRefresh:          onRefresh,
	})
}

func init() {
	defaults := config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&rootOpts.APIKey, "api-key", "", "Google Maps API key (overrides "+config.EnvAPIKey+")")
	flags.StringVar(&rootOpts.ADCKeyName, "adc-key-name", "", "Display name of an API Keys resource to fetch via ADC when no key is set")
	flags.StringVar(&rootOpts.ADCProject, "adc-project", "", "Project holding the ADC key (defaults to the credentials' project)")
	flags.StringVar(&rootOpts.Resolver, "resolver", string(defaults.Resolver), "City resolver: backend, google or file")
	flags.StringVar(&rootOpts.BackendURL, "backend-url", "", "Sites backend base address (overrides "+config.EnvBackendURL+")")
	flags.StringVar(&rootOpts.Fixture, "fixture", "", "JSON file of recorded sites payloads keyed by city; implies --resolver=file")
	flags.IntVar(&rootOpts.Radius, "radius", defaults.Radius, "Search radius in meters")
	flags.IntVar(&rootOpts.Limit, "limit", defaults.Limit, "Maximum number of places per search")
	flags.DurationVar(&rootOpts.PageDelay, "page-delay", defaults.PageDelay, "Wait before following a nearby search page token")
	flags.StringVar(&rootOpts.City, "city", defaults.DefaultCity, "Default city searched at startup")
	flags.DurationVar(&rootOpts.RefreshInterval, "refresh-interval", defaults.RefreshInterval, "Live crowd refresh period")
	flags.StringSliceVar(&rootOpts.Exclude, "exclude", nil, "Excluded categories (defaults to worship places)")
	flags.BoolVar(&rootOpts.Debug, "debug", false, "Run gin in debug mode")
	flags.BoolVar(&rootOpts.TraceHTTP, "trace-http", false, "Display HTTP requests-responses")
	flags.BoolVar(&rootOpts.TraceHTTPBody, "trace-http-body", false, "Display HTTP requests-responses bodies")
}
