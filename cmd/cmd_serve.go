// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/crowdmap/config"
	"github.com/jcodagnone/crowdmap/resolver"
	"github.com/jcodagnone/crowdmap/server"
)

var serveOptions = struct {
	Listen string
	Zoom   int
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the renderer API over a live orchestrator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("listen") {
			cfg.Listen = serveOptions.Listen
		}

		if cmd.Flags().Changed("zoom") {
			cfg.Zoom = serveOptions.Zoom
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		r, err := newResolver(&cfg)
		if err != nil {
			return err
		}

		orch := newOrchestrator(&cfg, r, nil)
		defer orch.Close()

		engine := server.NewEngine(cfg.Debug)
		server.New(orch).Register(engine)
		server.RegisterOps(engine)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			outcome, err := orch.LoadDefault(ctx)
			if err != nil {
				log.Printf("Initial search for %q: %v", cfg.DefaultCity, err)

				return
			}

			log.Printf("Initial search for %q: %s", cfg.DefaultCity, outcome)
		}()

		log.Printf("Renderer API listening on http://%s (resolver %s)", cfg.Listen, cfg.Resolver)

		return server.Run(ctx, cfg.Listen, engine)
	},
}

var sitesOptions = struct {
	Listen string
}{}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Run the sites backend (GET /get_sites) on top of Google Maps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}

		client := newHTTPClient(&cfg)
		handler := server.NewSitesHandler(func(opts resolver.Options) resolver.Resolver {
			return resolver.Instrument(string(config.ResolverGoogle), resolver.NewGoogleResolver(cfg.APIKey, opts,
				resolver.WithHTTPClient(client),
				resolver.WithPageDelay(cfg.PageDelay),
			))
		})

		engine := server.NewEngine(cfg.Debug)
		handler.Register(engine)
		server.RegisterOps(engine)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("Sites backend listening on http://%s%s", sitesOptions.Listen, resolver.SitesPath)

		return server.Run(ctx, sitesOptions.Listen, engine)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sitesCmd)

	defaults := config.Default()

	serveCmd.Flags().StringVar(&serveOptions.Listen, "listen", defaults.Listen, "Address to listen on (overrides "+config.EnvListen+")")
	serveCmd.Flags().IntVar(&serveOptions.Zoom, "zoom", defaults.Zoom, "Map zoom after a city resolves")
	sitesCmd.Flags().StringVar(&sitesOptions.Listen, "listen", "localhost:5000", "Address to listen on")
}
