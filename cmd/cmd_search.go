// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/crowdmap/pipeline"
)

var searchOptions = struct {
	JSON bool
}{}

var searchCmd = &cobra.Command{
	Use:   "search <city>",
	Short: "Resolve a city once and print its places with their crowd levels",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		r, err := newResolver(&cfg)
		if err != nil {
			return err
		}

		// One shot: no live refresh.
		cfg.RefreshInterval = -1
		orch := newOrchestrator(&cfg, r, nil)
		defer orch.Close()

		city := strings.Join(args, " ")

		stop := spin("Resolving " + city)
		outcome, err := orch.Search(cmd.Context(), city)
		stop()

		if err != nil {
			return err
		}

		v := orch.View()

		if searchOptions.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(v)
		}

		if outcome == pipeline.OutcomeIgnored {
			return errors.New("empty city")
		}

		printMarkers(os.Stdout, v)

		return nil
	},
}

var watchOptions = struct {
	Ticks int
}{}

var watchCmd = &cobra.Command{
	Use:   "watch [city]",
	Short: "Resolve a city and print the live crowd levels on every refresh",
	Long: `Resolves the city (the default city when none is given) and keeps the live
refresh loop running, printing every place after each tick. Stops after --ticks
refreshes, or on Ctrl-C when --ticks is 0.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		r, err := newResolver(&cfg)
		if err != nil {
			return err
		}

		ticks := make(chan pipeline.View, 1)
		orch := newOrchestrator(&cfg, r, func(v pipeline.View) {
			select {
			case ticks <- v:
			default:
				// the printer is behind; it will read the next one
			}
		})
		defer orch.Close()

		city := cfg.DefaultCity
		if len(args) > 0 {
			city = strings.Join(args, " ")
		}

		stop := spin("Resolving " + city)
		outcome, err := orch.Search(cmd.Context(), city)
		stop()

		if err != nil {
			return err
		}

		printMarkers(os.Stdout, orch.View())

		if outcome != pipeline.OutcomePublished {
			return nil
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		for n := 1; watchOptions.Ticks == 0 || n <= watchOptions.Ticks; n++ {
			select {
			case <-ctx.Done():
				return nil
			case v := <-ticks:
				log.Printf("Refresh #%d", n)
				printMarkers(os.Stdout, v)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(watchCmd)

	searchCmd.Flags().BoolVar(&searchOptions.JSON, "json", false, "Print the renderer view as JSON")
	watchCmd.Flags().IntVar(&watchOptions.Ticks, "ticks", 5, "Number of refreshes to print; 0 runs until interrupted")
}
