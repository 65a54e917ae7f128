// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jcodagnone/crowdmap/crowd"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugBaselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Print the hash and crowd baseline of place names",
	Long: `Reads one place name per line and prints the name, its hash and the
baseline crowd level derived from it.

$ echo "Red Fort" | crowdmap debug baseline
Red Fort	3514748730	195
	`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter place names, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			name := scanner.Text()
			fmt.Printf("%s\t%d\t%d\n", name, crowd.Hash(name), crowd.Baseline(name))
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

var debugJitterCmd = &cobra.Command{
	Use:   "jitter <baseline>",
	Short: "Show the configured jitter ranges and a few draws for a baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var baseline int
		if _, err := fmt.Sscan(args[0], &baseline); err != nil || baseline < 1 {
			return fmt.Errorf("baseline must be a positive integer, got %q", args[0])
		}

		est := crowd.NewEstimator()

		for _, r := range []struct {
			name string
			rng  crowd.Range
		}{{"initial", est.InitialRange()}, {"refresh", est.RefreshRange()}} {
			fmt.Printf("%-8s %s:", r.name, r.rng)

			for range 8 {
				current := est.Jitter(baseline, r.rng)
				fmt.Printf(" %d(%s)", current, crowd.ColorBand(crowd.PercentDelta(baseline, current)))
			}

			fmt.Println()
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugBaselineCmd)
	debugCmd.AddCommand(debugJitterCmd)
}
