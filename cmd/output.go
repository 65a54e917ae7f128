// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/jcodagnone/crowdmap/pipeline"
	"github.com/jcodagnone/crowdmap/utils/textutils"
)

// spin shows a spinner on stderr while a call is in flight, only when stderr
// is a terminal. The returned function stops it.
func spin(description string) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)

		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()

		for {
			select {
			case <-done:
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-finished

		_ = bar.Finish()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

// printMarkers renders the published places as a table.
func printMarkers(w io.Writer, v pipeline.View) {
	a, b, c := strings.Repeat("─", 40), strings.Repeat("─", 8), strings.Repeat("─", 6)

	fmt.Fprintf(w, "%s (%s) %d places\n", v.City, v.Viewport.Center.Key(), len(v.Markers))
	fmt.Fprintf(w, "╭─%-40s─┬─%8s─┬─%8s─┬─%6s─┬─%6s─╮\n", a, b, b, c, c)
	fmt.Fprintf(w, "│ %-40s │ %8s │ %8s │ %6s │ %-6s │\n", "Name", "Baseline", "Current", "Delta", "Band")
	fmt.Fprintf(w, "├─%-40s─┼─%8s─┼─%8s─┼─%6s─┼─%6s─┤\n", a, b, b, c, c)

	for _, m := range v.Markers {
		fmt.Fprintf(w, "│ %-40s │ %8s │ %8s │ %6s │ %-6s │\n",
			truncate(m.Name, 40),
			textutils.FormatInt(int64(m.Baseline)),
			textutils.FormatInt(int64(m.Current)),
			textutils.FormatSigned(m.PercentDelta),
			m.Band,
		)
	}

	fmt.Fprintf(w, "╰─%-40s─┴─%8s─┴─%8s─┴─%6s─┴─%6s─╯\n", a, b, b, c, c)

	if v.Message != nil {
		fmt.Fprintf(w, "%s: %s\n", v.Message.Kind, v.Message.Text)
	}
}
