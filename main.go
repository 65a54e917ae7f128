// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/crowdmap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
