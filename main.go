// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Presence.
//
// Usage:
//
//	go run . [flags]
//	./presence [flags]
//
// This launches the Presence client. See --help for options.
package main

import (
	"log"
	"os"

	"github.com/adjoumani/presence/ui/cli"
)

// main is the entrypoint for the Presence client.
func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("presence error: %v", err)
		os.Exit(1)
	}
}
