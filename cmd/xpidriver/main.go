// Package main provides the xpidriver command: it launches a local Firefox
// with the WebDriver extension and keeps it running until interrupted.
package main

import (
	"os"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
