// Package main is the single-binary entrypoint for tend.
package main

import "github.com/tendlog/tend/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
