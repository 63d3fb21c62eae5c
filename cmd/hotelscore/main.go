// Package main is the single-binary entrypoint for hotelscore.
package main

import (
	"github.com/hotelops/hotelscore/internal/api"
	"github.com/hotelops/hotelscore/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	api.Version = version
	cli.Execute(version)
}
