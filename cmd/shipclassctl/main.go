// Package main is the entry point of the shipclassctl CLI.
package main

import (
	"github.com/avecnous/shipclass/shipclass-backend/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cli.Version = version
	cli.Execute(cli.NewRootCommand())
}
