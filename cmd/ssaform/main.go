// Package main implements the ssaform CLI. It converts small three-address
// programs into static single assignment form and exposes the analyses the
// conversion is built on.
package main

import (
	"fmt"
	"os"

	"github.com/lac-dcc/DCC888/cmd/ssaform/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate("ssaform version {{.Version}}\n")

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(commands.ExitCode(err))
	}
}
