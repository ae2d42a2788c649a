package main

import (
	"github.com/port-tools/portcheck/cmd"
)

func main() {
	// Execute the root command.
	cmd.Execute()
}
