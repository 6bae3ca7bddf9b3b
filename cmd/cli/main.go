package main

import (
	"fmt"
	"os"

	"github.com/DeBrosOfficial/noforma/pkg/cli"
)

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	v := version
	if commit != "" {
		v += fmt.Sprintf(" (commit %s)", commit)
	}
	if date != "" {
		v += fmt.Sprintf(" built %s", date)
	}

	if err := cli.NewRootCmd(v).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
