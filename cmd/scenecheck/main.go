// Package main is the entry point for the scenecheck application
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethpandaops/scenecheck/cmd"
)

const (
	envFlag      = "--env"
	envFlagEqual = "--env="
)

func main() {
	envFile, runTUI := parseArgs(os.Args)

	if !runTUI {
		// Cobra handles --env itself
		cmd.Execute()
		return
	}

	if err := cmd.Setup(envFile, false); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(runInteractive())
}

// parseArgs extracts the env file and reports whether interactive mode was
// requested: no arguments besides an optional --env.
func parseArgs(args []string) (envFile string, runTUI bool) {
	for i, arg := range args {
		if arg == envFlag && i+1 < len(args) {
			envFile = args[i+1]
			break
		}

		if strings.HasPrefix(arg, envFlagEqual) {
			envFile = arg[len(envFlagEqual):]
			break
		}
	}

	switch len(args) {
	case 1:
		return envFile, true
	case 2:
		return envFile, strings.HasPrefix(args[1], envFlagEqual)
	case 3:
		return envFile, args[1] == envFlag
	default:
		return envFile, false
	}
}
