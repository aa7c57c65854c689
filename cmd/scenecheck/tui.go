package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/scenecheck/cmd"
	"github.com/ethpandaops/scenecheck/internal/interactive"
)

// runInteractive shows the main menu until the user exits and returns the
// process exit code: 1 when the last suite run failed.
func runInteractive() int {
	fmt.Println("scenecheck - Interactive Mode")
	fmt.Println("=============================")
	fmt.Println()

	exitCode := 0

	record := func(err error) {
		exitCode = 0

		if err == nil {
			return
		}

		exitCode = 1

		if !errors.Is(err, cmd.ErrRunFailed) {
			fmt.Printf("\n❌ Error: %v\n", err)
		}
	}

	for {
		options := []interactive.MenuOption{
			{
				Name:        "🧪 Run Suite",
				Description: "Pick one suite from the tests directory and run it",
				Action: func() error {
					suites, err := cmd.DiscoverSuites()
					if err != nil {
						record(err)
						interactive.PauseForEnter()
						return nil
					}

					selected, err := interactive.Select("Which suite?", suites)
					if errors.Is(err, interactive.ErrExit) {
						return nil
					}

					if err != nil {
						fmt.Printf("\nNo suites found in %s\n", cmd.Config().TestsDir)
						interactive.PauseForEnter()
						return nil
					}

					record(runSuites([]string{selected}))
					interactive.PauseForEnter()

					return nil
				},
			},
			{
				Name:        "🗂️  Run All Suites",
				Description: "Run every suite in the tests directory",
				Action: func() error {
					suites, err := cmd.DiscoverSuites()
					if err != nil {
						record(err)
						interactive.PauseForEnter()
						return nil
					}

					if !interactive.Confirm(fmt.Sprintf("Run %d suites?", len(suites))) {
						fmt.Println("Canceled.")
						return nil
					}

					record(runSuites(suites))
					interactive.PauseForEnter()

					return nil
				},
			},
			{
				Name:        "📋 Show Config",
				Description: "Display current environment configuration",
				Action: func() error {
					fmt.Println(cmd.Config().String())
					interactive.PauseForEnter()
					return nil
				},
			},
		}

		if err := interactive.ShowMainMenu(options); err != nil {
			if errors.Is(err, interactive.ErrExit) {
				fmt.Println("Goodbye!")
				return exitCode
			}

			fmt.Fprintf(os.Stderr, "Error: %v\n", err)

			return 1
		}

		fmt.Println()
	}
}

func runSuites(paths []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return cmd.RunSuites(ctx, os.Stdout, paths, 0, "")
}
