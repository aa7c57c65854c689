package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// newLogger creates a logger at the level named by level (LOG_LEVEL),
// defaulting to info. Verbose always selects debug.
func newLogger(level string, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if verbose {
		log.SetLevel(logrus.DebugLevel)
		return log
	}

	if level == "" {
		level = "info"
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid LOG_LEVEL '%s', defaulting to 'info'\n", level)
		parsed = logrus.InfoLevel
	}

	log.SetLevel(parsed)

	return log
}
