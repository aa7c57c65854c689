// Package testdef provides suite and level definition loading and validation.
// Definitions specify what runs to execute and what the simulated host
// contains, as opposed to how runs execute (see testcfg.TestConfig).
package testdef

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/capture"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SuiteFileSuffix identifies suite definition files during discovery.
const SuiteFileSuffix = ".suite.yaml"

// Diagnostic triggers.
const (
	TriggerLoad          = "load"
	TriggerEnterGameMode = "enter_game_mode"
	TriggerExitGameMode  = "exit_game_mode"
)

var (
	errSuiteNameRequired          = errors.New("suite name is required")
	errSuiteHasNoTests            = errors.New("suite has no tests")
	errTestMissingName            = errors.New("test missing name")
	errTestMissingScript          = errors.New("test missing script")
	errTestDuplicateName          = errors.New("duplicate test name")
	errTestNegativeTimeout        = errors.New("test timeout must not be negative")
	errLevelMissingName           = errors.New("level missing name")
	errLevelDuplicate             = errors.New("duplicate level")
	errLevelNegativeLoadFrames    = errors.New("level load_frames must not be negative")
	errDiagnosticInvalidKind      = errors.New("diagnostic has invalid kind")
	errDiagnosticInvalidTrigger   = errors.New("diagnostic has invalid trigger")
	errDiagnosticMissingMessage   = errors.New("diagnostic missing message")
	errDiagnosticNegativeDelay    = errors.New("diagnostic after_frames must not be negative")
	errDiagnosticAssertHasWindow  = errors.New("assert diagnostics carry no window")
	errDiagnosticPrintHasLocation = errors.New("print diagnostics carry no source location")
)

// Suite is a named list of scripts, each executed as an independent run.
type Suite struct {
	Name   string  `yaml:"name"`
	Levels string  `yaml:"levels"`
	Tests  []*Test `yaml:"tests"`

	// Dir is the directory the suite file was loaded from.
	Dir string `yaml:"-"`
}

// Test is one script in a suite.
type Test struct {
	Name    string        `yaml:"name"`
	Script  string        `yaml:"script"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ScriptPath resolves a test's script relative to the suite file.
func (s *Suite) ScriptPath(t *Test) string {
	return resolve(s.Dir, t.Script)
}

// LevelsPath resolves the level file relative to the suite file. It is
// empty when the suite declares no levels.
func (s *Suite) LevelsPath() string {
	if s.Levels == "" {
		return ""
	}

	return resolve(s.Dir, s.Levels)
}

// LevelSet is the catalogue of levels a simulated host can open.
type LevelSet struct {
	Levels []*Level `yaml:"levels"`
}

// Level is an openable scene.
type Level struct {
	Name        string        `yaml:"name"`
	Directory   string        `yaml:"directory"`
	LoadFrames  int           `yaml:"load_frames"`
	Diagnostics []*Diagnostic `yaml:"diagnostics,omitempty"`
}

// Path is the name the host opens the level by.
func (l *Level) Path() string {
	return path.Join(l.Directory, l.Name)
}

// Diagnostic is an event the host raises after a trigger.
type Diagnostic struct {
	Kind        string `yaml:"kind"`
	Trigger     string `yaml:"trigger"`
	AfterFrames int    `yaml:"after_frames"`
	Window      string `yaml:"window,omitempty"`
	File        string `yaml:"file,omitempty"`
	Line        int    `yaml:"line,omitempty"`
	Function    string `yaml:"function,omitempty"`
	Message     string `yaml:"message"`
}

// Event builds the capture event this diagnostic publishes.
func (d *Diagnostic) Event() (capture.Event, error) {
	kind, err := capture.ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case capture.KindWarning:
		return capture.Warning{Window: d.Window, File: d.File, Line: d.Line, Function: d.Function, Message: d.Message}, nil
	case capture.KindError:
		return capture.Error{Window: d.Window, File: d.File, Line: d.Line, Function: d.Function, Message: d.Message}, nil
	case capture.KindAssert:
		return capture.Assert{File: d.File, Line: d.Line, Function: d.Function, Message: d.Message}, nil
	default:
		return capture.Print{Window: d.Window, Message: d.Message}, nil
	}
}

// Find returns the level opened by path.
func (s *LevelSet) Find(p string) (*Level, bool) {
	for _, l := range s.Levels {
		if l.Path() == p {
			return l, true
		}
	}

	return nil, false
}

// Loader loads suite and level definition files.
type Loader interface {
	LoadSuite(path string) (*Suite, error)
	LoadLevels(path string) (*LevelSet, error)
	DiscoverSuites(dir string) ([]string, error)
}

type loader struct {
	log logrus.FieldLogger
}

// NewLoader creates a new definition loader.
func NewLoader(log logrus.FieldLogger) Loader {
	return &loader{
		log: log.WithField("component", "testdef_loader"),
	}
}

// LoadSuite loads and validates a suite file.
func (l *loader) LoadSuite(p string) (*Suite, error) {
	l.log.WithField("path", p).Debug("loading suite definition")

	var suite Suite
	if err := loadFile(p, &suite); err != nil {
		return nil, fmt.Errorf("loading suite from %s: %w", p, err)
	}

	suite.Dir = filepath.Dir(p)

	if err := l.validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("validating suite %s: %w", p, err)
	}

	return &suite, nil
}

// LoadLevels loads and validates a level file.
func (l *loader) LoadLevels(p string) (*LevelSet, error) {
	l.log.WithField("path", p).Debug("loading level definitions")

	var set LevelSet
	if err := loadFile(p, &set); err != nil {
		return nil, fmt.Errorf("loading levels from %s: %w", p, err)
	}

	if err := l.validateLevels(&set); err != nil {
		return nil, fmt.Errorf("validating levels %s: %w", p, err)
	}

	return &set, nil
}

// DiscoverSuites lists suite files under dir, sorted.
func (l *loader) DiscoverSuites(dir string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.HasSuffix(d.Name(), SuiteFileSuffix) {
			found = append(found, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering suites in %s: %w", dir, err)
	}

	sort.Strings(found)

	l.log.WithFields(logrus.Fields{
		"dir":    dir,
		"suites": len(found),
	}).Debug("discovered suites")

	return found, nil
}

// loadFile reads and parses a YAML definition file
func loadFile(p string, out any) error {
	data, err := os.ReadFile(p) //nolint:gosec // G304: Reading definitions from trusted paths
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	return nil
}

func (l *loader) validateSuite(suite *Suite) error {
	if suite.Name == "" {
		return errSuiteNameRequired
	}

	if len(suite.Tests) == 0 {
		return errSuiteHasNoTests
	}

	seen := make(map[string]bool, len(suite.Tests))

	for i, test := range suite.Tests {
		if test.Name == "" {
			return fmt.Errorf("%w at index %d", errTestMissingName, i)
		}

		if seen[test.Name] {
			return fmt.Errorf("%w: %s", errTestDuplicateName, test.Name)
		}
		seen[test.Name] = true

		if test.Script == "" {
			return fmt.Errorf("%w: %s", errTestMissingScript, test.Name)
		}

		if test.Timeout < 0 {
			return fmt.Errorf("%w: %s", errTestNegativeTimeout, test.Name)
		}
	}

	return nil
}

//nolint:gocyclo // conditionals in loop, fine.
func (l *loader) validateLevels(set *LevelSet) error {
	if len(set.Levels) == 0 {
		l.log.Warn("no levels defined")
	}

	seen := make(map[string]bool, len(set.Levels))

	for i, level := range set.Levels {
		if level.Name == "" {
			return fmt.Errorf("%w at index %d", errLevelMissingName, i)
		}

		if seen[level.Path()] {
			return fmt.Errorf("%w: %s", errLevelDuplicate, level.Path())
		}
		seen[level.Path()] = true

		if level.LoadFrames < 0 {
			return fmt.Errorf("%w: %s", errLevelNegativeLoadFrames, level.Path())
		}

		for j, diag := range level.Diagnostics {
			kind, err := capture.ParseKind(diag.Kind)
			if err != nil {
				return fmt.Errorf("%w: level %s, diagnostic %d: %v", errDiagnosticInvalidKind, level.Path(), j, err)
			}

			switch diag.Trigger {
			case TriggerLoad, TriggerEnterGameMode, TriggerExitGameMode:
			default:
				return fmt.Errorf("%w: level %s, diagnostic %d has trigger '%s' (must be one of: load, enter_game_mode, exit_game_mode)",
					errDiagnosticInvalidTrigger, level.Path(), j, diag.Trigger)
			}

			if diag.Message == "" {
				return fmt.Errorf("%w: level %s, diagnostic %d", errDiagnosticMissingMessage, level.Path(), j)
			}

			if diag.AfterFrames < 0 {
				return fmt.Errorf("%w: level %s, diagnostic %d", errDiagnosticNegativeDelay, level.Path(), j)
			}

			if kind == capture.KindAssert && diag.Window != "" {
				return fmt.Errorf("%w: level %s, diagnostic %d", errDiagnosticAssertHasWindow, level.Path(), j)
			}

			if kind == capture.KindPrint && (diag.File != "" || diag.Function != "" || diag.Line != 0) {
				return fmt.Errorf("%w: level %s, diagnostic %d", errDiagnosticPrintHasLocation, level.Path(), j)
			}
		}
	}

	return nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(dir, p)
}
