// Package host provides a simulated editor host: a frame scheduler, a level
// and game mode session, and a diagnostic bus that test runs drive through
// the same interfaces a real host would expose.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/capture"
	"github.com/ethpandaops/scenecheck/internal/testing/helper"
	"github.com/ethpandaops/scenecheck/internal/testing/poll"
	"github.com/ethpandaops/scenecheck/internal/testing/report"
	"github.com/ethpandaops/scenecheck/internal/testing/testdef"
	"github.com/sirupsen/logrus"
)

// EditorWindow is the origin tag of the host's own log lines.
const EditorWindow = "Editor"

var (
	// ErrTerminated is returned by every call once the host has been terminated.
	ErrTerminated = errors.New("host terminated")
	// ErrNoLevelLoaded is returned when game mode is requested without a level.
	ErrNoLevelLoaded = errors.New("no level loaded")
)

// Config controls host timing.
type Config struct {
	// FrameInterval is slept on every step. Zero steps as fast as possible.
	FrameInterval time.Duration
	// TransitionFrames is how many steps a game mode transition takes.
	TransitionFrames int
	// Output receives the host's log lines. Defaults to io.Discard.
	Output io.Writer
}

type transition struct {
	target bool
	at     uint64
}

type scheduled struct {
	at uint64
	ev capture.Event
}

// Host is a simulated editor. It is safe for concurrent use; events are
// published outside the host lock so listeners may call back into it.
type Host struct {
	*capture.Dispatcher

	log     logrus.FieldLogger
	console *logrus.Logger
	levels  *testdef.LevelSet
	cfg     Config

	mu         sync.Mutex
	frame      uint64
	current    *testdef.Level
	loading    *testdef.Level
	loadAt     uint64
	gameMode   bool
	transition *transition
	pending    []scheduled
	terminated bool
}

// New creates a host that can open the given levels. A nil set means no
// level can be opened.
func New(log logrus.FieldLogger, levels *testdef.LevelSet, cfg Config) *Host {
	if levels == nil {
		levels = &testdef.LevelSet{}
	}

	if cfg.Output == nil {
		cfg.Output = io.Discard
	}

	dispatcher := capture.NewDispatcher(log)

	console := logrus.New()
	console.SetOutput(cfg.Output)
	console.SetLevel(logrus.DebugLevel)
	console.AddHook(dispatcher.Hook())

	return &Host{
		Dispatcher: dispatcher,
		log:        log.WithField("component", "host"),
		console:    console,
		levels:     levels,
		cfg:        cfg,
	}
}

// Console returns the host's log. Entries written to it are mirrored onto the bus.
func (h *Host) Console() logrus.FieldLogger {
	return h.console
}

// Frame returns the number of frames stepped so far.
func (h *Host) Frame() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.frame
}

// Step advances the host one frame. Pending loads, transitions and
// diagnostics that are due fire during the step.
func (h *Host) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if h.cfg.FrameInterval > 0 {
		timer := time.NewTimer(h.cfg.FrameInterval)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	h.mu.Lock()

	if h.terminated {
		h.mu.Unlock()
		return ErrTerminated
	}

	h.frame++

	var notices []string

	if h.loading != nil && h.frame >= h.loadAt {
		notices = append(notices, h.finishLoad())
	}

	if h.transition != nil && h.frame >= h.transition.at {
		notices = append(notices, h.finishTransition())
	}

	due := h.collectDue()

	h.mu.Unlock()

	h.emit(notices, due)

	return nil
}

// OpenLevel starts loading the level at path. It reports false when the level
// does not exist, is already open or loading, or the host is in game mode.
func (h *Host) OpenLevel(_ context.Context, path string) (bool, error) {
	h.mu.Lock()

	if h.terminated {
		h.mu.Unlock()
		return false, ErrTerminated
	}

	level, ok := h.levels.Find(path)

	var notices []string

	switch {
	case !ok:
		notices = append(notices, fmt.Sprintf("Level %s not found", path))
	case h.current == level || h.loading == level:
		ok = false
	case h.gameMode || h.transition != nil:
		notices = append(notices, fmt.Sprintf("Cannot open %s while in game mode", path))
		ok = false
	default:
		h.pending = nil
		h.loading = level
		h.loadAt = h.frame + uint64(level.LoadFrames)
		notices = append(notices, fmt.Sprintf("Loading level %s", path))

		if level.LoadFrames == 0 {
			notices = append(notices, h.finishLoad())
		}
	}

	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"level":  path,
		"opened": ok,
	}).Debug("open level requested")

	h.emit(notices, nil)

	return ok, nil
}

// CurrentLevel returns the name of the loaded level, or "" when none is.
func (h *Host) CurrentLevel(_ context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.terminated {
		return "", ErrTerminated
	}

	if h.current == nil {
		return "", nil
	}

	return h.current.Name, nil
}

// EnterGameMode requests game mode. The switch completes after TransitionFrames steps.
func (h *Host) EnterGameMode(_ context.Context) error {
	return h.requestGameMode(true)
}

// ExitGameMode requests edit mode. The switch completes after TransitionFrames steps.
func (h *Host) ExitGameMode(_ context.Context) error {
	return h.requestGameMode(false)
}

func (h *Host) requestGameMode(target bool) error {
	h.mu.Lock()

	if h.terminated {
		h.mu.Unlock()
		return ErrTerminated
	}

	if target && h.current == nil {
		h.mu.Unlock()
		return ErrNoLevelLoaded
	}

	if h.transition != nil && h.transition.target == target {
		h.mu.Unlock()
		return nil
	}

	if h.transition == nil && h.gameMode == target {
		h.mu.Unlock()
		return nil
	}

	var notices []string

	h.transition = &transition{target: target, at: h.frame + uint64(h.cfg.TransitionFrames)}
	if h.cfg.TransitionFrames == 0 {
		notices = append(notices, h.finishTransition())
	}

	h.mu.Unlock()

	h.emit(notices, nil)

	return nil
}

// InGameMode reports whether game mode has been reached.
func (h *Host) InGameMode(_ context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.terminated {
		return false, ErrTerminated
	}

	return h.gameMode, nil
}

// Terminate shuts the host down.
func (h *Host) Terminate(_ context.Context) error {
	h.mu.Lock()

	if h.terminated {
		h.mu.Unlock()
		return ErrTerminated
	}

	h.terminated = true
	h.pending = nil
	frame := h.frame

	h.mu.Unlock()

	h.log.WithField("frame", frame).Info("host terminated")
	h.console.WithField("window", EditorWindow).Info("Editor exiting")

	return nil
}

// Terminated reports whether Terminate has been called.
func (h *Host) Terminated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.terminated
}

// finishLoad must be called with h.mu held.
func (h *Host) finishLoad() string {
	h.current = h.loading
	h.loading = nil
	h.schedule(testdef.TriggerLoad)

	return fmt.Sprintf("Finished loading level %s", h.current.Path())
}

// finishTransition must be called with h.mu held.
func (h *Host) finishTransition() string {
	h.gameMode = h.transition.target
	h.transition = nil

	if h.gameMode {
		h.schedule(testdef.TriggerEnterGameMode)
		return "Entered game mode"
	}

	h.schedule(testdef.TriggerExitGameMode)

	return "Exited game mode"
}

// schedule queues the current level's diagnostics for trigger. Must be
// called with h.mu held.
func (h *Host) schedule(trigger string) {
	if h.current == nil {
		return
	}

	for _, diag := range h.current.Diagnostics {
		if diag.Trigger != trigger {
			continue
		}

		ev, err := diag.Event()
		if err != nil {
			h.log.WithError(err).Warn("skipping invalid diagnostic")
			continue
		}

		h.pending = append(h.pending, scheduled{at: h.frame + uint64(diag.AfterFrames), ev: ev})
	}
}

// collectDue removes and returns the diagnostics due at the current frame.
// Must be called with h.mu held.
func (h *Host) collectDue() []capture.Event {
	var (
		due  []capture.Event
		keep = h.pending[:0]
	)

	for _, s := range h.pending {
		if s.at <= h.frame {
			due = append(due, s.ev)
		} else {
			keep = append(keep, s)
		}
	}

	h.pending = keep

	return due
}

func (h *Host) emit(notices []string, events []capture.Event) {
	for _, n := range notices {
		h.console.WithField("window", EditorWindow).Info(n)
	}

	for _, ev := range events {
		if _, err := h.Publish(ev); err != nil {
			h.log.WithError(err).Warn("publishing diagnostic")
		}
	}
}

// Compile-time interface compliance checks
var (
	_ poll.Stepper      = (*Host)(nil)
	_ helper.Session    = (*Host)(nil)
	_ capture.Bus       = (*Host)(nil)
	_ report.Terminator = (*Host)(nil)
)
