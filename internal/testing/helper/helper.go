// Package helper provides the high-level steps test routines use against a
// host session: opening levels, entering and leaving game mode, and failing fast.
package helper

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/ethpandaops/scenecheck/internal/testing/poll"
	"github.com/ethpandaops/scenecheck/internal/testing/report"
	"github.com/sirupsen/logrus"
)

// ErrLevelNotOpened is returned when a level could not be opened and is not
// already the current level.
var ErrLevelNotOpened = errors.New("failed to open level")

// Session is the host's resource and mode control surface.
type Session interface {
	OpenLevel(ctx context.Context, path string) (bool, error)
	CurrentLevel(ctx context.Context) (string, error)
	EnterGameMode(ctx context.Context) error
	ExitGameMode(ctx context.Context) error
	InGameMode(ctx context.Context) (bool, error)
	Terminate(ctx context.Context) error
}

// Config holds helper timing.
type Config struct {
	// LevelSettleFrames is how many frames to step after opening a level.
	LevelSettleFrames int
	// GameModeTimeout bounds the wait for a game mode transition.
	GameModeTimeout time.Duration
}

// Helper drives a Session on behalf of a test routine, recording results in a ledger.
type Helper struct {
	log     logrus.FieldLogger
	session Session
	stepper poll.Stepper
	poller  *poll.Poller
	ledger  *report.Ledger
	cfg     Config
}

// New creates a helper. The ledger should have been created with the session
// as its terminator so critical failures close it.
func New(log logrus.FieldLogger, session Session, stepper poll.Stepper, poller *poll.Poller, ledger *report.Ledger, cfg Config) *Helper {
	return &Helper{
		log:     log.WithField("component", "test_helper"),
		session: session,
		stepper: stepper,
		poller:  poller,
		ledger:  ledger,
		cfg:     cfg,
	}
}

// Ledger returns the ledger results are recorded in.
func (h *Helper) Ledger() *report.Ledger {
	return h.ledger
}

// OpenLevel opens directory/level. Reopening the level that is already open
// is not an error. The host is then stepped LevelSettleFrames frames.
func (h *Helper) OpenLevel(ctx context.Context, directory, level string) error {
	h.ledger.Info(fmt.Sprintf("Open level %s/%s", directory, level))

	ok, err := h.session.OpenLevel(ctx, path.Join(directory, level))
	if err != nil {
		return fmt.Errorf("opening level %s: %w", level, err)
	}

	if !ok {
		current, err := h.session.CurrentLevel(ctx)
		if err != nil {
			return fmt.Errorf("querying current level: %w", err)
		}

		if current != level {
			return fmt.Errorf("%w: %s does not exist or is invalid", ErrLevelNotOpened, level)
		}

		h.ledger.Info(fmt.Sprintf("%s was already opened", level))
	}

	return h.IdleWaitFrames(ctx, h.cfg.LevelSettleFrames)
}

// IdleWaitFrames steps the host n frames. Step failures are logged and skipped.
func (h *Helper) IdleWaitFrames(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := h.stepper.Step(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}

			h.log.WithError(err).WithField("frame", i).Warn("couldn't wait for frame")
		}
	}

	return nil
}

// EnterGameMode requests game mode and records a critical result on whether
// it was reached within GameModeTimeout.
func (h *Helper) EnterGameMode(ctx context.Context, m report.Messages) error {
	h.ledger.Info("Entering game mode")

	if err := h.session.EnterGameMode(ctx); err != nil {
		h.log.WithError(err).Warn("enter game mode request failed")
	}

	return h.awaitGameMode(ctx, m, true)
}

// ExitGameMode leaves game mode and records a critical result on whether
// the editor returned to edit mode within GameModeTimeout.
func (h *Helper) ExitGameMode(ctx context.Context, m report.Messages) error {
	h.ledger.Info("Exiting game mode")

	if err := h.session.ExitGameMode(ctx); err != nil {
		h.log.WithError(err).Warn("exit game mode request failed")
	}

	return h.awaitGameMode(ctx, m, false)
}

func (h *Helper) awaitGameMode(ctx context.Context, m report.Messages, want bool) error {
	if _, err := h.poller.WaitFor(ctx, func() bool {
		return h.inGameMode(ctx) == want
	}, h.cfg.GameModeTimeout); err != nil {
		return err
	}

	return h.ledger.Critical(ctx, m, h.inGameMode(ctx) == want, "")
}

func (h *Helper) inGameMode(ctx context.Context) bool {
	in, err := h.session.InGameMode(ctx)
	if err != nil {
		h.log.WithError(err).Debug("querying game mode")
		return false
	}

	return in
}

// WaitForCondition waits up to timeout for cond, stepping the host each check.
func (h *Helper) WaitForCondition(ctx context.Context, cond func() bool, timeout time.Duration) (bool, error) {
	return h.poller.WaitFor(ctx, cond, timeout)
}

// WaitForValue is WaitForCondition for conditions that are not statically
// typed. A non-bool result fails with a *typecheck.TypeConstraintError.
func (h *Helper) WaitForValue(ctx context.Context, cond func() (any, error), timeout time.Duration) (bool, error) {
	return h.poller.WaitForValue(ctx, cond, timeout)
}

// CloseEditor terminates the session without prompting.
func (h *Helper) CloseEditor(ctx context.Context) error {
	if err := h.session.Terminate(ctx); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}

	return nil
}

// FailFast stops the run: the session is closed and the abort signal returned.
func (h *Helper) FailFast(ctx context.Context, message string) error {
	return h.ledger.FailFast(ctx, message)
}
