// Package console runs test scripts in an embedded JavaScript runtime with the
// harness (ledger, helper, tracer, geometry) bound into it.
package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/ethpandaops/scenecheck/internal/testing/capture"
	"github.com/ethpandaops/scenecheck/internal/testing/helper"
	"github.com/ethpandaops/scenecheck/internal/testing/report"
	"github.com/sirupsen/logrus"
)

// ScriptWindow is the origin tag of lines printed by scripts.
const ScriptWindow = "Script"

// Bus is the diagnostic bus scripts trace and print to.
type Bus interface {
	capture.Bus
	Printf(p capture.Print) bool
}

// ScriptError is an uncaught script exception.
type ScriptError struct {
	Script  string
	Message string
	Stack   string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Script, e.Message)
}

// StackTrace returns the JavaScript stack of the exception.
func (e *ScriptError) StackTrace() string {
	return e.Stack
}

// Engine is a single-run script runtime. It must be used by one goroutine.
type Engine struct {
	log     logrus.FieldLogger
	vm      *goja.Runtime
	helper  *helper.Helper
	session helper.Session
	ledger  *report.Ledger
	bus     Bus

	ctx   context.Context //nolint:containedctx // scoped to Run
	abort *report.AbortError
}

// NewEngine creates an engine bound to a run's helper, session and bus. The
// ledger is taken from the helper.
func NewEngine(log logrus.FieldLogger, h *helper.Helper, session helper.Session, bus Bus) *Engine {
	e := &Engine{
		log:     log.WithField("component", "console"),
		vm:      goja.New(),
		helper:  h,
		session: session,
		ledger:  h.Ledger(),
		bus:     bus,
		ctx:     context.Background(),
	}

	e.setupGlobals()

	return e
}

// RunFile reads and runs a script file.
func (e *Engine) RunFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path) //nolint:gosec // G304: Script paths come from the command line or suite files
	if err != nil {
		return fmt.Errorf("reading script %s: %w", path, err)
	}

	return e.Run(ctx, path, string(src))
}

// Run executes src. A failed critical result stops the script and is
// returned as an *report.AbortError; script try/catch cannot intercept it.
// Uncaught script exceptions are returned as *ScriptError.
func (e *Engine) Run(ctx context.Context, name, src string) error {
	e.ctx = ctx

	var (
		done = make(chan struct{})
		wg   sync.WaitGroup
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err := e.vm.RunScript(name, src)

	close(done)
	wg.Wait()
	e.vm.ClearInterrupt()

	if e.abort != nil {
		return e.abort
	}

	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("script %s interrupted: %w", name, cause)
		}

		return fmt.Errorf("script %s interrupted: %v", name, interrupted.Value())
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		return newScriptError(name, ex)
	}

	return fmt.Errorf("running script %s: %w", name, err)
}

func newScriptError(name string, ex *goja.Exception) *ScriptError {
	full := strings.TrimRight(ex.String(), "\n")

	message := full
	if v := ex.Value(); v != nil {
		message = v.String()
	}

	stack := strings.TrimPrefix(full, message)

	return &ScriptError{
		Script:  name,
		Message: message,
		Stack:   strings.TrimLeft(stack, "\n"),
	}
}

// fail converts a Go error raised inside a binding into script control flow.
// Aborts interrupt the runtime, type violations become TypeErrors and
// anything else is thrown as a catchable error.
func (e *Engine) fail(err error) goja.Value {
	var abort *report.AbortError
	if errors.As(err, &abort) {
		if e.abort == nil {
			e.abort = abort
		}

		e.vm.Interrupt(abort)

		return goja.Undefined()
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		// Already unwinding; the runtime re-raises on return.
		return goja.Undefined()
	}

	if isTypeConstraint(err) {
		panic(e.vm.NewTypeError(err.Error()))
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		panic(ex)
	}

	panic(e.vm.NewGoError(err))
}
