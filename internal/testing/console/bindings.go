package console

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/ethpandaops/scenecheck/internal/testing/capture"
	"github.com/ethpandaops/scenecheck/internal/testing/geom"
	"github.com/ethpandaops/scenecheck/internal/testing/report"
	"github.com/ethpandaops/scenecheck/internal/testing/typecheck"
)

func isTypeConstraint(err error) bool {
	return errors.Is(err, typecheck.ErrTypeConstraint)
}

func (e *Engine) setupGlobals() {
	_ = e.vm.Set("general", map[string]any{
		"openLevelNoPrompt":   e.openLevelNoPrompt,
		"getCurrentLevelName": e.getCurrentLevelName,
		"enterGameMode":       e.requestGameMode(true),
		"exitGameMode":        e.requestGameMode(false),
		"isInGameMode":        e.isInGameMode,
		"idleWaitFrames":      e.idleWaitFrames,
		"exitNoPrompt":        e.exitNoPrompt,
	})

	_ = e.vm.Set("helper", map[string]any{
		"openLevel":        e.helperOpenLevel,
		"enterGameMode":    e.helperGameMode(true),
		"exitGameMode":     e.helperGameMode(false),
		"closeEditor":      e.closeEditor,
		"failFast":         e.failFast,
		"waitForCondition": e.waitForCondition,
	})

	_ = e.vm.Set("report", map[string]any{
		"info":           e.info,
		"success":        e.success,
		"failure":        e.failure,
		"result":         e.result,
		"criticalResult": e.criticalResult,
	})

	_ = e.vm.Set("tracer", map[string]any{
		"capture": e.capture,
	})

	_ = e.vm.Set("angle", map[string]any{
		"isAngleClose":    e.isAngleClose(false),
		"isAngleCloseDeg": e.isAngleClose(true),
	})

	_ = e.vm.Set("vector3Str", e.vector3Str)
	_ = e.vm.Set("aabbStr", e.aabbStr)
	_ = e.vm.Set("print", e.print)
}

// general

func (e *Engine) openLevelNoPrompt(call goja.FunctionCall) goja.Value {
	ok, err := e.session.OpenLevel(e.ctx, call.Argument(0).String())
	if err != nil {
		return e.fail(err)
	}

	return e.vm.ToValue(ok)
}

func (e *Engine) getCurrentLevelName(goja.FunctionCall) goja.Value {
	name, err := e.session.CurrentLevel(e.ctx)
	if err != nil {
		return e.fail(err)
	}

	return e.vm.ToValue(name)
}

func (e *Engine) requestGameMode(enter bool) func(goja.FunctionCall) goja.Value {
	return func(goja.FunctionCall) goja.Value {
		request := e.session.ExitGameMode
		if enter {
			request = e.session.EnterGameMode
		}

		if err := request(e.ctx); err != nil {
			return e.fail(err)
		}

		return goja.Undefined()
	}
}

func (e *Engine) isInGameMode(goja.FunctionCall) goja.Value {
	in, err := e.session.InGameMode(e.ctx)
	if err != nil {
		return e.fail(err)
	}

	return e.vm.ToValue(in)
}

func (e *Engine) idleWaitFrames(call goja.FunctionCall) goja.Value {
	if err := e.helper.IdleWaitFrames(e.ctx, int(call.Argument(0).ToInteger())); err != nil {
		return e.fail(err)
	}

	return goja.Undefined()
}

func (e *Engine) exitNoPrompt(goja.FunctionCall) goja.Value {
	if err := e.session.Terminate(e.ctx); err != nil {
		return e.fail(err)
	}

	return goja.Undefined()
}

// helper

func (e *Engine) helperOpenLevel(call goja.FunctionCall) goja.Value {
	if err := e.helper.OpenLevel(e.ctx, call.Argument(0).String(), call.Argument(1).String()); err != nil {
		return e.fail(err)
	}

	return goja.Undefined()
}

func (e *Engine) helperGameMode(enter bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		m := e.messages(call.Argument(0))

		transition := e.helper.ExitGameMode
		if enter {
			transition = e.helper.EnterGameMode
		}

		if err := transition(e.ctx, m); err != nil {
			return e.fail(err)
		}

		return goja.Undefined()
	}
}

func (e *Engine) closeEditor(goja.FunctionCall) goja.Value {
	if err := e.helper.CloseEditor(e.ctx); err != nil {
		return e.fail(err)
	}

	return goja.Undefined()
}

func (e *Engine) failFast(call goja.FunctionCall) goja.Value {
	return e.fail(e.helper.FailFast(e.ctx, optionalString(call.Argument(0))))
}

func (e *Engine) waitForCondition(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(e.vm.NewTypeError("waitForCondition requires a function"))
	}

	timeout := time.Duration(call.Argument(1).ToFloat() * float64(time.Second))

	met, err := e.helper.WaitForValue(e.ctx, func() (any, error) {
		v, err := fn(goja.Undefined())
		if err != nil {
			return nil, err
		}

		return v.Export(), nil
	}, timeout)
	if err != nil {
		return e.fail(err)
	}

	return e.vm.ToValue(met)
}

// report

func (e *Engine) info(call goja.FunctionCall) goja.Value {
	e.ledger.Info(call.Argument(0).String())

	return goja.Undefined()
}

func (e *Engine) success(call goja.FunctionCall) goja.Value {
	e.ledger.Success(e.messages(call.Argument(0)))

	return goja.Undefined()
}

func (e *Engine) failure(call goja.FunctionCall) goja.Value {
	e.ledger.Failure(e.messages(call.Argument(0)))

	return goja.Undefined()
}

func (e *Engine) result(call goja.FunctionCall) goja.Value {
	ok, err := e.ledger.ResultValue(e.messages(call.Argument(0)), call.Argument(1).Export())
	if err != nil {
		return e.fail(err)
	}

	return e.vm.ToValue(ok)
}

func (e *Engine) criticalResult(call goja.FunctionCall) goja.Value {
	m := e.messages(call.Argument(0))

	if err := e.ledger.CriticalValue(e.ctx, m, call.Argument(1).Export(), optionalString(call.Argument(2))); err != nil {
		return e.fail(err)
	}

	return goja.Undefined()
}

// messages accepts [success, failure] or {success, failure}.
func (e *Engine) messages(v goja.Value) report.Messages {
	switch m := v.Export().(type) {
	case []any:
		if len(m) == 2 {
			return report.Msgs(fmt.Sprint(m[0]), fmt.Sprint(m[1]))
		}
	case map[string]any:
		success, sok := m["success"]
		failure, fok := m["failure"]

		if sok && fok {
			return report.Msgs(fmt.Sprint(success), fmt.Sprint(failure))
		}
	}

	panic(e.vm.NewTypeError("messages must be [success, failure] or {success, failure}"))
}

// tracer

func (e *Engine) capture(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(e.vm.NewTypeError("tracer.capture requires a function"))
	}

	tracer, err := capture.Trace(e.log, e.bus, func(*capture.Tracer) error {
		_, err := fn(goja.Undefined())
		return err
	})
	if err != nil {
		return e.fail(err)
	}

	return e.vm.ToValue(map[string]any{
		"warnings":    eventsToJS(tracer.Warnings()),
		"errors":      eventsToJS(tracer.Errors()),
		"asserts":     eventsToJS(tracer.Asserts()),
		"prints":      eventsToJS(tracer.Prints()),
		"hasWarnings": tracer.HasWarnings(),
		"hasErrors":   tracer.HasErrors(),
		"hasAsserts":  tracer.HasAsserts(),
	})
}

func eventsToJS[T capture.Event](events []T) []any {
	out := make([]any, 0, len(events))

	for _, ev := range events {
		out = append(out, eventToJS(ev))
	}

	return out
}

func eventToJS(ev capture.Event) map[string]any {
	obj := map[string]any{
		"kind":    ev.Kind().String(),
		"summary": ev.Summary(),
		"text":    fmt.Sprint(ev),
	}

	switch v := ev.(type) {
	case capture.Warning:
		obj["window"], obj["file"], obj["line"], obj["function"], obj["message"] = v.Window, v.File, v.Line, v.Function, v.Message
	case capture.Error:
		obj["window"], obj["file"], obj["line"], obj["function"], obj["message"] = v.Window, v.File, v.Line, v.Function, v.Message
	case capture.Assert:
		obj["file"], obj["line"], obj["function"], obj["message"] = v.File, v.Line, v.Function, v.Message
	case capture.Print:
		obj["window"], obj["message"] = v.Window, v.Message
	}

	return obj
}

// geometry

func (e *Engine) isAngleClose(degrees bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		x := call.Argument(0).ToFloat()
		y := call.Argument(1).ToFloat()
		tol := call.Argument(2).ToFloat()

		if degrees {
			return e.vm.ToValue(geom.IsAngleCloseDeg(x, y, tol))
		}

		return e.vm.ToValue(geom.IsAngleClose(x, y, tol))
	}
}

func (e *Engine) vector3Str(call goja.FunctionCall) goja.Value {
	return e.vm.ToValue(e.vector3(call.Argument(0)).String())
}

func (e *Engine) aabbStr(call goja.FunctionCall) goja.Value {
	obj := e.object(call.Argument(0), "aabb")

	return e.vm.ToValue(geom.AABB{
		Min: e.vector3(obj.Get("min")),
		Max: e.vector3(obj.Get("max")),
	}.String())
}

func (e *Engine) vector3(v goja.Value) geom.Vector3 {
	obj := e.object(v, "vector")

	return geom.Vector3{
		X: e.number(obj.Get("x"), "x"),
		Y: e.number(obj.Get("y"), "y"),
		Z: e.number(obj.Get("z"), "z"),
	}
}

func (e *Engine) object(v goja.Value, what string) *goja.Object {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		panic(e.vm.NewTypeError(what + " must be an object"))
	}

	return v.ToObject(e.vm)
}

func (e *Engine) number(v goja.Value, what string) float64 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		panic(e.vm.NewTypeError("missing " + what + " component"))
	}

	f := v.ToFloat()
	if math.IsNaN(f) {
		panic(e.vm.NewTypeError(what + " component must be a number"))
	}

	return f
}

// print

func (e *Engine) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		parts = append(parts, arg.String())
	}

	msg := strings.Join(parts, " ")

	e.log.WithField("window", ScriptWindow).Debug(msg)
	e.bus.Printf(capture.Print{Window: ScriptWindow, Message: msg})

	return goja.Undefined()
}

func optionalString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}

	return v.String()
}
