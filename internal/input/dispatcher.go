package input

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"padlink/internal/protocol"
)

// Dispatcher turns decoded actions into Pointer calls.
//
// Dispatch is not synchronized: callers that need ordering (a session)
// call it sequentially. Events from concurrent callers may interleave at
// the OS pointer.
type Dispatcher struct {
	pointer Pointer
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher that drives pointer
func NewDispatcher(pointer Pointer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		pointer: pointer,
		logger:  logger.Named("dispatch"),
	}
}

// Dispatch injects the events for action. A Move is one MoveTo; a Click is
// Press followed by Release, and Release is attempted even if Press failed.
// Each failure is logged on its own and never retried. The returned error
// joins all failures.
func (d *Dispatcher) Dispatch(action protocol.Action) error {
	switch a := action.(type) {
	case protocol.Move:
		return d.report(&InjectionError{Op: "move", Err: d.pointer.MoveTo(a.X, a.Y)})

	case protocol.Click:
		if !a.Button.Valid() {
			return d.report(&InjectionError{Op: "press", Button: a.Button, Err: protocol.ErrInvalidButton})
		}
		pressErr := d.report(&InjectionError{Op: "press", Button: a.Button, Err: d.pointer.Press(a.Button)})
		releaseErr := d.report(&InjectionError{Op: "release", Button: a.Button, Err: d.pointer.Release(a.Button)})
		return errors.Join(pressErr, releaseErr)

	default:
		err := fmt.Errorf("unsupported action %T", action)
		d.logger.Error("dispatch failed", zap.Error(err))
		return err
	}
}

// report logs a failed injection and returns it; a nil Err yields nil
func (d *Dispatcher) report(e *InjectionError) error {
	if e.Err == nil {
		return nil
	}
	fields := []zap.Field{zap.String("op", e.Op), zap.Error(e.Err)}
	if e.Op != "move" {
		fields = append(fields, zap.Stringer("button", e.Button))
	}
	d.logger.Warn("injection failed", fields...)
	return e
}
