// Package input injects pointer events into the host operating system.
package input

import (
	"fmt"

	"padlink/internal/protocol"
)

// Pointer is the host's pointing device. Implementations talk to the OS
// input subsystem, which serializes events across callers.
type Pointer interface {
	// MoveTo places the cursor at absolute screen coordinates
	MoveTo(x, y int32) error

	// Press pushes button down
	Press(button protocol.ButtonKind) error

	// Release lets button up
	Release(button protocol.ButtonKind) error
}

// InjectionError records one failed OS call
type InjectionError struct {
	Op     string // "move", "press" or "release"
	Button protocol.ButtonKind
	Err    error
}

func (e *InjectionError) Error() string {
	if e.Op == "move" {
		return fmt.Sprintf("inject %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("inject %s %s: %v", e.Op, e.Button, e.Err)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}
