//go:build !darwin && !windows && !linux

package input

import (
	"fmt"
	"runtime"

	"padlink/internal/protocol"
)

// Stub implementation for platforms without an injection backend

// Injector represents a stub input injector
type Injector struct{}

// NewInjector always fails on this platform
func NewInjector() (*Injector, error) {
	return nil, fmt.Errorf("input injection not supported on %s", runtime.GOOS)
}

func (i *Injector) MoveTo(x, y int32) error {
	return fmt.Errorf("input injection not supported on %s", runtime.GOOS)
}

func (i *Injector) Press(button protocol.ButtonKind) error {
	return fmt.Errorf("input injection not supported on %s", runtime.GOOS)
}

func (i *Injector) Release(button protocol.ButtonKind) error {
	return fmt.Errorf("input injection not supported on %s", runtime.GOOS)
}
