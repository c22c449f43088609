//go:build linux

package input

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"padlink/internal/protocol"
)

// Linux implementation of input injection using xdotool

// Injector drives the X11 pointer through the xdotool CLI
type Injector struct {
	path string
}

// NewInjector creates a new input injector for Linux
func NewInjector() (*Injector, error) {
	path, err := exec.LookPath("xdotool")
	if err != nil {
		return nil, fmt.Errorf("xdotool not found (install it with your package manager, e.g. apt-get install xdotool): %w", err)
	}
	return &Injector{path: path}, nil
}

// MoveTo places the cursor at (x, y) on the current screen
func (i *Injector) MoveTo(x, y int32) error {
	// "--" keeps negative coordinates from being parsed as flags
	return i.run("mousemove", "--", strconv.Itoa(int(x)), strconv.Itoa(int(y)))
}

// Press injects a button-down event
func (i *Injector) Press(button protocol.ButtonKind) error {
	code, err := xButton(button)
	if err != nil {
		return err
	}
	return i.run("mousedown", code)
}

// Release injects a button-up event
func (i *Injector) Release(button protocol.ButtonKind) error {
	code, err := xButton(button)
	if err != nil {
		return err
	}
	return i.run("mouseup", code)
}

// xButton maps to X11 button numbers (1=left, 2=middle, 3=right)
func xButton(button protocol.ButtonKind) (string, error) {
	switch button {
	case protocol.ButtonLeft:
		return "1", nil
	case protocol.ButtonMiddle:
		return "2", nil
	case protocol.ButtonRight:
		return "3", nil
	}
	return "", fmt.Errorf("invalid button: %s", button)
}

func (i *Injector) run(args ...string) error {
	out, err := exec.Command(i.path, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("xdotool %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
