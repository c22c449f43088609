//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"padlink/internal/protocol"
)

// Windows implementation of input injection using user32

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procSendInput    = user32.NewProc("SendInput")
)

const (
	INPUT_MOUSE = 0

	MOUSEEVENTF_LEFTDOWN   = 0x0002
	MOUSEEVENTF_LEFTUP     = 0x0004
	MOUSEEVENTF_RIGHTDOWN  = 0x0008
	MOUSEEVENTF_RIGHTUP    = 0x0010
	MOUSEEVENTF_MIDDLEDOWN = 0x0020
	MOUSEEVENTF_MIDDLEUP   = 0x0040
)

type MOUSEINPUT struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// INPUT is the mouse arm of the Win32 INPUT union. MOUSEINPUT is the
// largest member, so the Go layout matches sizeof(INPUT) on 386 and amd64.
type INPUT struct {
	Type uint32
	Mi   MOUSEINPUT
}

// Injector represents a Windows input injector
type Injector struct{}

// NewInjector creates a new input injector for Windows
func NewInjector() (*Injector, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32.dll: %w", err)
	}
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("find SendInput: %w", err)
	}
	return &Injector{}, nil
}

// MoveTo places the cursor at (x, y) in virtual-screen coordinates
func (i *Injector) MoveTo(x, y int32) error {
	r, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if r == 0 {
		return fmt.Errorf("SetCursorPos(%d, %d): %w", x, y, err)
	}
	return nil
}

// Press injects a button-down event
func (i *Injector) Press(button protocol.ButtonKind) error {
	flags, err := buttonFlags(button, true)
	if err != nil {
		return err
	}
	return sendMouse(flags)
}

// Release injects a button-up event
func (i *Injector) Release(button protocol.ButtonKind) error {
	flags, err := buttonFlags(button, false)
	if err != nil {
		return err
	}
	return sendMouse(flags)
}

func buttonFlags(button protocol.ButtonKind, pressed bool) (uint32, error) {
	switch button {
	case protocol.ButtonLeft:
		if pressed {
			return MOUSEEVENTF_LEFTDOWN, nil
		}
		return MOUSEEVENTF_LEFTUP, nil
	case protocol.ButtonRight:
		if pressed {
			return MOUSEEVENTF_RIGHTDOWN, nil
		}
		return MOUSEEVENTF_RIGHTUP, nil
	case protocol.ButtonMiddle:
		if pressed {
			return MOUSEEVENTF_MIDDLEDOWN, nil
		}
		return MOUSEEVENTF_MIDDLEUP, nil
	}
	return 0, fmt.Errorf("invalid button: %s", button)
}

func sendMouse(flags uint32) error {
	input := INPUT{
		Type: INPUT_MOUSE,
		Mi:   MOUSEINPUT{DwFlags: flags},
	}

	// SendInput returns the number of events inserted; 0 means UIPI or
	// another process blocked it.
	n, _, err := procSendInput.Call(
		1,
		uintptr(unsafe.Pointer(&input)),
		unsafe.Sizeof(input),
	)
	if n != 1 {
		return fmt.Errorf("SendInput(flags=0x%04x): %w", flags, err)
	}
	return nil
}
