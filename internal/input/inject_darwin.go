//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}

CGPoint getCurrentMousePosition() {
    CGEventRef event = CGEventCreate(NULL);
    CGPoint cursor = CGEventGetLocation(event);
    CFRelease(event);
    return cursor;
}

// Returns 0 on success, -1 if the event could not be created.
int injectMouseMoveTo(CGFloat x, CGFloat y) {
    CGEventRef event = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, CGPointMake(x, y), kCGMouseButtonLeft);
    if (event == NULL) {
        return -1;
    }
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
    return 0;
}

// button: 1=left, 2=right, 3=middle. Returns 0 on success, -1 on an
// unknown button, -2 if the event could not be created.
int injectMouseButton(int button, bool pressed) {
    CGMouseButton cgButton;
    CGEventType eventType;

    switch (button) {
        case 1:
            cgButton = kCGMouseButtonLeft;
            eventType = pressed ? kCGEventLeftMouseDown : kCGEventLeftMouseUp;
            break;
        case 2:
            cgButton = kCGMouseButtonRight;
            eventType = pressed ? kCGEventRightMouseDown : kCGEventRightMouseUp;
            break;
        case 3:
            cgButton = kCGMouseButtonCenter;
            eventType = pressed ? kCGEventOtherMouseDown : kCGEventOtherMouseUp;
            break;
        default:
            return -1;
    }

    CGEventRef event = CGEventCreateMouseEvent(NULL, eventType, getCurrentMousePosition(), cgButton);
    if (event == NULL) {
        return -2;
    }
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
    return 0;
}
*/
import "C"
import (
	"errors"
	"fmt"

	"padlink/internal/protocol"
)

// macOS implementation of input injection using CoreGraphics

var errNoAccessibility = errors.New("accessibility permission not granted (System Settings > Privacy & Security > Accessibility)")

// Injector represents a macOS input injector
type Injector struct{}

// NewInjector creates a new input injector for macOS
func NewInjector() (*Injector, error) {
	if !bool(C.hasAccessibilityPermissions()) {
		return nil, errNoAccessibility
	}
	return &Injector{}, nil
}

// MoveTo warps the cursor to (x, y) in global display coordinates
func (i *Injector) MoveTo(x, y int32) error {
	if rc := C.injectMouseMoveTo(C.CGFloat(x), C.CGFloat(y)); rc != 0 {
		return fmt.Errorf("CGEventCreateMouseEvent failed (%d)", int(rc))
	}
	return nil
}

// Press injects a button-down event at the current cursor position
func (i *Injector) Press(button protocol.ButtonKind) error {
	return i.button(button, true)
}

// Release injects a button-up event at the current cursor position
func (i *Injector) Release(button protocol.ButtonKind) error {
	return i.button(button, false)
}

func (i *Injector) button(button protocol.ButtonKind, pressed bool) error {
	var code int
	switch button {
	case protocol.ButtonLeft:
		code = 1
	case protocol.ButtonRight:
		code = 2
	case protocol.ButtonMiddle:
		code = 3
	default:
		return fmt.Errorf("invalid button: %s", button)
	}

	if rc := C.injectMouseButton(C.int(code), C.bool(pressed)); rc != 0 {
		return fmt.Errorf("CGEventCreateMouseEvent failed for %s (%d)", button, int(rc))
	}
	return nil
}
