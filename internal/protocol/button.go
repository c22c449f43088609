package protocol

import (
	"encoding/json"
	"fmt"
)

// ButtonKind names a pointer button. Only the declared constants are valid.
type ButtonKind uint8

const (
	ButtonLeft ButtonKind = iota + 1
	ButtonRight
	ButtonMiddle
)

var buttonNames = map[ButtonKind]string{
	ButtonLeft:   "left",
	ButtonRight:  "right",
	ButtonMiddle: "middle",
}

// ParseButton maps the wire name to a ButtonKind. Matching is case-sensitive.
func ParseButton(s string) (ButtonKind, error) {
	switch s {
	case "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle":
		return ButtonMiddle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidButton, s)
}

// Valid reports whether b is one of the declared buttons
func (b ButtonKind) Valid() bool {
	_, ok := buttonNames[b]
	return ok
}

func (b ButtonKind) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("ButtonKind(%d)", uint8(b))
}

// MarshalJSON encodes b as its wire name
func (b ButtonKind) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidButton, uint8(b))
	}
	return json.Marshal(b.String())
}
