// Package protocol defines the pointer actions carried over the /ws channel
// and decodes them from JSON text frames.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType selects the Action variant on the wire
type MessageType string

const (
	// TypeMove moves the pointer to absolute screen coordinates
	TypeMove MessageType = "move"

	// TypeClick presses and releases a named button
	TypeClick MessageType = "click"
)

var (
	// ErrDecode is matched by every decode failure
	ErrDecode = errors.New("protocol: decode failed")

	// ErrMalformed means the envelope does not fit the schema
	ErrMalformed = fmt.Errorf("%w: malformed frame", ErrDecode)

	// ErrUnknownType means the envelope carried an unrecognised "type"
	ErrUnknownType = fmt.Errorf("%w: unknown type", ErrMalformed)

	// ErrInvalidButton means a click named a button outside ButtonKind
	ErrInvalidButton = fmt.Errorf("%w: invalid button", ErrDecode)
)

// Action is a decoded frame. The set of variants is closed: Move and Click.
type Action interface {
	isAction()
}

// Move places the pointer at (X, Y) in screen coordinates
type Move struct {
	X int32
	Y int32
}

// Click presses and then releases Button
type Click struct {
	Button ButtonKind
}

func (Move) isAction()  {}
func (Click) isAction() {}

// MarshalJSON encodes m in the wire schema
func (m Move) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		X    int32       `json:"x"`
		Y    int32       `json:"y"`
	}{TypeMove, m.X, m.Y})
}

// MarshalJSON encodes c in the wire schema
func (c Click) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   MessageType `json:"type"`
		Button ButtonKind  `json:"button"`
	}{TypeClick, c.Button})
}

// Frame keys are matched exactly. encoding/json struct decoding folds case,
// so the object is read as raw members instead.
const (
	keyType   = "type"
	keyX      = "x"
	keyY      = "y"
	keyButton = "button"
)

type object map[string]json.RawMessage

// field decodes member key into dst. It reports false when the member is
// absent or null.
func (o object) field(key string, dst any) (bool, error) {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
	}
	return true, nil
}

// Decode parses one text frame into an Action. It never has side effects.
func Decode(data []byte) (Action, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var typ MessageType
	ok, err := obj.field(keyType, &typ)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch typ {
	case TypeMove:
		var x, y int32
		okX, err := obj.field(keyX, &x)
		if err != nil {
			return nil, err
		}
		okY, err := obj.field(keyY, &y)
		if err != nil {
			return nil, err
		}
		if !okX || !okY {
			return nil, fmt.Errorf("%w: move requires x and y", ErrMalformed)
		}
		return Move{X: x, Y: y}, nil

	case TypeClick:
		var name string
		ok, err := obj.field(keyButton, &name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: click requires button", ErrMalformed)
		}
		button, err := ParseButton(name)
		if err != nil {
			return nil, err
		}
		return Click{Button: button}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}
