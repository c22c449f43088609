package protocol

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMove(t *testing.T) {
	action, err := Decode([]byte(`{"type":"move","x":100,"y":250}`))
	require.NoError(t, err)
	assert.Equal(t, Move{X: 100, Y: 250}, action)
}

func TestDecodeMoveInt32Bounds(t *testing.T) {
	action, err := Decode([]byte(`{"type":"move","x":-2147483648,"y":2147483647}`))
	require.NoError(t, err)
	assert.Equal(t, Move{X: math.MinInt32, Y: math.MaxInt32}, action)
}

func TestDecodeClick(t *testing.T) {
	tests := map[string]ButtonKind{
		"left":   ButtonLeft,
		"right":  ButtonRight,
		"middle": ButtonMiddle,
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			action, err := Decode([]byte(`{"type":"click","button":"` + name + `"}`))
			require.NoError(t, err)
			assert.Equal(t, Click{Button: want}, action)
		})
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	tests := []struct {
		frame string
		want  Action
	}{
		{`{"type":"click","button":"left","pressure":0.5}`, Click{Button: ButtonLeft}},
		{`{"type":"move","x":1,"y":2,"X":"abc"}`, Move{X: 1, Y: 2}},
		{`{"type":"click","button":"right","Button":7,"TYPE":"move"}`, Click{Button: ButtonRight}},
	}

	for _, tt := range tests {
		action, err := Decode([]byte(tt.frame))
		require.NoError(t, err, tt.frame)
		assert.Equal(t, tt.want, action, tt.frame)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"empty", ``},
		{"not json", `move 1 2`},
		{"array", `[1,2]`},
		{"missing type", `{"x":1,"y":2}`},
		{"null type", `{"type":null}`},
		{"numeric type", `{"type":3}`},
		{"move missing y", `{"type":"move","x":1}`},
		{"move string x", `{"type":"move","x":"abc","y":2}`},
		{"move fractional", `{"type":"move","x":1.5,"y":2}`},
		{"move overflow", `{"type":"move","x":2147483648,"y":0}`},
		{"click missing button", `{"type":"click"}`},
		{"click numeric button", `{"type":"click","button":1}`},
		{"upper case keys", `{"TYPE":"move","X":5,"Y":6}`},
		{"title case keys", `{"Type":"click","Button":"left"}`},
		{"move upper case coords", `{"type":"move","X":5,"Y":6}`},
		{"click null button", `{"type":"click","button":null}`},
		{"trailing data", `{"type":"move","x":1,"y":2} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := Decode([]byte(tt.frame))
			assert.Nil(t, action)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"scroll"}`))
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeInvalidButton(t *testing.T) {
	for _, name := range []string{"Left", "RIGHT", "back", ""} {
		_, err := Decode([]byte(`{"type":"click","button":"` + name + `"}`))
		assert.ErrorIs(t, err, ErrInvalidButton, name)
		assert.ErrorIs(t, err, ErrDecode, name)
		assert.False(t, errors.Is(err, ErrMalformed), name)
	}
}

func TestActionMarshalMatchesWireSchema(t *testing.T) {
	data, err := json.Marshal(Move{X: -3, Y: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"move","x":-3,"y":7}`, string(data))

	data, err = json.Marshal(Click{Button: ButtonMiddle})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"click","button":"middle"}`, string(data))

	_, err = json.Marshal(Click{Button: ButtonKind(9)})
	assert.Error(t, err)
}

func TestButtonKindString(t *testing.T) {
	assert.Equal(t, "right", ButtonRight.String())
	assert.Equal(t, "ButtonKind(0)", ButtonKind(0).String())
	assert.False(t, ButtonKind(0).Valid())
}
