package input

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padlink/internal/protocol"
)

// recordingPointer is a fake Pointer that logs every call in order
type recordingPointer struct {
	mu     sync.Mutex
	events []string
	fail   map[string]error
}

func (p *recordingPointer) record(event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.fail[event]
}

func (p *recordingPointer) MoveTo(x, y int32) error {
	return p.record(fmt.Sprintf("move(%d,%d)", x, y))
}

func (p *recordingPointer) Press(b protocol.ButtonKind) error {
	return p.record(fmt.Sprintf("press(%s)", b))
}

func (p *recordingPointer) Release(b protocol.ButtonKind) error {
	return p.record(fmt.Sprintf("release(%s)", b))
}

func (p *recordingPointer) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func TestDispatchMove(t *testing.T) {
	p := &recordingPointer{}
	d := NewDispatcher(p, nil)

	require.NoError(t, d.Dispatch(protocol.Move{X: 100, Y: 250}))
	require.NoError(t, d.Dispatch(protocol.Move{X: math.MinInt32, Y: math.MaxInt32}))

	assert.Equal(t, []string{
		"move(100,250)",
		"move(-2147483648,2147483647)",
	}, p.Events())
}

func TestDispatchClickPressThenRelease(t *testing.T) {
	for _, b := range []protocol.ButtonKind{protocol.ButtonLeft, protocol.ButtonRight, protocol.ButtonMiddle} {
		t.Run(b.String(), func(t *testing.T) {
			p := &recordingPointer{}
			d := NewDispatcher(p, nil)

			require.NoError(t, d.Dispatch(protocol.Click{Button: b}))
			assert.Equal(t, []string{"press(" + b.String() + ")", "release(" + b.String() + ")"}, p.Events())
		})
	}
}

func TestDispatchClickReleaseAfterFailedPress(t *testing.T) {
	denied := errors.New("denied")
	p := &recordingPointer{fail: map[string]error{"press(left)": denied}}
	d := NewDispatcher(p, nil)

	err := d.Dispatch(protocol.Click{Button: protocol.ButtonLeft})
	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, []string{"press(left)", "release(left)"}, p.Events())

	var injErr *InjectionError
	require.ErrorAs(t, err, &injErr)
	assert.Equal(t, "press", injErr.Op)
}

func TestDispatchClickBothHalvesFail(t *testing.T) {
	p := &recordingPointer{fail: map[string]error{
		"press(right)":   errors.New("press failed"),
		"release(right)": errors.New("release failed"),
	}}
	d := NewDispatcher(p, nil)

	err := d.Dispatch(protocol.Click{Button: protocol.ButtonRight})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inject press right: press failed")
	assert.Contains(t, err.Error(), "inject release right: release failed")
	assert.Len(t, p.Events(), 2)
}

func TestDispatchRejectsInvalidButton(t *testing.T) {
	p := &recordingPointer{}
	d := NewDispatcher(p, nil)

	err := d.Dispatch(protocol.Click{Button: protocol.ButtonKind(42)})
	assert.ErrorIs(t, err, protocol.ErrInvalidButton)
	assert.Empty(t, p.Events())
}

func TestDispatchDoesNotRetry(t *testing.T) {
	p := &recordingPointer{fail: map[string]error{"move(1,2)": errors.New("busy")}}
	d := NewDispatcher(p, nil)

	assert.Error(t, d.Dispatch(protocol.Move{X: 1, Y: 2}))
	assert.Equal(t, []string{"move(1,2)"}, p.Events())
}

func TestLogPointerNeverFails(t *testing.T) {
	d := NewDispatcher(NewLogPointer(nil), nil)
	assert.NoError(t, d.Dispatch(protocol.Move{X: 5, Y: 5}))
	assert.NoError(t, d.Dispatch(protocol.Click{Button: protocol.ButtonMiddle}))
}
