// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()

	// OnToggle makes the item checkable. It receives the requested state;
	// an error leaves the check mark unchanged.
	OnToggle func(checked bool) error
	checked  bool

	item *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	title   string
	tooltip string

	mu      sync.Mutex
	items   []*MenuItem
	ready   bool
	stopped bool
	quitCh  chan struct{}
}

// quitLoop ends systray.Run. Quitting before the loop is ready is lost, so
// Stop defers to markReady in that case.
var quitLoop = systray.Quit

// New creates a new system tray
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	return t.add(&MenuItem{Title: title, Callback: callback})
}

// AddCheckbox adds a checkable menu item
func (t *Tray) AddCheckbox(title string, checked bool, onToggle func(checked bool) error) int {
	return t.add(&MenuItem{Title: title, OnToggle: onToggle, checked: checked})
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

func (t *Tray) add(mi *MenuItem) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi.ID = len(t.items)
	t.items = append(t.items, mi)
	return mi.ID
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	mi := t.items[id]
	mi.checked = checked
	if mi.item == nil {
		return
	}
	if checked {
		mi.item.Check()
	} else {
		mi.item.Uncheck()
	}
}

// Run starts the tray event loop and blocks until Stop. It must be called
// from the main goroutine.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.setupMenu()
		if t.markReady() {
			quitLoop()
			return
		}
		if onReady != nil {
			onReady()
		}
	}, func() {
		close(t.quitCh)
	})
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetIcon(icon())
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, mi := range t.items {
		if mi == nil {
			systray.AddSeparator()
			continue
		}

		if mi.OnToggle != nil {
			mi.item = systray.AddMenuItemCheckbox(mi.Title, "", mi.checked)
		} else {
			mi.item = systray.AddMenuItem(mi.Title, "")
		}
		go t.watch(mi)
	}
}

func (t *Tray) watch(mi *MenuItem) {
	for {
		select {
		case <-mi.item.ClickedCh:
			t.clicked(mi)
		case <-t.quitCh:
			return
		}
	}
}

func (t *Tray) clicked(mi *MenuItem) {
	if mi.OnToggle == nil {
		if mi.Callback != nil {
			mi.Callback()
		}
		return
	}

	t.mu.Lock()
	want := !mi.checked
	t.mu.Unlock()

	if err := mi.OnToggle(want); err != nil {
		return
	}
	t.SetItemChecked(mi.ID, want)
}

// markReady records that the event loop is running. It reports whether
// Stop was called before that point.
func (t *Tray) markReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = true
	return t.stopped
}

// Stop stops the tray. It is safe to call before Run has become ready.
func (t *Tray) Stop() {
	t.mu.Lock()
	t.stopped = true
	ready := t.ready
	t.mu.Unlock()

	if ready {
		quitLoop()
	}
}
