package device

import "sync"

// Button notifies subscribers each time it is pressed.
type Button struct {
	Name string

	mu       sync.Mutex
	handlers []func()
}

// NewButton creates a button with a name used in logs.
func NewButton(name string) *Button {
	return &Button{Name: name}
}

// OnPressed registers fn to be called on every press.
func (b *Button) OnPressed(fn func()) {
	b.mu.Lock()
	b.handlers = append(b.handlers, fn)
	b.mu.Unlock()
}

// Press notifies all subscribers synchronously on the caller's goroutine.
func (b *Button) Press() {
	b.mu.Lock()
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Door tracks the door position and notifies on changes.
// Opening an open door or closing a closed door does not notify.
type Door struct {
	mu       sync.Mutex
	open     bool
	onOpened []func()
	onClosed []func()
}

// NewDoor creates a closed door.
func NewDoor() *Door {
	return &Door{}
}

// OnOpened registers fn to be called when the door opens.
func (d *Door) OnOpened(fn func()) {
	d.mu.Lock()
	d.onOpened = append(d.onOpened, fn)
	d.mu.Unlock()
}

// OnClosed registers fn to be called when the door closes.
func (d *Door) OnClosed(fn func()) {
	d.mu.Lock()
	d.onClosed = append(d.onClosed, fn)
	d.mu.Unlock()
}

// Open moves the door to open and notifies if it was closed.
func (d *Door) Open() {
	d.move(true)
}

// Close moves the door to closed and notifies if it was open.
func (d *Door) Close() {
	d.move(false)
}

// IsOpen reports the current position.
func (d *Door) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Door) move(open bool) {
	d.mu.Lock()
	if d.open == open {
		d.mu.Unlock()
		return
	}
	d.open = open
	handlers := d.onClosed
	if open {
		handlers = d.onOpened
	}
	handlers = append([]func(){}, handlers...)
	d.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
