// Package caption holds the live-caption overlay text.
package caption

import (
	"sync"
	"time"
)

// DefaultHold is how long a caption stays visible after the latest Show.
const DefaultHold = 5 * time.Second

type Timer interface {
	Stop() bool
}

// Clock schedules the clear. The zero Overlay uses the wall clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Overlay)

func WithClock(c Clock) Option {
	return func(o *Overlay) {
		o.clock = c
	}
}

func WithHold(d time.Duration) Option {
	return func(o *Overlay) {
		o.hold = d
	}
}

// OnChange is called with the new text after every change, outside the
// overlay's lock.
func OnChange(fn func(text string)) Option {
	return func(o *Overlay) {
		o.onChange = fn
	}
}

// Overlay shows the most recent transcript and blanks it once no newer
// transcript has arrived for the hold period.
type Overlay struct {
	clock    Clock
	hold     time.Duration
	onChange func(string)

	mu    sync.Mutex
	text  string
	gen   uint64
	timer Timer
}

func New(opts ...Option) *Overlay {
	o := &Overlay{clock: realClock{}, hold: DefaultHold}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Show replaces the caption and restarts the clear timer. An empty text
// clears immediately.
func (o *Overlay) Show(text string) {
	if text == "" {
		o.Clear()
		return
	}

	o.mu.Lock()
	o.stopLocked()
	o.text = text
	gen := o.gen
	o.timer = o.clock.AfterFunc(o.hold, func() { o.expire(gen) })
	o.mu.Unlock()

	o.notify(text)
}

func (o *Overlay) Clear() {
	o.mu.Lock()
	o.stopLocked()
	changed := o.text != ""
	o.text = ""
	o.mu.Unlock()

	if changed {
		o.notify("")
	}
}

func (o *Overlay) Text() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.text
}

// expire clears the caption only if no Show or Clear happened since the
// timer for gen was armed.
func (o *Overlay) expire(gen uint64) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	o.text = ""
	o.mu.Unlock()

	o.notify("")
}

func (o *Overlay) stopLocked() {
	o.gen++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

func (o *Overlay) notify(text string) {
	if o.onChange != nil {
		o.onChange(text)
	}
}
