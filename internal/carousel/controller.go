package carousel

import (
	"sync"
	"time"
)

// Controller is the lightbox state machine. States: closed -> open(index)
// -> {open(index') via navigation, closed via dismissal}.
//
// Multi-item sequences autoplay on a fixed interval from the moment the
// viewer opens. Any manual navigation (buttons, keyboard, swipe) restarts
// the interval from zero rather than merely pausing it.
type Controller struct {
	settings

	mu        sync.Mutex
	seq       []string
	index     int
	open      bool
	autoplay  bool // sequence qualifies for autoplay (length > 1)
	suspended bool // autoplay paused by an in-progress touch
	timerGen  uint64
	cancel    cancelFunc
	touch     swipeTracker
}

// New creates a closed controller.
func New(opts ...Option) *Controller {
	return &Controller{settings: newSettings(opts)}
}

// Open binds the media sequence, immutable for this viewing session, and
// enters the open state at startIndex (defaulting to 0 when out of range).
// Multi-item sequences begin autoplay immediately. Opening an empty
// sequence is a no-op.
func (c *Controller) Open(seq []string, startIndex int) {
	if len(seq) == 0 {
		return
	}

	c.mu.Lock()
	wasOpen := c.open
	if wasOpen {
		c.stopTimerLocked()
	}
	c.seq = append([]string(nil), seq...)
	if startIndex < 0 || startIndex >= len(c.seq) {
		startIndex = 0
	}
	c.index = startIndex
	c.open = true
	c.autoplay = len(c.seq) > 1
	c.suspended = false
	c.touch.reset()
	if c.autoplay {
		c.scheduleLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	// Hooks run unlocked, like OnClose, so they may call back into the
	// controller.
	if !wasOpen && c.hooks.OnOpen != nil {
		c.hooks.OnOpen()
	}
	c.notify(snap)
}

// Next advances to the following item, wrapping past the end.
func (c *Controller) Next() { c.navigate(func(i, n int) int { return nextIndex(i, n) }) }

// Previous retreats to the preceding item, wrapping past the start.
func (c *Controller) Previous() { c.navigate(func(i, n int) int { return prevIndex(i, n) }) }

// GoTo jumps directly to index; out-of-range indexes are ignored.
func (c *Controller) GoTo(index int) {
	c.navigate(func(_, n int) int {
		if index < 0 || index >= n {
			return -1
		}
		return index
	})
}

// navigate applies a manual index transition and restarts the autoplay
// clock from zero.
func (c *Controller) navigate(step func(i, n int) int) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	next := step(c.index, len(c.seq))
	if next < 0 {
		c.mu.Unlock()
		return
	}
	c.index = next
	c.suspended = false
	c.stopTimerLocked()
	if c.autoplay {
		c.scheduleLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Close stops any autoplay timer, discards gesture state, and returns to
// the closed state. Safe to call when already closed.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.open = false
	c.seq = nil
	c.index = 0
	c.suspended = false
	c.touch.reset()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.hooks.OnClose != nil {
		c.hooks.OnClose()
	}
	c.notify(snap)
}

// HandleKey dispatches a keyboard binding. Bindings are active only while
// open; the arrows navigate only multi-item sequences.
func (c *Controller) HandleKey(k Key) {
	c.mu.Lock()
	open, n := c.open, len(c.seq)
	c.mu.Unlock()
	if !open {
		return
	}

	switch k {
	case KeyEscape:
		c.Close()
	case KeyArrowLeft:
		if n > 1 {
			c.Previous()
		}
	case KeyArrowRight:
		if n > 1 {
			c.Next()
		}
	}
}

// TouchStart begins tracking a single-touch gesture and suspends (without
// cancelling) any in-progress autoplay.
func (c *Controller) TouchStart(x, y float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return
	}
	c.touch.start(x, y, at)
	if c.autoplay {
		c.stopTimerLocked()
		c.suspended = true
	}
}

// TouchMove reports whether the gesture should capture the event (suppress
// default scrolling): true once horizontal movement dominates vertical.
func (c *Controller) TouchMove(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || !c.touch.active {
		return false
	}
	return c.touch.horizontalDominates(x, y)
}

// TouchEnd classifies the finished gesture. A qualifying swipe navigates
// (which restarts the autoplay clock, consistent with button and keyboard
// navigation); anything else leaves the index untouched but still resumes
// autoplay with a full interval restart so the suspension cannot leak.
func (c *Controller) TouchEnd(x, y float64, at time.Time) {
	c.mu.Lock()
	if !c.open || !c.touch.active {
		c.mu.Unlock()
		return
	}
	dir := c.touch.end(x, y, at)
	if dir == swipeNone {
		if c.suspended {
			c.suspended = false
			c.scheduleLocked()
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	switch dir {
	case swipePrevious:
		c.Previous()
	case swipeNext:
		c.Next()
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// scheduleLocked arms the autoplay timer for one interval. The generation
// counter invalidates callbacks from timers that fired concurrently with a
// restart.
func (c *Controller) scheduleLocked() {
	c.timerGen++
	gen := c.timerGen
	c.cancel = c.schedule(c.interval, func() { c.autoAdvance(gen) })
}

func (c *Controller) stopTimerLocked() {
	c.timerGen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) autoAdvance(gen uint64) {
	c.mu.Lock()
	if !c.open || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.index = nextIndex(c.index, len(c.seq))
	c.scheduleLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Open:     c.open,
		Index:    c.index,
		Length:   len(c.seq),
		Autoplay: c.autoplay && !c.suspended,
	}
	if c.open {
		snap.URL = c.seq[c.index]
		snap.Progress = progressFor(c.index, len(c.seq))
	}
	return snap
}

func (c *Controller) notify(snap Snapshot) {
	if c.listener != nil {
		c.listener(snap)
	}
}
