package carousel

import "sync"

// VideoController is the sequential-playback variant: the same navigation
// and state shape as Controller, but instead of an interval timer it
// advances when the current video reports completion, after a short fixed
// delay, and only if it is not the last item. Keyboard and manual
// navigation behave identically to the photo lightbox.
type VideoController struct {
	settings

	mu       sync.Mutex
	seq      []string
	index    int
	open     bool
	timerGen uint64
	cancel   cancelFunc
}

// NewVideo creates a closed video controller.
func NewVideo(opts ...Option) *VideoController {
	return &VideoController{settings: newSettings(opts)}
}

// Open binds the video sequence and enters the open state at startIndex
// (defaulting to 0 when out of range). No autoplay timer is armed; playback
// drives advancement via VideoEnded.
func (c *VideoController) Open(seq []string, startIndex int) {
	if len(seq) == 0 {
		return
	}

	c.mu.Lock()
	wasOpen := c.open
	if wasOpen {
		c.stopPendingLocked()
	}
	c.seq = append([]string(nil), seq...)
	if startIndex < 0 || startIndex >= len(c.seq) {
		startIndex = 0
	}
	c.index = startIndex
	c.open = true
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if !wasOpen && c.hooks.OnOpen != nil {
		c.hooks.OnOpen()
	}
	c.notify(snap)
}

// Next advances with wraparound; any pending auto-advance is discarded.
func (c *VideoController) Next() { c.navigate(func(i, n int) int { return nextIndex(i, n) }) }

// Previous retreats with wraparound; any pending auto-advance is discarded.
func (c *VideoController) Previous() { c.navigate(func(i, n int) int { return prevIndex(i, n) }) }

// GoTo jumps directly to index; out-of-range indexes are ignored.
func (c *VideoController) GoTo(index int) {
	c.navigate(func(_, n int) int {
		if index < 0 || index >= n {
			return -1
		}
		return index
	})
}

func (c *VideoController) navigate(step func(i, n int) int) {
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
	c.stopPendingLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// VideoEnded reports that the current video finished playing. If it is not
// the last item, the controller advances after the configured delay.
func (c *VideoController) VideoEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || c.index >= len(c.seq)-1 {
		return
	}
	c.timerGen++
	gen := c.timerGen
	c.cancel = c.schedule(c.delay, func() { c.advanceAfterEnd(gen) })
}

func (c *VideoController) advanceAfterEnd(gen uint64) {
	c.mu.Lock()
	if !c.open || gen != c.timerGen || c.index >= len(c.seq)-1 {
		c.mu.Unlock()
		return
	}
	c.index++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Close discards any pending advance and returns to the closed state.
// Safe to call when already closed.
func (c *VideoController) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	c.open = false
	c.seq = nil
	c.index = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.hooks.OnClose != nil {
		c.hooks.OnClose()
	}
	c.notify(snap)
}

// HandleKey dispatches the same bindings as the photo lightbox.
func (c *VideoController) HandleKey(k Key) {
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

// Snapshot returns the current state.
func (c *VideoController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *VideoController) stopPendingLocked() {
	c.timerGen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *VideoController) snapshotLocked() Snapshot {
	snap := Snapshot{
		Open:   c.open,
		Index:  c.index,
		Length: len(c.seq),
	}
	if c.open {
		snap.URL = c.seq[c.index]
		snap.Progress = progressFor(c.index, len(c.seq))
	}
	return snap
}

func (c *VideoController) notify(snap Snapshot) {
	if c.listener != nil {
		c.listener(snap)
	}
}
