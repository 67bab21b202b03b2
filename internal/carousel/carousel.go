// Package carousel implements the media viewer state machine: an ordered
// media sequence, a current index with modular wraparound, optional timed
// autoplay, keyboard bindings, and touch-swipe navigation.
//
// The controller is toolkit-independent: every user intent (open, navigate,
// key press, touch) is a method call with a well-defined before/after state,
// and each transition is reported to the configured listener as a Snapshot.
package carousel

import "time"

// Default timings.
const (
	// DefaultAutoplayInterval is the fixed delay between automatic
	// advances in a multi-item lightbox.
	DefaultAutoplayInterval = 3 * time.Second
	// DefaultAdvanceDelay is the pause between a video finishing and the
	// next one starting.
	DefaultAdvanceDelay = 500 * time.Millisecond
)

// ItemProgress describes one item's position indicator.
type ItemProgress int

// Progress states: items before the current one are completed, the current
// one is active, later items are untouched.
const (
	ProgressPending ItemProgress = iota
	ProgressActive
	ProgressCompleted
)

// Snapshot is the externally visible state after a transition.
type Snapshot struct {
	Open     bool
	Index    int
	Length   int
	URL      string
	Autoplay bool
	Progress []ItemProgress
}

// Listener receives a snapshot after every state transition.
type Listener func(Snapshot)

// Hooks run on viewer entry and exit: the page-scroll lock and gesture
// listener setup of the original UI become these two callbacks.
type Hooks struct {
	OnOpen  func()
	OnClose func()
}

// Key is a keyboard binding recognized while the viewer is open.
type Key int

// Recognized keys.
const (
	KeyEscape Key = iota
	KeyArrowLeft
	KeyArrowRight
)

// cancelFunc stops a scheduled callback; it reports whether the callback
// had not yet fired.
type cancelFunc func() bool

// scheduler is the time.AfterFunc seam, replaceable in tests.
type scheduler func(d time.Duration, fn func()) cancelFunc

func realScheduler(d time.Duration, fn func()) cancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// settings is shared configuration for both controller variants.
type settings struct {
	interval time.Duration
	delay    time.Duration
	schedule scheduler
	listener Listener
	hooks    Hooks
}

func newSettings(opts []Option) settings {
	s := settings{
		interval: DefaultAutoplayInterval,
		delay:    DefaultAdvanceDelay,
		schedule: realScheduler,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a controller.
type Option func(*settings)

// WithListener sets the snapshot listener.
func WithListener(l Listener) Option {
	return func(s *settings) { s.listener = l }
}

// WithHooks sets the open/close hooks.
func WithHooks(h Hooks) Option {
	return func(s *settings) { s.hooks = h }
}

// WithInterval overrides the autoplay interval.
func WithInterval(d time.Duration) Option {
	return func(s *settings) { s.interval = d }
}

// WithAdvanceDelay overrides the video auto-advance delay.
func WithAdvanceDelay(d time.Duration) Option {
	return func(s *settings) { s.delay = d }
}

// WithScheduler replaces the timer implementation (tests).
func WithScheduler(sched func(time.Duration, func()) func() bool) Option {
	return func(s *settings) {
		s.schedule = func(d time.Duration, fn func()) cancelFunc {
			return cancelFunc(sched(d, fn))
		}
	}
}

// nextIndex and prevIndex implement wraparound navigation.
func nextIndex(i, n int) int { return (i + 1) % n }
func prevIndex(i, n int) int { return (i - 1 + n) % n }

func progressFor(index, n int) []ItemProgress {
	p := make([]ItemProgress, n)
	for i := range p {
		switch {
		case i < index:
			p[i] = ProgressCompleted
		case i == index:
			p[i] = ProgressActive
		default:
			p[i] = ProgressPending
		}
	}
	return p
}
