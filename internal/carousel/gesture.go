package carousel

import (
	"math"
	"time"
)

// Swipe classification thresholds.
const (
	swipeMaxDuration    = time.Second
	swipeMinHorizontal  = 80.0
	swipeMaxVertical    = 120.0
	swipeDominanceRatio = 1.5
)

type swipeDirection int

const (
	swipeNone swipeDirection = iota
	swipeNext
	swipePrevious
)

// swipeTracker records a single-touch start point and timestamp.
type swipeTracker struct {
	active    bool
	startX    float64
	startY    float64
	startedAt time.Time
}

func (t *swipeTracker) start(x, y float64, at time.Time) {
	t.active = true
	t.startX, t.startY = x, y
	t.startedAt = at
}

func (t *swipeTracker) reset() {
	t.active = false
}

// horizontalDominates reports whether the movement so far is mostly
// horizontal, in which case the caller should suppress default scrolling.
func (t *swipeTracker) horizontalDominates(x, y float64) bool {
	return math.Abs(x-t.startX) > math.Abs(y-t.startY)
}

// end finishes the gesture and classifies it.
func (t *swipeTracker) end(x, y float64, at time.Time) swipeDirection {
	if !t.active {
		return swipeNone
	}
	dx := x - t.startX
	dy := y - t.startY
	dur := at.Sub(t.startedAt)
	t.reset()
	return classifySwipe(dx, dy, dur)
}

// classifySwipe applies the gesture rules: within a one-second window, the
// horizontal distance must exceed 80 units, the vertical distance must stay
// under 120, and horizontal must exceed 1.5x vertical. A positive delta
// (rightward) navigates to the previous item, a negative one to the next.
func classifySwipe(dx, dy float64, dur time.Duration) swipeDirection {
	if dur > swipeMaxDuration {
		return swipeNone
	}
	ax, ay := math.Abs(dx), math.Abs(dy)
	if ax <= swipeMinHorizontal || ay >= swipeMaxVertical || ax <= swipeDominanceRatio*ay {
		return swipeNone
	}
	if dx > 0 {
		return swipePrevious
	}
	return swipeNext
}
