package carousel

import (
	"sync"
	"testing"
	"time"
)

// fakeClock captures scheduled callbacks so tests control when the
// autoplay timer fires.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) schedule(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// fire runs the most recently armed live timer.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	var target *fakeTimer
	for i := len(c.timers) - 1; i >= 0; i-- {
		if !c.timers[i].stopped && !c.timers[i].fired {
			target = c.timers[i]
			break
		}
	}
	if target != nil {
		target.fired = true
	}
	c.mu.Unlock()

	if target == nil {
		t.Fatal("no live timer to fire")
	}
	target.fn()
}

// fireTimer runs a specific timer even if a newer one replaced it, the
// lost-race case the generation counter guards against.
func (c *fakeClock) fireTimer(i int) {
	c.mu.Lock()
	target := c.timers[i]
	target.fired = true
	c.mu.Unlock()
	target.fn()
}

func (c *fakeClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func testController(t *testing.T) (*Controller, *fakeClock, *[]Snapshot) {
	t.Helper()
	clock := &fakeClock{}
	var snaps []Snapshot
	c := New(
		WithScheduler(clock.schedule),
		WithListener(func(s Snapshot) { snaps = append(snaps, s) }),
	)
	return c, clock, &snaps
}

func TestOpenEmptySequence(t *testing.T) {
	c, _, snaps := testController(t)
	c.Open(nil, 0)
	if c.Snapshot().Open {
		t.Fatal("opened with empty sequence")
	}
	if len(*snaps) != 0 {
		t.Fatalf("listener called %d times", len(*snaps))
	}
}

func TestOpenClampsStartIndex(t *testing.T) {
	c, _, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg"}, 7)
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("index = %d, want 0", got)
	}
	c.Open([]string{"a.jpg", "b.jpg"}, -1)
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("index = %d, want 0", got)
	}
}

func TestWraparound(t *testing.T) {
	c, _, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg", "c.jpg"}, 0)

	c.Previous()
	if got := c.Snapshot().Index; got != 2 {
		t.Fatalf("previous from 0: index = %d, want 2", got)
	}
	c.Next()
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("next from last: index = %d, want 0", got)
	}

	// Five manual advances over three items land on 5 mod 3.
	for i := 0; i < 5; i++ {
		c.Next()
	}
	if got := c.Snapshot().Index; got != 2 {
		t.Fatalf("index = %d, want 2", got)
	}
}

func TestGoTo(t *testing.T) {
	c, _, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg", "c.jpg"}, 0)

	c.GoTo(2)
	if got := c.Snapshot().Index; got != 2 {
		t.Fatalf("index = %d, want 2", got)
	}
	c.GoTo(5)
	if got := c.Snapshot().Index; got != 2 {
		t.Fatalf("out-of-range GoTo moved index to %d", got)
	}
}

func TestAutoplayAdvancesAndWraps(t *testing.T) {
	c, clock, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg", "c.jpg"}, 0)

	if !c.Snapshot().Autoplay {
		t.Fatal("autoplay not active for multi-item sequence")
	}
	clock.fire(t)
	clock.fire(t)
	clock.fire(t)
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("after 3 fires over 3 items: index = %d, want 0", got)
	}
}

func TestSingleItemNoAutoplay(t *testing.T) {
	c, clock, _ := testController(t)
	c.Open([]string{"only.jpg"}, 0)

	if c.Snapshot().Autoplay {
		t.Fatal("single item should not autoplay")
	}
	if clock.armed() != 0 {
		t.Fatalf("armed timers = %d, want 0", clock.armed())
	}
}

func TestManualNavigationRestartsInterval(t *testing.T) {
	c, clock, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg", "c.jpg"}, 0)

	c.Next()
	if got := clock.armed(); got != 1 {
		t.Fatalf("armed timers after manual nav = %d, want 1", got)
	}

	// A stale callback from the original timer must not advance.
	clock.fireTimer(0)
	if got := c.Snapshot().Index; got != 1 {
		t.Fatalf("stale timer advanced index to %d", got)
	}
}

func TestCloseStopsAutoplay(t *testing.T) {
	c, clock, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg"}, 0)
	c.Close()

	if c.Snapshot().Open {
		t.Fatal("still open after close")
	}
	if clock.armed() != 0 {
		t.Fatalf("armed timers after close = %d", clock.armed())
	}
	// Idempotent.
	c.Close()
	if got := c.Snapshot(); got.Open || got.Length != 0 {
		t.Fatalf("second close changed state: %+v", got)
	}
}

func TestKeyboard(t *testing.T) {
	c, _, _ := testController(t)

	// Closed: bindings inert.
	c.HandleKey(KeyArrowRight)
	if c.Snapshot().Open {
		t.Fatal("key press opened the viewer")
	}

	c.Open([]string{"a.jpg", "b.jpg", "c.jpg"}, 0)
	c.HandleKey(KeyArrowRight)
	if got := c.Snapshot().Index; got != 1 {
		t.Fatalf("arrow right: index = %d, want 1", got)
	}
	c.HandleKey(KeyArrowLeft)
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("arrow left: index = %d, want 0", got)
	}
	c.HandleKey(KeyEscape)
	if c.Snapshot().Open {
		t.Fatal("escape did not close")
	}
}

func TestKeyboardSingleItemArrowsInert(t *testing.T) {
	c, _, _ := testController(t)
	c.Open([]string{"only.jpg"}, 0)
	c.HandleKey(KeyArrowRight)
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("index = %d, want 0", got)
	}
}

func TestSwipeNavigates(t *testing.T) {
	c, _, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg", "c.jpg"}, 1)

	start := time.Now()
	c.TouchStart(200, 100, start)
	c.TouchEnd(50, 110, start.Add(400*time.Millisecond))
	if got := c.Snapshot().Index; got != 2 {
		t.Fatalf("leftward swipe: index = %d, want 2", got)
	}

	c.TouchStart(50, 100, start)
	c.TouchEnd(200, 110, start.Add(400*time.Millisecond))
	if got := c.Snapshot().Index; got != 1 {
		t.Fatalf("rightward swipe: index = %d, want 1", got)
	}
}

func TestTouchSuspendsAndResumesAutoplay(t *testing.T) {
	c, clock, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg"}, 0)

	start := time.Now()
	c.TouchStart(100, 100, start)
	if clock.armed() != 0 {
		t.Fatal("autoplay still armed during touch")
	}
	if c.Snapshot().Autoplay {
		t.Fatal("snapshot reports autoplay during touch")
	}

	// Mostly vertical movement: no navigation, autoplay restarts.
	c.TouchEnd(110, 300, start.Add(300*time.Millisecond))
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("vertical gesture navigated to %d", got)
	}
	if clock.armed() != 1 {
		t.Fatalf("armed timers after gesture = %d, want 1", clock.armed())
	}
	if !c.Snapshot().Autoplay {
		t.Fatal("autoplay not resumed")
	}
}

func TestTouchMoveCapture(t *testing.T) {
	c, _, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg"}, 0)

	c.TouchStart(100, 100, time.Now())
	if !c.TouchMove(160, 110) {
		t.Fatal("horizontal movement not captured")
	}
	if c.TouchMove(110, 180) {
		t.Fatal("vertical movement captured")
	}
}

func TestProgressIndicator(t *testing.T) {
	c, _, _ := testController(t)
	c.Open([]string{"a.jpg", "b.jpg", "c.jpg"}, 1)

	snap := c.Snapshot()
	want := []ItemProgress{ProgressCompleted, ProgressActive, ProgressPending}
	for i, p := range want {
		if snap.Progress[i] != p {
			t.Fatalf("progress[%d] = %v, want %v", i, snap.Progress[i], p)
		}
	}
}

func TestHooks(t *testing.T) {
	var opened, closed int
	clock := &fakeClock{}
	c := New(
		WithScheduler(clock.schedule),
		WithHooks(Hooks{
			OnOpen:  func() { opened++ },
			OnClose: func() { closed++ },
		}),
	)

	c.Open([]string{"a.jpg"}, 0)
	c.Open([]string{"b.jpg"}, 0) // re-open while open: no second hook
	c.Close()
	c.Close()

	if opened != 1 || closed != 1 {
		t.Fatalf("opened = %d, closed = %d, want 1, 1", opened, closed)
	}
}

func TestOpenHookMayCallBack(t *testing.T) {
	clock := &fakeClock{}
	var c *Controller
	var seen Snapshot
	c = New(
		WithScheduler(clock.schedule),
		WithHooks(Hooks{OnOpen: func() { seen = c.Snapshot() }}),
	)

	c.Open([]string{"a.jpg", "b.jpg"}, 1)

	if !seen.Open || seen.Index != 1 {
		t.Fatalf("snapshot from hook = %+v, want open at index 1", seen)
	}
}

func TestListenerReceivesTransitions(t *testing.T) {
	c, _, snaps := testController(t)
	c.Open([]string{"a.jpg", "b.jpg"}, 0)
	c.Next()
	c.Close()

	if len(*snaps) != 3 {
		t.Fatalf("listener called %d times, want 3", len(*snaps))
	}
	if (*snaps)[1].URL != "b.jpg" {
		t.Errorf("second snapshot URL = %q", (*snaps)[1].URL)
	}
	if (*snaps)[2].Open {
		t.Error("final snapshot still open")
	}
}
