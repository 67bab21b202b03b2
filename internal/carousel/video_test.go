package carousel

import "testing"

func testVideoController(t *testing.T) (*VideoController, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	return NewVideo(WithScheduler(clock.schedule)), clock
}

func TestVideoOpenNoTimer(t *testing.T) {
	c, clock := testVideoController(t)
	c.Open([]string{"a.mp4", "b.mp4"}, 0)

	if clock.armed() != 0 {
		t.Fatalf("armed timers on open = %d, want 0", clock.armed())
	}
	if snap := c.Snapshot(); snap.Autoplay {
		t.Fatal("video viewer reports interval autoplay")
	}
}

func TestVideoEndedAdvancesAfterDelay(t *testing.T) {
	c, clock := testVideoController(t)
	c.Open([]string{"a.mp4", "b.mp4", "c.mp4"}, 0)

	c.VideoEnded()
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("advanced before delay elapsed: index = %d", got)
	}
	clock.fire(t)
	if got := c.Snapshot().Index; got != 1 {
		t.Fatalf("index = %d, want 1", got)
	}
}

func TestVideoEndedLastItemStays(t *testing.T) {
	c, clock := testVideoController(t)
	c.Open([]string{"a.mp4", "b.mp4"}, 1)

	c.VideoEnded()
	if clock.armed() != 0 {
		t.Fatal("advance scheduled on last item")
	}
	if got := c.Snapshot().Index; got != 1 {
		t.Fatalf("index = %d, want 1", got)
	}
}

func TestVideoManualNavDiscardsPendingAdvance(t *testing.T) {
	c, clock := testVideoController(t)
	c.Open([]string{"a.mp4", "b.mp4", "c.mp4"}, 0)

	c.VideoEnded()
	c.Previous() // wraps to 2
	if got := c.Snapshot().Index; got != 2 {
		t.Fatalf("index = %d, want 2", got)
	}

	// Stale delay callback must not move the index again.
	clock.fireTimer(0)
	if got := c.Snapshot().Index; got != 2 {
		t.Fatalf("stale advance fired: index = %d", got)
	}
}

func TestVideoWraparoundManualOnly(t *testing.T) {
	c, _ := testVideoController(t)
	c.Open([]string{"a.mp4", "b.mp4"}, 1)

	c.Next()
	if got := c.Snapshot().Index; got != 0 {
		t.Fatalf("manual next from last: index = %d, want 0", got)
	}
}

func TestVideoCloseDiscardsPending(t *testing.T) {
	c, clock := testVideoController(t)
	c.Open([]string{"a.mp4", "b.mp4"}, 0)

	c.VideoEnded()
	c.Close()
	clock.fireTimer(0)
	if snap := c.Snapshot(); snap.Open || snap.Index != 0 {
		t.Fatalf("state after close: %+v", snap)
	}
	c.Close()
}

func TestVideoKeyboard(t *testing.T) {
	c, _ := testVideoController(t)
	c.Open([]string{"a.mp4", "b.mp4"}, 0)

	c.HandleKey(KeyArrowRight)
	if got := c.Snapshot().Index; got != 1 {
		t.Fatalf("index = %d, want 1", got)
	}
	c.HandleKey(KeyEscape)
	if c.Snapshot().Open {
		t.Fatal("escape did not close")
	}
}
