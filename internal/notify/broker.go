// Package notify implements the in-process event broker that fans out
// journal changes and transient user notices to subscribers (the timeline
// re-renderer, the watch loop, tests).
package notify

import (
	"sync/atomic"
	"time"
)

// Event types published by the journal and staging layers.
const (
	EventReloaded     = "memory.reloaded"
	EventCreated      = "memory.created"
	EventUpdated      = "memory.updated"
	EventDeleted      = "memory.deleted"
	EventStagingAdded = "staging.added"
	EventNotice       = "notice"
	EventRefresh      = "timeline.refresh"
)

// Notice levels.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Event is a single broadcast message.
type Event struct {
	Type string
	Data any
}

// Notice is the payload of an EventNotice: a transient on-screen message.
// Errors never escape an operation boundary; they become one of these.
type Notice struct {
	Level   string
	Message string
}

type memoryEventReq struct {
	kind string
	id   int64
}

// Broker fans out events to subscribers.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable
// state (subscribers + refresh throttle timestamp). Public methods
// communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	refreshMin time.Duration

	subscribeCh   chan chan Event
	unsubscribeCh chan chan Event
	publishCh     chan Event
	memoryEventCh chan memoryEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. refreshThrottle bounds how often a
// timeline.refresh event accompanies memory changes, so back-to-back
// reloads collapse into one re-render.
func NewBroker(refreshThrottle time.Duration) *Broker {
	if refreshThrottle <= 0 {
		refreshThrottle = 500 * time.Millisecond
	}

	b := &Broker{
		refreshMin:    refreshThrottle,
		subscribeCh:   make(chan chan Event),
		unsubscribeCh: make(chan chan Event),
		publishCh:     make(chan Event, 256),
		memoryEventCh: make(chan memoryEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	subscribers := make(map[chan Event]struct{})
	var lastRefresh time.Time

	broadcast := func(event Event) {
		for ch := range subscribers {
			select {
			case ch <- event:
			default:
				// Subscriber buffer full; skip to avoid blocking the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subscribers {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			subscribers[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := subscribers[ch]; ok {
				delete(subscribers, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.memoryEventCh:
			switch req.kind {
			case EventReloaded, EventCreated, EventUpdated, EventDeleted:
				broadcast(Event{Type: req.kind, Data: req.id})
			}

			now := time.Now()
			if now.Sub(lastRefresh) >= b.refreshMin {
				lastRefresh = now
				broadcast(Event{Type: EventRefresh})
			}

		case resp := <-b.countReqCh:
			resp <- len(subscribers)
		}
	}
}

// Close gracefully stops the loop and closes all subscriber channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a subscriber and returns its channel.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all subscribers.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishMemoryEvent publishes a memory change plus a throttled
// timeline.refresh event.
func (b *Broker) PublishMemoryEvent(kind string, id int64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.memoryEventCh <- memoryEventReq{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// Notify publishes a transient user-facing notice.
func (b *Broker) Notify(level, message string) {
	b.Publish(Event{Type: EventNotice, Data: Notice{Level: level, Message: message}})
}
