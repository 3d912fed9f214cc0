// Package pubsub implements the in-process progress channel: a per-job
// fan-out from the worker running a pipeline to any number of live stream
// subscribers. There is no replay; a subscriber only sees events published
// after it subscribed, and late subscribers are handed an already-closed
// subscription so they can fall back to the persisted job record.
package pubsub

import (
	"sync"

	"appforge/internal/domain"
)

// Subscription is one listener's view of a job's progress channel. Events
// holds at most the configured buffer; the channel is closed after the
// terminal event is delivered (or immediately, for late subscribers).
type Subscription struct {
	Events <-chan domain.ProgressEvent

	broker *Broker
	topic  string
	ch     chan domain.ProgressEvent
	once   sync.Once
}

// Unsubscribe detaches the subscription from its topic. Safe to call more
// than once and after the topic has terminated.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.broker != nil {
			s.broker.drop(s.topic, s)
		}
	})
}

type topic struct {
	subs map[*Subscription]struct{}
	done bool
}

// Broker fans progress events out to subscribers, one topic per job id. A
// handle is passed explicitly into the worker pool and the streaming
// handlers; there is no package-level singleton.
type Broker struct {
	mu      sync.Mutex
	topics  map[string]*topic
	bufSize int
}

// NewBroker creates a broker whose subscriber channels buffer bufSize
// events each.
func NewBroker(bufSize int) *Broker {
	if bufSize < 1 {
		bufSize = 1
	}
	return &Broker{
		topics:  make(map[string]*topic),
		bufSize: bufSize,
	}
}

// Subscribe registers a listener for the given job. If the topic has
// already terminated the returned subscription's channel is closed
// immediately, so a ranging consumer falls straight through to its
// job-record fallback instead of hanging.
func (b *Broker) Subscribe(jobID string) *Subscription {
	sub := &Subscription{broker: b, topic: jobID, ch: make(chan domain.ProgressEvent, b.bufSize)}
	sub.Events = sub.ch

	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[jobID]
	if !ok {
		t = &topic{subs: make(map[*Subscription]struct{})}
		b.topics[jobID] = t
	}
	if t.done {
		close(sub.ch)
		return sub
	}
	t.subs[sub] = struct{}{}
	return sub
}

// Publish delivers the event to every current subscriber of the job's topic.
// Delivery never blocks the worker: when a subscriber's buffer is full the
// snapshot event is dropped for that subscriber (snapshots are cumulative,
// so a later one supersedes it). A terminal event marks the topic done and
// closes every subscriber channel; the close itself signals end-of-stream
// even if the terminal event could not be buffered. Publishing on a topic
// that already terminated is a programming error and is ignored.
func (b *Broker) Publish(jobID string, event domain.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[jobID]
	if !ok {
		if event.Terminal() {
			// Remember termination so late subscribers observe it.
			b.topics[jobID] = &topic{done: true}
		}
		return
	}
	if t.done {
		return
	}

	for sub := range t.subs {
		select {
		case sub.ch <- event:
		default:
		}
	}

	if event.Terminal() {
		t.done = true
		for sub := range t.subs {
			close(sub.ch)
		}
		t.subs = nil
	}
}

// SubscriberCount returns the number of live subscriptions for a job.
func (b *Broker) SubscriberCount(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[jobID]; ok {
		return len(t.subs)
	}
	return 0
}

// Forget releases a terminated topic. The worker calls it once the terminal
// transition has been persisted, so the topics map does not grow without
// bound.
func (b *Broker) Forget(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[jobID]; ok && t.done {
		delete(b.topics, jobID)
	}
}

func (b *Broker) drop(jobID string, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[jobID]
	if !ok || t.subs == nil {
		return
	}
	if _, present := t.subs[sub]; present {
		delete(t.subs, sub)
		close(sub.ch)
	}
	if len(t.subs) == 0 && !t.done {
		delete(b.topics, jobID)
	}
}
