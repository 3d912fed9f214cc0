package pubsub

import (
	"testing"
	"time"

	"appforge/internal/domain"
)

func collect(t *testing.T, sub *Subscription, want int) []domain.ProgressEvent {
	t.Helper()
	var got []domain.ProgressEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return got
			}
			got = append(got, ev)
			if want > 0 && len(got) > want {
				t.Fatalf("received more than %d events", want)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %d", len(got))
		}
	}
}

func TestFanOutDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker(8)
	first := b.Subscribe("job-1")
	second := b.Subscribe("job-1")

	events := []domain.ProgressEvent{
		{Type: domain.EventFiles, Stage: "generate", Files: domain.FileMap{"a.txt": "x"}},
		{Type: domain.EventFiles, Stage: "validate", Files: domain.FileMap{"a.txt": "x", "b.txt": "y"}},
		{Type: domain.EventEnd, RepositoryURL: "https://example.test/r"},
	}
	for _, ev := range events {
		b.Publish("job-1", ev)
	}

	for name, sub := range map[string]*Subscription{"first": first, "second": second} {
		got := collect(t, sub, len(events))
		if len(got) != len(events) {
			t.Fatalf("%s subscriber got %d events, want %d", name, len(got), len(events))
		}
		for i, ev := range got {
			if ev.Type != events[i].Type {
				t.Fatalf("%s subscriber event %d type = %q, want %q", name, i, ev.Type, events[i].Type)
			}
		}
		if !got[len(got)-1].Terminal() {
			t.Fatalf("%s subscriber last event is not terminal", name)
		}
	}
}

func TestLateSubscriberGetsClosedChannel(t *testing.T) {
	b := NewBroker(4)
	b.Publish("job-2", domain.ProgressEvent{Type: domain.EventEnd})

	sub := b.Subscribe("job-2")
	select {
	case _, ok := <-sub.Events:
		if ok {
			t.Fatal("late subscriber received an event, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("late subscriber blocked instead of observing closed channel")
	}
}

func TestNoEventsBeforeSubscription(t *testing.T) {
	b := NewBroker(4)
	b.Publish("job-3", domain.ProgressEvent{Type: domain.EventFiles, Files: domain.FileMap{"a": "1"}})

	sub := b.Subscribe("job-3")
	b.Publish("job-3", domain.ProgressEvent{Type: domain.EventEnd})

	got := collect(t, sub, 2)
	if len(got) != 1 {
		t.Fatalf("got %d events, want only the end marker", len(got))
	}
	if got[0].Type != domain.EventEnd {
		t.Fatalf("event type = %q, want end", got[0].Type)
	}
}

func TestPublishAfterTerminalIsIgnored(t *testing.T) {
	b := NewBroker(4)
	sub := b.Subscribe("job-4")
	b.Publish("job-4", domain.ProgressEvent{Type: domain.EventError, Message: "boom"})
	b.Publish("job-4", domain.ProgressEvent{Type: domain.EventFiles, Files: domain.FileMap{"x": "y"}})

	got := collect(t, sub, 2)
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Type != domain.EventError {
		t.Fatalf("event type = %q, want error", got[0].Type)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker(4)
	sub := b.Subscribe("job-5")
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	b.Publish("job-5", domain.ProgressEvent{Type: domain.EventFiles, Files: domain.FileMap{"a": "1"}})

	if _, ok := <-sub.Events; ok {
		t.Fatal("received event after unsubscribe")
	}
	if n := b.SubscriberCount("job-5"); n != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", n)
	}
}

func TestSlowSubscriberDropsSnapshotsNotTermination(t *testing.T) {
	b := NewBroker(1)
	sub := b.Subscribe("job-6")

	// Fill the single-slot buffer, then keep publishing.
	for i := 0; i < 5; i++ {
		b.Publish("job-6", domain.ProgressEvent{Type: domain.EventFiles, Progress: i})
	}
	b.Publish("job-6", domain.ProgressEvent{Type: domain.EventEnd})

	got := collect(t, sub, 6)
	if len(got) == 0 {
		t.Fatal("expected at least the buffered snapshot")
	}
	// The channel closed, so the consumer observed end-of-stream even though
	// the terminal event itself may have been dropped.
}

func TestForgetReleasesTerminatedTopic(t *testing.T) {
	b := NewBroker(4)
	b.Publish("job-7", domain.ProgressEvent{Type: domain.EventEnd})
	b.Forget("job-7")

	// After Forget the topic is gone; a fresh terminal publish records done
	// again rather than panicking.
	b.Publish("job-7", domain.ProgressEvent{Type: domain.EventEnd})
	sub := b.Subscribe("job-7")
	if _, ok := <-sub.Events; ok {
		t.Fatal("expected closed channel for terminated topic")
	}
}
