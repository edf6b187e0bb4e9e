package weather

import (
	"context"
	"sync"
)

// EventKind identifies what a stream Event carries.
type EventKind string

const (
	EventLoading EventKind = "loading"
	EventWeather EventKind = "weather"
	EventError   EventKind = "error"
)

// Event is one emission of a weather Subscription.
type Event struct {
	Kind    EventKind
	Weather *Weather
	Err     error
}

// Subscription delivers weather events for one coordinate until closed.
type Subscription struct {
	events    chan Event
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscription(cancel context.CancelFunc) *Subscription {
	return &Subscription{
		events: make(chan Event),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Events returns the event channel. It is closed after Close or when the
// context passed to Repository.Stream is done.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done is closed once the subscription has stopped emitting.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close cancels the subscription. Refreshes already in flight still
// complete and update the store.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.cancel)
	<-s.done
}

func (s *Subscription) send(ctx context.Context, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Subscription) finish() {
	close(s.events)
	close(s.done)
}
