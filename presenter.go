// presenter.go
package qreality

import (
	"sync"
)

/*
Presenter receives fire-and-forget notifications about the simulation, meant
for a rendering or VFX collaborator. The engine never waits on a presenter and
never reads anything back from it, so implementations must return quickly.
*/
type Presenter interface {
	OnStateCreated(state State)
	OnStateCollapsed(state State)
	OnDistortionCreated(d Distortion)
	OnDistortionRemoved(d Distortion)
	OnTunnelCreated(t Tunnel)
	OnTunnelRemoved(t Tunnel)
	OnInterference(state State)
	OnEmergency(stability float64)
}

// NopPresenter discards every notification.
type NopPresenter struct{}

func (NopPresenter) OnStateCreated(State)           {}
func (NopPresenter) OnStateCollapsed(State)         {}
func (NopPresenter) OnDistortionCreated(Distortion) {}
func (NopPresenter) OnDistortionRemoved(Distortion) {}
func (NopPresenter) OnTunnelCreated(Tunnel)         {}
func (NopPresenter) OnTunnelRemoved(Tunnel)         {}
func (NopPresenter) OnInterference(State)           {}
func (NopPresenter) OnEmergency(float64)            {}

// EventKind identifies which presentation hook produced an Event.
type EventKind int

const (
	EventStateCreated EventKind = iota
	EventStateCollapsed
	EventDistortionCreated
	EventDistortionRemoved
	EventTunnelCreated
	EventTunnelRemoved
	EventInterference
	EventEmergency
)

func (k EventKind) String() string {
	switch k {
	case EventStateCreated:
		return "state_created"
	case EventStateCollapsed:
		return "state_collapsed"
	case EventDistortionCreated:
		return "distortion_created"
	case EventDistortionRemoved:
		return "distortion_removed"
	case EventTunnelCreated:
		return "tunnel_created"
	case EventTunnelRemoved:
		return "tunnel_removed"
	case EventInterference:
		return "interference"
	case EventEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

/*
Event is the payload published by EventBroadcaster. Only the field matching
Kind is populated.
*/
type Event struct {
	Kind       EventKind
	State      *State
	Distortion *Distortion
	Tunnel     *Tunnel
	Stability  float64
}

// FilterFunc decides whether an event should reach a subscriber.
type FilterFunc func(Event) bool

/*
BroadcastMetrics tracks delivery through an EventBroadcaster.
*/
type BroadcastMetrics struct {
	MessagesSent      int64
	MessagesDropped   int64
	ActiveSubscribers int
}

/*
EventBroadcaster is a Presenter that fans events out to subscriber channels.

Sends never block: when a subscriber's buffer is full the event is dropped and
counted, so a slow renderer cannot stall a tick. Subscribers typically drain
their channel on another goroutine, which is why the broadcaster itself is
guarded by a mutex while the engine is not.
*/
type EventBroadcaster struct {
	mu sync.RWMutex

	subscribers map[string]chan Event
	filters     map[string][]FilterFunc
	metrics     BroadcastMetrics
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		subscribers: make(map[string]chan Event),
		filters:     make(map[string][]FilterFunc),
	}
}

/*
Subscribe registers a subscriber with its own buffered channel. When filters
are given, an event is delivered if any of them accepts it.
*/
func (eb *EventBroadcaster) Subscribe(subscriberID string, bufferSize int, filters ...FilterFunc) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if old, exists := eb.subscribers[subscriberID]; exists {
		close(old)
		eb.metrics.ActiveSubscribers--
	}

	ch := make(chan Event, bufferSize)
	eb.subscribers[subscriberID] = ch
	if len(filters) > 0 {
		eb.filters[subscriberID] = filters
	} else {
		delete(eb.filters, subscriberID)
	}

	eb.metrics.ActiveSubscribers++
	return ch
}

// Unsubscribe closes and forgets the subscriber's channel.
func (eb *EventBroadcaster) Unsubscribe(subscriberID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if ch, exists := eb.subscribers[subscriberID]; exists {
		close(ch)
		delete(eb.subscribers, subscriberID)
		delete(eb.filters, subscriberID)
		eb.metrics.ActiveSubscribers--
	}
}

func (eb *EventBroadcaster) publish(ev Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for subID, ch := range eb.subscribers {
		if filters, ok := eb.filters[subID]; ok && !anyAccepts(filters, ev) {
			continue
		}

		select {
		case ch <- ev:
			eb.metrics.MessagesSent++
		default:
			eb.metrics.MessagesDropped++
		}
	}
}

func anyAccepts(filters []FilterFunc, ev Event) bool {
	for _, f := range filters {
		if f(ev) {
			return true
		}
	}
	return false
}

// OnlyKinds builds a filter accepting the listed event kinds.
func OnlyKinds(kinds ...EventKind) FilterFunc {
	return func(ev Event) bool {
		for _, k := range kinds {
			if ev.Kind == k {
				return true
			}
		}
		return false
	}
}

// Metrics returns a copy of the delivery counters.
func (eb *EventBroadcaster) Metrics() BroadcastMetrics {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.metrics
}

// Close closes every subscriber channel.
func (eb *EventBroadcaster) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, ch := range eb.subscribers {
		close(ch)
	}
	eb.subscribers = make(map[string]chan Event)
	eb.filters = make(map[string][]FilterFunc)
	eb.metrics.ActiveSubscribers = 0
}

func (eb *EventBroadcaster) OnStateCreated(s State) {
	eb.publish(Event{Kind: EventStateCreated, State: &s})
}

func (eb *EventBroadcaster) OnStateCollapsed(s State) {
	eb.publish(Event{Kind: EventStateCollapsed, State: &s})
}

func (eb *EventBroadcaster) OnDistortionCreated(d Distortion) {
	eb.publish(Event{Kind: EventDistortionCreated, Distortion: &d})
}

func (eb *EventBroadcaster) OnDistortionRemoved(d Distortion) {
	eb.publish(Event{Kind: EventDistortionRemoved, Distortion: &d})
}

func (eb *EventBroadcaster) OnTunnelCreated(t Tunnel) {
	eb.publish(Event{Kind: EventTunnelCreated, Tunnel: &t})
}

func (eb *EventBroadcaster) OnTunnelRemoved(t Tunnel) {
	eb.publish(Event{Kind: EventTunnelRemoved, Tunnel: &t})
}

func (eb *EventBroadcaster) OnInterference(s State) {
	eb.publish(Event{Kind: EventInterference, State: &s})
}

func (eb *EventBroadcaster) OnEmergency(stability float64) {
	eb.publish(Event{Kind: EventEmergency, Stability: stability})
}
