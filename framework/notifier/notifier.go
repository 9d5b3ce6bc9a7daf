// Package notifier is a small observer registry. Applications use it to
// announce lifecycle events to whoever registered interest.
package notifier

import (
	"slices"
	"sync"
	"time"
)

// Lifecycle events announced by the kernel.
const (
	AppCreated        = "app_created"
	RequestCreated    = "request_created"
	RequestStarted    = "request_started"
	RequestFinished   = "request_finished"
	ControllerStarted = "controller_started"
	PackageLoaded     = "package_loaded"
)

// AllEvents is the key Registered uses for observers without event filter.
const AllEvents = "__all"

// Observer is called with the event, its source and the method that fired it.
type Observer func(event string, source any, method string)

// Observation is one notified event.
type Observation struct {
	At    time.Time
	Event string
}

type registration struct {
	name     string
	observer Observer
	events   []string
}

// Notifier dispatches events to registered observers in registration order.
type Notifier struct {
	mu        sync.RWMutex
	observers []registration
	observed  []Observation
}

// New creates an empty Notifier.
func New() *Notifier { return &Notifier{} }

// Register adds (or replaces) the observer called name. Without events the
// observer receives everything.
//
//	n.Register("audit", func(event string, src any, _ string) { ... }, notifier.RequestFinished)
func (n *Notifier) Register(name string, fn Observer, events ...string) *Notifier {
	n.mu.Lock()
	defer n.mu.Unlock()
	reg := registration{name: name, observer: fn, events: events}
	for i, r := range n.observers {
		if r.name == name {
			n.observers[i] = reg
			return n
		}
	}
	n.observers = append(n.observers, reg)
	return n
}

// Unregister removes the observer called name.
func (n *Notifier) Unregister(name string) *Notifier {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = slices.DeleteFunc(n.observers, func(r registration) bool { return r.name == name })
	return n
}

// Notify records event and calls every observer interested in it.
func (n *Notifier) Notify(event string, source any, method string) {
	n.mu.Lock()
	n.observed = append(n.observed, Observation{At: time.Now(), Event: event})
	observers := slices.Clone(n.observers)
	n.mu.Unlock()

	for _, r := range observers {
		if len(r.events) == 0 || slices.Contains(r.events, event) {
			r.observer(event, source, method)
		}
	}
}

// Observed returns the events notified so far, oldest first.
func (n *Notifier) Observed() []Observation {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.observed)
}

// Registered maps each event onto the names of its observers.
func (n *Notifier) Registered() map[string][]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string][]string)
	for _, r := range n.observers {
		events := r.events
		if len(events) == 0 {
			events = []string{AllEvents}
		}
		for _, e := range events {
			out[e] = append(out[e], r.name)
		}
	}
	return out
}
