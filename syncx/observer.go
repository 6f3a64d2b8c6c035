// Package syncx holds small synchronisation helpers shared across transport
// packages, so each one doesn't reinvent the same broadcast primitive.
package syncx

import "sync"

// ObserverSet is the broadcast-on-arrival registry behind every receive
// port's selector support (spec §4.8). Add hands back an unsubscribe
// closure rather than supporting removal by value, since Go func values
// aren't comparable.
type ObserverSet struct {
	mu        sync.Mutex
	observers []func()
}

// Add registers fn and returns a function that unregisters it.
func (o *ObserverSet) Add(fn func()) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
	idx := len(o.observers) - 1
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if idx < len(o.observers) {
			o.observers[idx] = nil
		}
	}
}

// Notify calls every still-registered observer. Safe to call concurrently
// with Add.
func (o *ObserverSet) Notify() {
	o.mu.Lock()
	obs := append([]func(){}, o.observers...)
	o.mu.Unlock()
	for _, fn := range obs {
		if fn != nil {
			fn()
		}
	}
}
