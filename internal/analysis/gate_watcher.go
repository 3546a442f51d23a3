// SPDX-License-Identifier: MIT
package analysis

// Gate event names.
const (
	EventGateOpen  = "gate_open"
	EventGateClose = "gate_close"
)

// GateEvent is sent to clients when the gate changes direction.
type GateEvent struct {
	Type string `json:"type"` // Always "event"
	Name string `json:"name"`
}

// GateWatcher turns sampled gate states into open/close events. The first
// observation only primes it. Not safe for concurrent use.
type GateWatcher struct {
	primed bool
	open   bool
	opens  uint64
	closes uint64
}

// Observe records the current gate state and reports a transition event.
func (w *GateWatcher) Observe(open bool) (GateEvent, bool) {
	if !w.primed {
		w.primed = true
		w.open = open
		return GateEvent{}, false
	}
	if open == w.open {
		return GateEvent{}, false
	}
	w.open = open

	if open {
		w.opens++
		return GateEvent{Type: "event", Name: EventGateOpen}, true
	}
	w.closes++
	return GateEvent{Type: "event", Name: EventGateClose}, true
}

// Counts returns how many open and close events were emitted.
func (w *GateWatcher) Counts() (opens, closes uint64) {
	return w.opens, w.closes
}
