package classifier

import (
	"time"

	"github.com/cuemby/irrelay/pkg/event"
)

// Kind tells how an emitted event was classified
type Kind string

const (
	// KindPassthrough is a pending event flushed unmodified because the
	// repeat sequence was interrupted by another key or a counter gap
	KindPassthrough Kind = "passthrough"
	// KindNew is a short press
	KindNew Kind = "new"
	// KindHold is a press held beyond the hold threshold
	KindHold Kind = "hold"
)

// Timing holds the classifier time constants
type Timing struct {
	HoldThreshold time.Duration // Press age after which a repeat sequence becomes HOLD
	Settle        time.Duration // Quiet period after the last report that flushes a pending press
	Heartbeat     time.Duration // Idle diagnostic tick, 0 disables it
}

// DefaultTiming returns the timing used against lircd
func DefaultTiming() Timing {
	return Timing{
		HoldThreshold: 500 * time.Millisecond,
		Settle:        100 * time.Millisecond,
		Heartbeat:     time.Second,
	}
}

// Emission is an event leaving the classifier
type Emission struct {
	Event event.Event
	Kind  Kind
	Held  time.Duration // Time since the original press
}

type pending struct {
	ev   event.Event
	at   time.Time // Original press time, never moved by repeats
	last time.Time // Arrival of the latest report, drives the settle deadline
}

// Machine is the repeat classification state machine. It holds no goroutines
// and no clock; callers pass the current time into every transition.
// A Machine is not safe for concurrent use.
type Machine struct {
	timing  Timing
	pending *pending
}

// NewMachine creates an idle machine
func NewMachine(timing Timing) *Machine {
	return &Machine{timing: timing}
}

// Pending returns the press awaiting classification, if any
func (m *Machine) Pending() (event.Event, bool) {
	if m.pending == nil {
		return event.Event{}, false
	}
	return m.pending.ev, true
}

// Deadline returns when Expire should next be called. The zero time means
// the machine is idle and has no deadline.
func (m *Machine) Deadline() time.Time {
	if m.pending == nil {
		return time.Time{}
	}
	return m.pending.last.Add(m.timing.Settle)
}

// Handle feeds one raw report into the machine and returns the event to emit,
// if the transition produced one.
func (m *Machine) Handle(ev event.Event, now time.Time) (Emission, bool) {
	p := m.pending
	if p == nil {
		// Repeats without a press are orphans
		m.startIfPress(ev, now)
		return Emission{}, false
	}

	switch {
	case ev.Name != p.ev.Name:
		m.pending = nil
		m.startIfPress(ev, now)
		return Emission{Event: p.ev, Kind: KindPassthrough, Held: now.Sub(p.at)}, true

	case uint64(ev.Repeat) != uint64(p.ev.Repeat)+1:
		m.pending = nil
		m.startIfPress(ev, now)
		return Emission{Event: p.ev, Kind: KindPassthrough, Held: now.Sub(p.at)}, true

	case now.Sub(p.at) > m.timing.HoldThreshold:
		m.pending = nil
		return Emission{Event: p.ev.ToHold(), Kind: KindHold, Held: now.Sub(p.at)}, true

	default:
		p.ev = ev
		p.last = now
		return Emission{}, false
	}
}

// Expire flushes the pending press once the settle deadline has passed
func (m *Machine) Expire(now time.Time) (Emission, bool) {
	p := m.pending
	if p == nil || now.Before(m.Deadline()) {
		return Emission{}, false
	}
	m.pending = nil

	held := now.Sub(p.at)
	if held > m.timing.HoldThreshold {
		return Emission{Event: p.ev.ToHold(), Kind: KindHold, Held: held}, true
	}
	return Emission{Event: p.ev.ToNew(), Kind: KindNew, Held: held}, true
}

// Discard drops the pending press, returning it if there was one
func (m *Machine) Discard() (event.Event, bool) {
	ev, ok := m.Pending()
	m.pending = nil
	return ev, ok
}

func (m *Machine) startIfPress(ev event.Event, now time.Time) {
	if ev.Repeat != 0 {
		return
	}
	m.pending = &pending{ev: ev, at: now, last: now}
}
