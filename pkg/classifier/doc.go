/*
Package classifier turns lircd repeat telemetry into NEW and HOLD key events.

lircd reports a held key as a press (repeat 0) followed by one report per
auto-repeat with the counter incremented by one. Consumers usually want a
single event per gesture instead: either a short press (NEW) or a long press
(HOLD, key name suffixed with "_HOLD").

# State Machine

	                   repeat==0
	   ┌──────┐ ───────────────────────▶ ┌───────────────────┐
	   │ Idle │                          │ Pending(ev, at)   │◀─┐ repeat==prev+1,
	   └──────┘ ◀─────────────────────── └───────────────────┘──┘ age <= 500ms
	      │ ▲     emit on: settle,          │
	      │ │     age > 500ms, other key,   │ other key / counter gap:
	      └─┘     counter gap               │ emit prev unmodified,
	   heartbeat                            │ re-enter Pending if repeat==0

The press time "at" is pinned to the original press: repeats replace the
pending event but do not move it, so the 500ms hold threshold measures the
total hold duration. The settle deadline is 100ms after the latest report.

# Timers

A single timer follows an explicit deadline: settle while Pending, heartbeat
(debug log only) while Idle. Machine holds the transitions with no clock of
its own; Classifier.Run owns the timer and the channels.

On stop a pending press is discarded. When the raw event channel closes
without a stop, Run returns ErrSourceClosed.
*/
package classifier
