/*
Package broadcast implements the subscriber registry and event fan-out.

A Hub is a single goroutine that exclusively owns the map of connected output
clients. Nothing else touches the map; every change arrives as a Message on
one control channel:

	Init{Subscriber}  register a new client queue
	Close{ID}         drop a client and close its queue

Messages are dispatched by an exhaustive type switch, and an unknown variant
panics rather than being ignored.

# Fan-out

	classifier ──▶ in ──▶ Hub.Run ──┬──▶ queue(1) ──▶ writer(1) ──▶ client 1
	                        ▲       ├──▶ queue(2) ──▶ writer(2) ──▶ client 2
	           Init/Close   │       └──▶ queue(3) ──▶ writer(3) ──▶ client 3
	           ─────────────┘

Each classified event is encoded once and offered to every queue without
blocking. A subscriber whose writer has gone, or whose queue is full, is
closed on the spot and the pass continues with the remaining subscribers.
Registry edits and fan-out passes share a goroutine, so a pass never sees a
half-applied registration.

When Run returns (stop requested or input closed) every remaining queue is
closed, which ends the per-client writer loops.
*/
package broadcast
