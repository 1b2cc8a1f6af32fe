/*
Package daemon runs the relay: it connects to lircd, binds the output socket
and drives the three core loops under one errgroup.

	lircd ──▶ source.Reader ──raw──▶ classifier ──classified──▶ broadcast.Hub
	                                                                │
	                                     server (accept + writers) ◀┘

Shutdown is a single cancellation. The first SIGINT, SIGHUP, SIGTERM or
SIGQUIT cancels the shared context; later signals are only logged. Each loop
observes the cancellation on its own: the reader closes its connection, the
classifier discards a pending press without emitting it and the hub closes
every subscriber queue. Run waits for all of them, closes the output socket
and removes its file before returning an exit code:

	ExitOK       stop requested, or the parent context was cancelled
	ExitConnect  lircd unreachable or the output socket could not be bound
	ExitPipeline a loop stopped without a stop request (usually lircd hung up)
*/
package daemon
