/*
Package server accepts relay clients on the output unix socket.

Listen first removes whatever file sits at the socket path (usually a socket
left behind by a crashed run), then binds. Every accepted connection gets the
next id from a counter that starts at 1 and is never reused, a private
broadcast.Subscriber queue registered with the hub, and a writer goroutine:

	accept ──▶ id=N ──▶ hub.Register(Init{N}) ──▶ writer loop
	                                               │ for line := range queue
	                                               │   write line + "\n"
	                                               ▼
	                         write error or hangup: hub.Deregister(Close{N})

A second goroutine per client reads and discards anything the client sends so
a hangup is noticed without waiting for the next event.

The accept loop only ends when the listener is closed or fails; it never
stops the relay. Close closes the listener and removes the socket file.
*/
package server
